package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/safar/aurora-commerce/internal/store"
	"github.com/shopspring/decimal"
)

func TestConsultationLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	c, err := store.CreateConsultation(ctx, db, store.CreateConsultationRequest{
		Name:          "Grace",
		Email:         "grace@x.io",
		Concern:       "Persistent redness",
		PreferredDate: "2026-11-02",
		PreferredTime: "14:30",
	})
	if err != nil {
		t.Fatalf("Create consultation: %v", err)
	}
	if c.Status != models.StatusPending || c.PaymentConfirmed || c.Fee != nil {
		t.Errorf("Unexpected initial state: %+v", c)
	}
	if c.PreferredDate != "2026-11-02" || c.PreferredTime != "14:30" {
		t.Errorf("Unexpected schedule %s %s", c.PreferredDate, c.PreferredTime)
	}

	consultant := "Dr. Lee"
	fee := decimal.RequireFromString("49.999")
	confirmed := models.StatusConfirmed
	online := models.MeetingOnline
	date := "2026-11-03"

	updated, err := store.UpdateConsultation(ctx, db, c.ID, store.UpdateConsultationRequest{
		AssignedConsultant: &consultant,
		Fee:                &fee,
		Status:             &confirmed,
		MeetingType:        &online,
		ConfirmedDate:      &date,
	})
	if err != nil {
		t.Fatalf("Update consultation: %v", err)
	}
	if updated.AssignedConsultant != "Dr. Lee" || updated.Status != models.StatusConfirmed {
		t.Errorf("Update not applied: %+v", updated)
	}
	if updated.Fee == nil || !updated.Fee.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("Expected fee rounded to 50.00, got %v", updated.Fee)
	}
	if updated.ConfirmedDate != "2026-11-03" {
		t.Errorf("Expected confirmed date, got %q", updated.ConfirmedDate)
	}

	if err := store.DeleteConsultation(ctx, db, c.ID); !errors.Is(err, database.ErrConsultationLocked) {
		t.Errorf("Confirmed consultation must not be deletable, got: %v", err)
	}

	if _, err := store.GetConsultationForEmail(ctx, db, c.ID, "mallory@x.io"); !errors.Is(err, database.ErrConsultationNotFound) {
		t.Errorf("Foreign email must not see the consultation, got: %v", err)
	}

	paid, err := store.ConfirmConsultationPayment(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("Confirm payment: %v", err)
	}
	if !paid.PaymentConfirmed {
		t.Error("Expected payment confirmed")
	}

	list, err := store.ListConsultations(ctx, db, "grace@x.io")
	if err != nil {
		t.Fatalf("List consultations: %v", err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Errorf("Unexpected list %+v", list)
	}
}

func TestConsultationValidation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.CreateConsultation(ctx, db, store.CreateConsultationRequest{
		Name: "Grace", Email: "grace@x.io", Concern: "Dry", PreferredDate: "03/11/2026",
	})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error for date, got: %v", err)
	}

	c, err := store.CreateConsultation(ctx, db, store.CreateConsultationRequest{
		Name: "Grace", Email: "grace@x.io", Concern: "Dry", PreferredDate: "2026-11-02",
	})
	if err != nil {
		t.Fatalf("Create consultation: %v", err)
	}

	negative := decimal.NewFromInt(-5)
	if _, err := store.UpdateConsultation(ctx, db, c.ID, store.UpdateConsultationRequest{Fee: &negative}); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error for fee, got: %v", err)
	}

	for _, raw := range []string{"10000", "9999.995"} {
		tooLarge := decimal.RequireFromString(raw)
		if _, err := store.UpdateConsultation(ctx, db, c.ID, store.UpdateConsultationRequest{Fee: &tooLarge}); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("Expected validation error for fee %s, got: %v", raw, err)
		}
	}

	largest := decimal.RequireFromString("9999.99")
	updated, err := store.UpdateConsultation(ctx, db, c.ID, store.UpdateConsultationRequest{Fee: &largest})
	if err != nil {
		t.Fatalf("Update with largest fee: %v", err)
	}
	if updated.Fee == nil || !updated.Fee.Equal(largest) {
		t.Errorf("Expected fee 9999.99, got %v", updated.Fee)
	}

	completed := models.StatusCompleted
	if _, err := store.UpdateConsultation(ctx, db, c.ID, store.UpdateConsultationRequest{Status: &completed}); apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("Expected conflict for skipped step, got: %v", err)
	}

	if err := store.DeleteConsultation(ctx, db, c.ID); err != nil {
		t.Fatalf("Delete pending consultation: %v", err)
	}
	if _, err := store.GetConsultation(ctx, db, c.ID); !errors.Is(err, database.ErrConsultationNotFound) {
		t.Errorf("Expected not found after delete, got: %v", err)
	}
}
