package store_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/safar/aurora-commerce/internal/store"
)

func appendAnalysis(t *testing.T, db *sql.DB, email, skinType, condition string, confidence float64) *models.AnalysisHistory {
	t.Helper()
	a, err := store.AppendAnalysis(context.Background(), db, store.AppendAnalysisRequest{
		UserEmail:          email,
		SkinType:           skinType,
		PredictedCondition: condition,
		Confidence:         &confidence,
	})
	if err != nil {
		t.Fatalf("Append analysis: %v", err)
	}
	return a
}

func TestAnalysisSummaryAndLatest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	empty, err := store.AnalysisSummary(ctx, db, "skin@x.io")
	if err != nil {
		t.Fatalf("Empty summary: %v", err)
	}
	if empty.LastAnalysis != nil || empty.CommonIssue != nil || empty.SkinScore != nil {
		t.Errorf("Expected all-null summary, got %+v", empty)
	}

	appendAnalysis(t, db, "skin@x.io", "oily", "acne", 0.61)
	appendAnalysis(t, db, "skin@x.io", "oily", "acne", 0.72)
	last := appendAnalysis(t, db, "skin@x.io", "oily", "rosacea", 0.875)

	latest, err := store.LatestAnalysis(ctx, db, "skin@x.io")
	if err != nil {
		t.Fatalf("Latest analysis: %v", err)
	}
	if latest == nil || latest.ID != last.ID {
		t.Fatalf("Expected latest %d, got %+v", last.ID, latest)
	}

	summary, err := store.AnalysisSummary(ctx, db, "skin@x.io")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.CommonIssue == nil || *summary.CommonIssue != "acne" {
		t.Errorf("Expected common issue acne, got %v", summary.CommonIssue)
	}
	if summary.SkinScore == nil || *summary.SkinScore != 88 {
		t.Errorf("Expected skin score 88, got %v", summary.SkinScore)
	}
	if summary.LastAnalysis == nil || *summary.LastAnalysis != last.CreatedAt.Format("2006-01-02") {
		t.Errorf("Unexpected last analysis %v", summary.LastAnalysis)
	}

	none, err := store.LatestAnalysis(ctx, db, "nobody@x.io")
	if err != nil || none != nil {
		t.Errorf("Expected no analysis, got %+v, %v", none, err)
	}
}

func TestUpdateAnalysis(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	a := appendAnalysis(t, db, "admin@x.io", "dry", "redness", 0.4)

	condition := "rosacea"
	updated, err := store.UpdateAnalysis(ctx, db, a.ID, store.UpdateAnalysisRequest{PredictedCondition: &condition})
	if err != nil {
		t.Fatalf("Update analysis: %v", err)
	}
	if updated.PredictedCondition != "rosacea" || updated.SkinType != "dry" {
		t.Errorf("Unexpected update result %+v", updated)
	}
	if updated.Confidence == nil || *updated.Confidence != 0.4 {
		t.Errorf("Confidence should be untouched, got %v", updated.Confidence)
	}

	if _, err := store.UpdateAnalysis(ctx, db, 999999, store.UpdateAnalysisRequest{PredictedCondition: &condition}); !errors.Is(err, database.ErrAnalysisNotFound) {
		t.Errorf("Expected not found, got: %v", err)
	}
}

func TestRecommendAndActivity(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	recs, err := store.Recommend(ctx, db, "rec@x.io")
	if err != nil {
		t.Fatalf("Recommend without history: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("Expected no recommendations without history, got %d", len(recs))
	}

	a := createProduct(t, db, "A", "10.00", []string{"oily", "acne"}, []string{"Acne", "pores"})
	b := createProduct(t, db, "B", "10.00", []string{"oily"}, []string{"redness"})
	createProduct(t, db, "C", "10.00", []string{"dry"}, []string{"wrinkles"})
	createProduct(t, db, "D", "10.00", nil, nil)

	appendAnalysis(t, db, "rec@x.io", "Oily", "ACNE", 0.9)

	recs, err = store.Recommend(ctx, db, "rec@x.io")
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("Expected 3 recommendations, got %d", len(recs))
	}
	if recs[0].ID != a.ID || recs[1].ID != b.ID {
		t.Errorf("Expected [A, B, ...], got [%s, %s, %s]", recs[0].Name, recs[1].Name, recs[2].Name)
	}

	if _, err := store.CreateConsultation(ctx, db, store.CreateConsultationRequest{
		Name: "Rec", Email: "rec@x.io", Concern: "acne", PreferredDate: "2026-11-02",
	}); err != nil {
		t.Fatalf("Create consultation: %v", err)
	}
	addLine(t, db, "rec@x.io", a.ID, 1)
	if _, err := store.PlaceOrder(ctx, db, store.PlaceOrderRequest{UserEmail: "rec@x.io", Shipping: testShipping()}); err != nil {
		t.Fatalf("Place order: %v", err)
	}

	activity, err := store.UserActivity(ctx, db, "rec@x.io")
	if err != nil {
		t.Fatalf("User activity: %v", err)
	}
	if len(activity) != 3 {
		t.Fatalf("Expected 3 activity entries, got %+v", activity)
	}
	if !strings.HasPrefix(activity[0].Description, "Skin analyzed for ACNE on ") {
		t.Errorf("Unexpected analysis entry %q", activity[0].Description)
	}
	if activity[1].Description != "Consultation booked with a specialist" {
		t.Errorf("Unexpected consultation entry %q", activity[1].Description)
	}
	if activity[2].Description != "Ordered: A" {
		t.Errorf("Unexpected order entry %q", activity[2].Description)
	}
}
