package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/shopspring/decimal"
)

// maxConsultationFee is the largest value consultation_fee NUMERIC(6,2) holds.
var maxConsultationFee = decimal.RequireFromString("9999.99")

const consultationColumns = `id, name, email, phone, concern,
	to_char(preferred_date, 'YYYY-MM-DD'), COALESCE(to_char(preferred_time, 'HH24:MI'), ''),
	additional_info, assigned_consultant,
	COALESCE(to_char(confirmed_date, 'YYYY-MM-DD'), ''), COALESCE(to_char(confirmed_time, 'HH24:MI'), ''),
	meeting_type, meeting_link, consultation_fee, payment_confirmed, status, submitted_at, updated_at`

type CreateConsultationRequest struct {
	Name           string
	Email          string
	Phone          string
	Concern        string
	PreferredDate  string
	PreferredTime  string
	AdditionalInfo string
}

// UpdateConsultationRequest is the admin patch; nil fields are untouched.
// An empty ConfirmedDate or ConfirmedTime clears the value.
type UpdateConsultationRequest struct {
	AssignedConsultant *string
	ConfirmedDate      *string
	ConfirmedTime      *string
	MeetingType        *models.MeetingType
	MeetingLink        *string
	Fee                *decimal.Decimal
	PaymentConfirmed   *bool
	Status             *models.Status
}

func scanConsultation(row rowScanner, c *models.ConsultationRequest) error {
	var fee decimal.NullDecimal
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Concern,
		&c.PreferredDate,
		&c.PreferredTime,
		&c.AdditionalInfo,
		&c.AssignedConsultant,
		&c.ConfirmedDate,
		&c.ConfirmedTime,
		&c.MeetingType,
		&c.MeetingLink,
		&fee,
		&c.PaymentConfirmed,
		&c.Status,
		&c.SubmittedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	c.Fee = nil
	if fee.Valid {
		value := fee.Decimal
		c.Fee = &value
	}
	return nil
}

func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validClock(s string) bool {
	if _, err := time.Parse("15:04", s); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", s)
	return err == nil
}

func CreateConsultation(ctx context.Context, db *sql.DB, req CreateConsultationRequest) (*models.ConsultationRequest, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Concern = strings.TrimSpace(req.Concern)
	req.PreferredDate = strings.TrimSpace(req.PreferredDate)
	req.PreferredTime = strings.TrimSpace(req.PreferredTime)

	switch {
	case req.Name == "":
		return nil, apperr.Validation("name is required.")
	case req.Email == "":
		return nil, apperr.Validation("email is required.")
	case req.Concern == "":
		return nil, apperr.Validation("concern is required.")
	case !validDate(req.PreferredDate):
		return nil, apperr.Validation("preferred_date must be YYYY-MM-DD.")
	case req.PreferredTime != "" && !validClock(req.PreferredTime):
		return nil, apperr.Validation("preferred_time must be HH:MM.")
	}

	c := &models.ConsultationRequest{}

	query := `
		INSERT INTO consultation_requests (name, email, phone, concern, preferred_date, preferred_time,
		                                   additional_info, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::date, NULLIF($6, '')::time, $7, NOW(), NOW())
		RETURNING ` + consultationColumns

	err := scanConsultation(db.QueryRowContext(ctx, query,
		req.Name, req.Email, strings.TrimSpace(req.Phone), req.Concern,
		req.PreferredDate, req.PreferredTime, strings.TrimSpace(req.AdditionalInfo),
	), c)
	if err != nil {
		return nil, fmt.Errorf("create consultation: %w", err)
	}

	return c, nil
}

func GetConsultation(ctx context.Context, db *sql.DB, id int64) (*models.ConsultationRequest, error) {
	return getConsultation(ctx, db, id, "")
}

func getConsultation(ctx context.Context, q rowQueryer, id int64, lock string) (*models.ConsultationRequest, error) {
	c := &models.ConsultationRequest{}

	query := `SELECT ` + consultationColumns + ` FROM consultation_requests WHERE id = $1 ` + lock

	if err := scanConsultation(q.QueryRowContext(ctx, query, id), c); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("get consultation: %w", err)
	}

	return c, nil
}

// GetConsultationForEmail returns the consultation only when it belongs to email.
func GetConsultationForEmail(ctx context.Context, db *sql.DB, id int64, email string) (*models.ConsultationRequest, error) {
	c, err := GetConsultation(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(c.Email, strings.TrimSpace(email)) {
		return nil, database.ErrConsultationNotFound
	}
	return c, nil
}

// ListConsultations returns the requests booked by email, newest first.
func ListConsultations(ctx context.Context, db *sql.DB, email string) ([]models.ConsultationRequest, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+consultationColumns+`
		FROM consultation_requests
		WHERE email = $1
		ORDER BY submitted_at DESC, id DESC`, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	consultations := []models.ConsultationRequest{}
	for rows.Next() {
		var c models.ConsultationRequest
		if err := scanConsultation(rows, &c); err != nil {
			return nil, fmt.Errorf("scan consultation: %w", err)
		}
		consultations = append(consultations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return consultations, nil
}

func UpdateConsultation(ctx context.Context, db *sql.DB, id int64, req UpdateConsultationRequest) (*models.ConsultationRequest, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("Invalid status %q.", *req.Status))
	}
	if req.Fee != nil && req.Fee.IsNegative() {
		return nil, apperr.Validation("consultation_fee cannot be negative.")
	}
	if req.Fee != nil && req.Fee.Round(2).GreaterThan(maxConsultationFee) {
		return nil, apperr.Validation("consultation_fee cannot exceed 9999.99.")
	}
	if req.ConfirmedDate != nil && *req.ConfirmedDate != "" && !validDate(*req.ConfirmedDate) {
		return nil, apperr.Validation("confirmed_date must be YYYY-MM-DD.")
	}
	if req.ConfirmedTime != nil && *req.ConfirmedTime != "" && !validClock(*req.ConfirmedTime) {
		return nil, apperr.Validation("confirmed_time must be HH:MM.")
	}

	var updated *models.ConsultationRequest

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := getConsultation(ctx, tx, id, "FOR UPDATE")
		if err != nil {
			return err
		}

		next := *current
		if req.Status != nil {
			if !models.CanTransition(current.Status, *req.Status) {
				return apperr.Conflict(fmt.Sprintf("Cannot move consultation from %s to %s.", current.Status, *req.Status))
			}
			next.Status = *req.Status
		}
		if req.AssignedConsultant != nil {
			next.AssignedConsultant = strings.TrimSpace(*req.AssignedConsultant)
		}
		if req.ConfirmedDate != nil {
			next.ConfirmedDate = strings.TrimSpace(*req.ConfirmedDate)
		}
		if req.ConfirmedTime != nil {
			next.ConfirmedTime = strings.TrimSpace(*req.ConfirmedTime)
		}
		if req.MeetingType != nil {
			next.MeetingType = *req.MeetingType
		}
		if req.MeetingLink != nil {
			next.MeetingLink = strings.TrimSpace(*req.MeetingLink)
		}
		if req.Fee != nil {
			fee := req.Fee.Round(2)
			next.Fee = &fee
		}
		if req.PaymentConfirmed != nil {
			next.PaymentConfirmed = *req.PaymentConfirmed
		}

		fee := decimal.NullDecimal{}
		if next.Fee != nil {
			fee = decimal.NewNullDecimal(*next.Fee)
		}

		updated = &models.ConsultationRequest{}
		return scanConsultation(tx.QueryRowContext(ctx, `
			UPDATE consultation_requests
			SET assigned_consultant = $1,
			    confirmed_date = NULLIF($2, '')::date,
			    confirmed_time = NULLIF($3, '')::time,
			    meeting_type = $4,
			    meeting_link = $5,
			    consultation_fee = $6,
			    payment_confirmed = $7,
			    status = $8,
			    updated_at = NOW()
			WHERE id = $9
			RETURNING `+consultationColumns,
			next.AssignedConsultant, next.ConfirmedDate, next.ConfirmedTime,
			next.MeetingType, next.MeetingLink, fee, next.PaymentConfirmed, next.Status, id,
		), updated)
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ConfirmConsultationPayment flags the consultation as paid.
func ConfirmConsultationPayment(ctx context.Context, db *sql.DB, id int64) (*models.ConsultationRequest, error) {
	c := &models.ConsultationRequest{}

	err := scanConsultation(db.QueryRowContext(ctx, `
		UPDATE consultation_requests
		SET payment_confirmed = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+consultationColumns, id), c)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrConsultationNotFound
		}
		return nil, fmt.Errorf("confirm consultation payment: %w", err)
	}

	return c, nil
}

// DeleteConsultation removes a request that is still pending and unpaid.
func DeleteConsultation(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := getConsultation(ctx, tx, id, "FOR UPDATE")
		if err != nil {
			return err
		}
		if !models.ConsultationDeletable(*current) {
			return database.ErrConsultationLocked
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM consultation_requests WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete consultation: %w", err)
		}
		return nil
	})
}
