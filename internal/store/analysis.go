package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/models"
)

const analysisColumns = `id, user_email, skin_type, skin_concern, predicted_condition, confidence, image_data, created_at`

type AppendAnalysisRequest struct {
	UserEmail          string
	SkinType           string
	SkinConcern        string
	PredictedCondition string
	Confidence         *float64
	ImageData          string
}

// UpdateAnalysisRequest is the admin override; nil fields are untouched.
type UpdateAnalysisRequest struct {
	SkinType           *string
	SkinConcern        *string
	PredictedCondition *string
	Confidence         *float64
}

func scanAnalysis(row rowScanner, a *models.AnalysisHistory) error {
	var confidence sql.NullFloat64
	err := row.Scan(
		&a.ID,
		&a.UserEmail,
		&a.SkinType,
		&a.SkinConcern,
		&a.PredictedCondition,
		&confidence,
		&a.ImageData,
		&a.CreatedAt,
	)
	if err != nil {
		return err
	}
	a.Confidence = nil
	if confidence.Valid {
		value := confidence.Float64
		a.Confidence = &value
	}
	return nil
}

func validConfidence(c *float64) bool {
	return c == nil || (*c >= 0 && *c <= 1 && !math.IsNaN(*c))
}

// AppendAnalysis records one prediction event.
func AppendAnalysis(ctx context.Context, db *sql.DB, req AppendAnalysisRequest) (*models.AnalysisHistory, error) {
	email := strings.TrimSpace(req.UserEmail)
	if email == "" {
		return nil, database.ErrUserEmailRequired
	}
	if !validConfidence(req.Confidence) {
		return nil, apperr.Validation("confidence must be between 0 and 1.")
	}

	a := &models.AnalysisHistory{}

	query := `
		INSERT INTO analysis_history (user_email, skin_type, skin_concern, predicted_condition, confidence,
		                              image_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING ` + analysisColumns

	var confidence sql.NullFloat64
	if req.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *req.Confidence, Valid: true}
	}

	err := scanAnalysis(db.QueryRowContext(ctx, query,
		email,
		strings.TrimSpace(req.SkinType),
		strings.TrimSpace(req.SkinConcern),
		strings.TrimSpace(req.PredictedCondition),
		confidence,
		req.ImageData,
	), a)
	if err != nil {
		return nil, fmt.Errorf("append analysis: %w", err)
	}

	return a, nil
}

// LatestAnalysis returns the user's most recent prediction, or nil when the
// user has none.
func LatestAnalysis(ctx context.Context, db *sql.DB, userEmail string) (*models.AnalysisHistory, error) {
	a := &models.AnalysisHistory{}

	query := `
		SELECT ` + analysisColumns + `
		FROM analysis_history
		WHERE user_email = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	if err := scanAnalysis(db.QueryRowContext(ctx, query, strings.TrimSpace(userEmail)), a); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest analysis: %w", err)
	}

	return a, nil
}

// ListAnalysis returns the user's log newest first.
func ListAnalysis(ctx context.Context, db *sql.DB, userEmail string) ([]models.AnalysisHistory, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+analysisColumns+`
		FROM analysis_history
		WHERE user_email = $1
		ORDER BY created_at DESC, id DESC`, strings.TrimSpace(userEmail))
	if err != nil {
		return nil, fmt.Errorf("list analysis: %w", err)
	}
	defer rows.Close()

	history := []models.AnalysisHistory{}
	for rows.Next() {
		var a models.AnalysisHistory
		if err := scanAnalysis(rows, &a); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		history = append(history, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return history, nil
}

func UpdateAnalysis(ctx context.Context, db *sql.DB, id int64, req UpdateAnalysisRequest) (*models.AnalysisHistory, error) {
	if !validConfidence(req.Confidence) {
		return nil, apperr.Validation("confidence must be between 0 and 1.")
	}

	var confidence sql.NullFloat64
	if req.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *req.Confidence, Valid: true}
	}

	a := &models.AnalysisHistory{}
	err := scanAnalysis(db.QueryRowContext(ctx, `
		UPDATE analysis_history
		SET skin_type = COALESCE($1, skin_type),
		    skin_concern = COALESCE($2, skin_concern),
		    predicted_condition = COALESCE($3, predicted_condition),
		    confidence = CASE WHEN $4::boolean THEN $5 ELSE confidence END
		WHERE id = $6
		RETURNING `+analysisColumns,
		trimmedOrNull(req.SkinType),
		trimmedOrNull(req.SkinConcern),
		trimmedOrNull(req.PredictedCondition),
		req.Confidence != nil, confidence, id,
	), a)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("update analysis: %w", err)
	}

	return a, nil
}

func trimmedOrNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*s), Valid: true}
}

// SummarizeAnalysis builds the profile summary from a newest-first log.
// The most frequent condition wins; ties go to the most recent one. The
// score rounds half to even.
func SummarizeAnalysis(history []models.AnalysisHistory) models.AnalysisSummary {
	if len(history) == 0 {
		return models.AnalysisSummary{}
	}

	latest := history[0]
	lastAnalysis := latest.CreatedAt.Format("2006-01-02")

	counts := make(map[string]int)
	var order []string
	for _, h := range history {
		if _, seen := counts[h.PredictedCondition]; !seen {
			order = append(order, h.PredictedCondition)
		}
		counts[h.PredictedCondition]++
	}

	commonIssue := order[0]
	for _, condition := range order[1:] {
		if counts[condition] > counts[commonIssue] {
			commonIssue = condition
		}
	}

	summary := models.AnalysisSummary{
		LastAnalysis: &lastAnalysis,
		CommonIssue:  &commonIssue,
	}
	if latest.Confidence != nil {
		score := int(math.RoundToEven(*latest.Confidence * 100))
		summary.SkinScore = &score
	}

	return summary
}

// AnalysisSummary reads the user's log and summarizes it.
func AnalysisSummary(ctx context.Context, db *sql.DB, userEmail string) (models.AnalysisSummary, error) {
	history, err := ListAnalysis(ctx, db, userEmail)
	if err != nil {
		return models.AnalysisSummary{}, err
	}
	return SummarizeAnalysis(history), nil
}
