package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/aurora-commerce/internal/models"
	"github.com/safar/aurora-commerce/internal/recommend"
)

// Recommend ranks the catalog against the user's latest analysis. Users
// without any analysis get an empty list.
func Recommend(ctx context.Context, db *sql.DB, userEmail string) ([]models.Product, error) {
	latest, err := LatestAnalysis(ctx, db, userEmail)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return []models.Product{}, nil
	}

	catalog, err := ListCatalog(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return recommend.Rank(catalog, latest, recommend.DefaultLimit), nil
}

// UserActivity lists the user's latest analysis, consultation and order.
func UserActivity(ctx context.Context, db *sql.DB, userEmail string) ([]models.Activity, error) {
	activity := []models.Activity{}

	latest, err := LatestAnalysis(ctx, db, userEmail)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		activity = append(activity, models.Activity{
			Description: fmt.Sprintf("Skin analyzed for %s on %s",
				latest.PredictedCondition, latest.CreatedAt.Format("Jan 02")),
		})
	}

	var consultant string
	err = db.QueryRowContext(ctx, `
		SELECT assigned_consultant
		FROM consultation_requests
		WHERE email = $1
		ORDER BY submitted_at DESC, id DESC
		LIMIT 1`, userEmail).Scan(&consultant)
	switch {
	case err == nil:
		if consultant == "" {
			consultant = "a specialist"
		}
		activity = append(activity, models.Activity{
			Description: "Consultation booked with " + consultant,
		})
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("latest consultation: %w", err)
	}

	var productName string
	err = db.QueryRowContext(ctx, `
		SELECT cl.product_name
		FROM orders o
		JOIN cart_lines cl ON cl.order_id = o.id
		WHERE o.user_email = $1
		  AND o.id = (SELECT id FROM orders WHERE user_email = $1 ORDER BY created_at DESC, id DESC LIMIT 1)
		ORDER BY cl.id
		LIMIT 1`, userEmail).Scan(&productName)
	switch {
	case err == nil:
		activity = append(activity, models.Activity{Description: "Ordered: " + productName})
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("latest order: %w", err)
	}

	return activity, nil
}
