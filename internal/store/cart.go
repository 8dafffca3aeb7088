package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/models"
)

const cartLineColumns = `id, user_email, product_id, quantity, product_name, product_image, product_price,
	consumed, order_id, created_at, updated_at`

type AddLineRequest struct {
	UserEmail string
	ProductID int64
	Quantity  int
}

func scanCartLine(row rowScanner, line *models.CartLine) error {
	var orderID sql.NullInt64
	err := row.Scan(
		&line.ID,
		&line.UserEmail,
		&line.ProductID,
		&line.Quantity,
		&line.ProductName,
		&line.ProductImage,
		&line.ProductPrice,
		&line.Consumed,
		&orderID,
		&line.CreatedAt,
		&line.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if orderID.Valid {
		id := orderID.Int64
		line.OrderID = &id
	}
	return nil
}

// AddLine adds quantity of a product to the user's active cart. An existing
// unconsumed line for the same product is incremented in place; created
// reports whether a new line was inserted. The snapshot columns are taken
// from the catalog only when the line is created.
func AddLine(ctx context.Context, db *sql.DB, req AddLineRequest) (line *models.CartLine, created bool, err error) {
	email := strings.TrimSpace(req.UserEmail)
	if email == "" {
		return nil, false, database.ErrUserEmailRequired
	}
	if req.ProductID <= 0 {
		return nil, false, database.ErrProductRequired
	}
	if req.Quantity <= 0 {
		return nil, false, database.ErrInvalidQuantity
	}

	// The partial unique index turns concurrent adds for the same product into
	// a single atomic increment.
	query := `
		INSERT INTO cart_lines (user_email, product_id, quantity, product_name, product_image, product_price,
		                        consumed, created_at, updated_at)
		SELECT $1::varchar, p.id, $3::integer, p.name, p.image, p.price, FALSE, NOW(), NOW()
		FROM products p
		WHERE p.id = $2
		ON CONFLICT (user_email, product_id) WHERE NOT consumed
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity,
		              updated_at = NOW()
		RETURNING ` + cartLineColumns + `, (xmax = 0) AS inserted`

	line = &models.CartLine{}
	row := db.QueryRowContext(ctx, query, email, req.ProductID, req.Quantity)
	err = scanCartLine(trailingFlag{row: row, flag: &created}, line)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, false, database.ErrUnknownProduct
		}
		return nil, false, fmt.Errorf("add cart line: %w", err)
	}

	return line, created, nil
}

// ListActive returns the user's unconsumed lines, oldest first.
func ListActive(ctx context.Context, db *sql.DB, userEmail string) ([]models.CartLine, error) {
	email := strings.TrimSpace(userEmail)
	if email == "" {
		return []models.CartLine{}, nil
	}

	query := `
		SELECT ` + cartLineColumns + `
		FROM cart_lines
		WHERE user_email = $1 AND NOT consumed
		ORDER BY id`

	return queryCartLines(ctx, db, query, email)
}

func GetCartLine(ctx context.Context, db *sql.DB, id int64) (*models.CartLine, error) {
	line := &models.CartLine{}

	query := `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE id = $1`

	if err := scanCartLine(db.QueryRowContext(ctx, query, id), line); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrCartLineNotFound
		}
		return nil, fmt.Errorf("get cart line: %w", err)
	}

	return line, nil
}

// UpdateLine sets the quantity of an unconsumed line.
func UpdateLine(ctx context.Context, db *sql.DB, id int64, quantity int) (*models.CartLine, error) {
	if quantity <= 0 {
		return nil, database.ErrInvalidQuantity
	}

	line := &models.CartLine{}

	query := `
		UPDATE cart_lines
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2 AND NOT consumed
		RETURNING ` + cartLineColumns

	err := scanCartLine(db.QueryRowContext(ctx, query, quantity, id), line)
	if err == nil {
		return line, nil
	}
	if !database.IsNoRows(err) {
		return nil, fmt.Errorf("update cart line: %w", err)
	}

	return nil, missingOrConsumed(ctx, db, id, database.ErrCartLineConsumed)
}

// DeleteLine removes an unconsumed line. Lines already folded into an order
// are kept for the order's record.
func DeleteLine(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE id = $1 AND NOT consumed`, id)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return missingOrConsumed(ctx, db, id, database.ErrCartLineDeleteLocked)
	}

	return nil
}

// missingOrConsumed explains why a conditional write on a cart line matched
// no rows: either the line is gone, or it has been consumed.
func missingOrConsumed(ctx context.Context, db *sql.DB, id int64, consumedErr error) error {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM cart_lines WHERE id = $1)",
		id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check cart line exists: %w", err)
	}
	if !exists {
		return database.ErrCartLineNotFound
	}
	return consumedErr
}

// trailingFlag scans one extra boolean column after the caller's targets.
type trailingFlag struct {
	row  rowScanner
	flag *bool
}

func (t trailingFlag) Scan(dest ...any) error {
	return t.row.Scan(append(dest, t.flag)...)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryCartLines(ctx context.Context, q queryer, query string, args ...any) ([]models.CartLine, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		if err := scanCartLine(rows, &line); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}
