package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/safar/aurora-commerce/internal/apperr"
	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/models"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, user_email,
	shipping_first_name, shipping_last_name, shipping_email, shipping_address,
	shipping_city, shipping_state, shipping_zip, shipping_country,
	total, payment_status, status, COALESCE(checkout_session_id, ''), created_at, updated_at, version`

type PlaceOrderRequest struct {
	UserEmail string
	Shipping  models.ShippingInfo
	// PaymentStatus defaults to paid. awaiting_payment requires
	// CheckoutSessionID so the provider webhook can find the order.
	PaymentStatus     models.PaymentStatus
	CheckoutSessionID string
}

// ShippingPatch carries the shipping fields an admin may overwrite; nil
// fields are left untouched.
type ShippingPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Address   *string
	City      *string
	State     *string
	Zip       *string
	Country   *string
}

func (p *ShippingPatch) apply(s *models.ShippingInfo) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&s.FirstName, p.FirstName)
	set(&s.LastName, p.LastName)
	set(&s.Email, p.Email)
	set(&s.Address, p.Address)
	set(&s.City, p.City)
	set(&s.State, p.State)
	set(&s.Zip, p.Zip)
	set(&s.Country, p.Country)
}

type UpdateOrderRequest struct {
	Status        *models.Status
	PaymentStatus *models.PaymentStatus
	Shipping      *ShippingPatch
}

func generateOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString())
}

func scanOrder(row rowScanner, order *models.Order) error {
	return row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserEmail,
		&order.FirstName,
		&order.LastName,
		&order.ShippingInfo.Email,
		&order.Address,
		&order.City,
		&order.State,
		&order.Zip,
		&order.Country,
		&order.Total,
		&order.PaymentStatus,
		&order.Status,
		&order.CheckoutSessionID,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
}

func validateShipping(s models.ShippingInfo) error {
	switch {
	case s.Address == "":
		return apperr.Validation("shipping_address is required.")
	case s.City == "":
		return apperr.Validation("shipping_city is required.")
	case s.Country == "":
		return apperr.Validation("shipping_country is required.")
	}
	return nil
}

func trimShipping(s models.ShippingInfo) models.ShippingInfo {
	return models.ShippingInfo{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.TrimSpace(s.Email),
		Address:   strings.TrimSpace(s.Address),
		City:      strings.TrimSpace(s.City),
		State:     strings.TrimSpace(s.State),
		Zip:       strings.TrimSpace(s.Zip),
		Country:   strings.TrimSpace(s.Country),
	}
}

// OrderTotal sums snapshot price times quantity over lines.
func OrderTotal(lines []models.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// PlaceOrder turns the user's active cart into one order. Reading the lines,
// inserting the order and consuming the lines share a transaction; the
// consuming UPDATE only claims rows that are still unconsumed, so of two
// concurrent checkouts exactly one gets the lines and the other fails with
// ErrEmptyCart.
func PlaceOrder(ctx context.Context, db *sql.DB, req PlaceOrderRequest) (*models.Order, error) {
	email := strings.TrimSpace(req.UserEmail)
	if email == "" {
		return nil, database.ErrUserEmailRequired
	}

	shipping := trimShipping(req.Shipping)
	if err := validateShipping(shipping); err != nil {
		return nil, err
	}

	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = models.PaymentPaid
	}
	sessionID := strings.TrimSpace(req.CheckoutSessionID)
	if paymentStatus == models.PaymentAwaitingPayment && sessionID == "" {
		return nil, database.ErrSessionRequired
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		lines, err := queryCartLines(ctx, tx, `
			SELECT `+cartLineColumns+`
			FROM cart_lines
			WHERE user_email = $1 AND NOT consumed
			ORDER BY id
			FOR UPDATE`, email)
		if err != nil {
			return fmt.Errorf("lock cart lines: %w", err)
		}
		if len(lines) == 0 {
			return database.ErrEmptyCart
		}

		total := OrderTotal(lines)

		order = &models.Order{}
		err = scanOrder(tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, user_email,
			                     shipping_first_name, shipping_last_name, shipping_email, shipping_address,
			                     shipping_city, shipping_state, shipping_zip, shipping_country,
			                     total, payment_status, status, checkout_session_id, created_at, updated_at, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), NOW(), NOW(), 1)
			 RETURNING `+orderColumns,
			generateOrderNumber(), email,
			shipping.FirstName, shipping.LastName, shipping.Email, shipping.Address,
			shipping.City, shipping.State, shipping.Zip, shipping.Country,
			total, paymentStatus, models.StatusPending, sessionID,
		), order)
		if err != nil {
			if database.IsUniqueViolation(err, "idx_orders_checkout_session") {
				return database.ErrSessionUsed
			}
			return fmt.Errorf("create order: %w", err)
		}

		ids := make([]int64, len(lines))
		for i, line := range lines {
			ids[i] = line.ID
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE cart_lines
			 SET consumed = TRUE,
			     order_id = $1,
			     updated_at = NOW()
			 WHERE id = ANY($2)
			   AND NOT consumed`,
			order.ID, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("consume cart lines: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if rowsAffected != int64(len(lines)) {
			return database.ErrEmptyCart
		}

		for i := range lines {
			lines[i].Consumed = true
			lines[i].OrderID = &order.ID
		}
		order.Items = lines

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	return getOrder(ctx, db, id, "")
}

type rowQueryer interface {
	queryer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getOrder(ctx context.Context, q rowQueryer, id int64, lock string) (*models.Order, error) {
	order := &models.Order{}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 ` + lock

	if err := scanOrder(q.QueryRowContext(ctx, query, id), order); err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := queryCartLines(ctx, q, `
		SELECT `+cartLineColumns+`
		FROM cart_lines
		WHERE order_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	order.Items = items

	return order, nil
}

// ListOrders pages through a user's orders newest first.
func ListOrders(ctx context.Context, db *sql.DB, userEmail, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, apperr.Validation("Invalid cursor.")
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_email = $1
		  AND (created_at, id) < ($2, $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, strings.TrimSpace(userEmail), cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	if err := attachItems(ctx, db, orders); err != nil {
		return nil, err
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func attachItems(ctx context.Context, db *sql.DB, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []models.CartLine{}
	}

	lines, err := queryCartLines(ctx, db, `
		SELECT `+cartLineColumns+`
		FROM cart_lines
		WHERE order_id = ANY($1)
		ORDER BY id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}

	for _, line := range lines {
		if line.OrderID == nil {
			continue
		}
		if i, ok := index[*line.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, line)
		}
	}

	return nil
}

// UpdateOrder applies an admin patch. Status and payment moves are checked
// against their transition tables under a row lock; shipping may only change
// while the order is still pending.
func UpdateOrder(ctx context.Context, db *sql.DB, id int64, req UpdateOrderRequest) (*models.Order, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("Invalid status %q.", *req.Status))
	}

	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		current, err := getOrder(ctx, tx, id, "FOR UPDATE")
		if err != nil {
			return err
		}

		next := *current
		if req.Status != nil {
			if !models.CanTransition(current.Status, *req.Status) {
				return apperr.Conflict(fmt.Sprintf("Cannot move order from %s to %s.", current.Status, *req.Status))
			}
			next.Status = *req.Status
		}
		if req.PaymentStatus != nil {
			if !models.CanTransitionPayment(current.PaymentStatus, *req.PaymentStatus) {
				return apperr.Conflict(fmt.Sprintf("Cannot move payment from %s to %s.", current.PaymentStatus, *req.PaymentStatus))
			}
			if *req.PaymentStatus == models.PaymentAwaitingPayment && current.CheckoutSessionID == "" {
				return database.ErrSessionRequired
			}
			next.PaymentStatus = *req.PaymentStatus
		}
		if req.Shipping != nil {
			if current.Status != models.StatusPending {
				return database.ErrShippingLocked
			}
			req.Shipping.apply(&next.ShippingInfo)
			if err := validateShipping(next.ShippingInfo); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE orders
			 SET status = $1, payment_status = $2,
			     shipping_first_name = $3, shipping_last_name = $4, shipping_email = $5,
			     shipping_address = $6, shipping_city = $7, shipping_state = $8,
			     shipping_zip = $9, shipping_country = $10,
			     version = version + 1, updated_at = NOW()
			 WHERE id = $11 AND version = $12`,
			next.Status, next.PaymentStatus,
			next.FirstName, next.LastName, next.ShippingInfo.Email,
			next.Address, next.City, next.State,
			next.Zip, next.Country,
			id, current.Version)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrOptimisticLockFailed
		}

		order, err = getOrder(ctx, tx, id, "")
		return err
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// DeleteOrder removes an order that is still pending.
func DeleteOrder(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1 AND status = $2`,
		id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		return nil
	}

	var status models.Status
	err = db.QueryRowContext(ctx,
		"SELECT status FROM orders WHERE id = $1",
		id).Scan(&status)
	if err != nil {
		if database.IsNoRows(err) {
			return database.ErrOrderNotFound
		}
		return fmt.Errorf("check order status: %w", err)
	}
	if !models.OrderDeletable(status) {
		return database.ErrOrderNotPending
	}
	return database.ErrOptimisticLockFailed
}

// MarkOrderPaid records the provider's confirmation for the order created
// with the given checkout session. Repeated deliveries are harmless.
func MarkOrderPaid(ctx context.Context, db *sql.DB, sessionID string) (*models.Order, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`UPDATE orders
		 SET payment_status = $1, version = version + 1, updated_at = NOW()
		 WHERE checkout_session_id = $2 AND payment_status <> $1
		 RETURNING id`,
		models.PaymentPaid, sessionID).Scan(&id)
	if err == nil {
		return GetOrder(ctx, db, id)
	}
	if !database.IsNoRows(err) {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	err = db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE checkout_session_id = $1`, sessionID).Scan(&id)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order by session: %w", err)
	}
	return GetOrder(ctx, db, id)
}
