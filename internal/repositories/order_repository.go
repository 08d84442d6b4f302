package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrOrderNotFound = errors.New("order not found")

const orderNumberConstraint = "orders_order_number_key"

// LineInsertError reports which order line could not be written.
type LineInsertError struct {
	ProductID int64
	Err       error
}

func (e *LineInsertError) Error() string {
	return fmt.Sprintf("failed to insert order line for product %d: %v", e.ProductID, e.Err)
}

func (e *LineInsertError) Unwrap() error {
	return e.Err
}

type OrderRepository interface {
	PlaceOrder(ctx context.Context, order *models.Order, cartID uuid.UUID) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, bool, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error
	// UpdatePaymentAndOrderStatus changes both statuses in one statement.
	UpdatePaymentAndOrderStatus(ctx context.Context, id int64, payment models.PaymentStatus, order models.OrderStatus) error
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, order_number, user_id, session_key, full_name, email, phone, address_line1, address_line2,
		city, state, postal_code, country, status, payment_status, payment_intent_id, total_price, grand_total,
		currency, created_at, updated_at`

// PlaceOrder writes the order and its lines and empties the cart in one
// transaction. Nothing is persisted unless every step succeeds.
func (r *orderRepository) PlaceOrder(ctx context.Context, order *models.Order, cartID uuid.UUID) error {

	if order.OrderNumber == "" {
		order.OrderNumber = models.NewOrderNumber(time.Now())
	}

	err := r.placeOrder(ctx, order, cartID)

	if isOrderNumberConflict(err) {
		order.OrderNumber = models.NewOrderNumber(time.Now())
		err = r.placeOrder(ctx, order, cartID)
	}

	return err
}

func (r *orderRepository) placeOrder(ctx context.Context, order *models.Order, cartID uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (order_number, user_id, session_key, full_name, email, phone, address_line1, address_line2,
			city, state, postal_code, country, status, payment_status, payment_intent_id, total_price, grand_total,
			currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowContext(dbCtx, query,
		order.OrderNumber, order.UserID, order.SessionKey, order.FullName, order.Email, order.Phone,
		order.AddressLine1, order.AddressLine2, order.City, order.State, order.PostalCode, order.Country,
		order.Status, order.PaymentStatus, order.PaymentIntentID, order.TotalPrice, order.GrandTotal, order.Currency,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for i := range order.Lines {
		line := &order.Lines[i]

		if err := tx.QueryRowContext(dbCtx, lineQuery, order.ID, line.ProductID, line.Quantity, line.Price).Scan(&line.ID); err != nil {
			return &LineInsertError{ProductID: line.ProductID, Err: err}
		}

		line.OrderID = order.ID
	}

	if _, err := tx.ExecContext(dbCtx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func isOrderNumberConflict(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == orderNumberConstraint
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	if err := r.loadLines(dbCtx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// FindByPaymentIntent reports found=false rather than an error when no order references the intent.
func (r *orderRepository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.Order, bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE payment_intent_id = $1 ORDER BY id DESC LIMIT 1`

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, paymentIntentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to find order by payment intent: %w", err)
	}

	return order, true, nil
}

func (r *orderRepository) loadLines(ctx context.Context, order *models.Order) error {

	query := `
		SELECT id, product_id, quantity, price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.DB.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to get the order lines: %w", err)
	}

	defer rows.Close()

	order.Lines = []models.OrderLine{}

	for rows.Next() {
		line := models.OrderLine{OrderID: order.ID}

		if err := rows.Scan(&line.ID, &line.ProductID, &line.Quantity, &line.Price); err != nil {
			return fmt.Errorf("failed to scan order line: %w", err)
		}

		order.Lines = append(order.Lines, line)
	}

	return rows.Err()
}

func scanOrder(row *sql.Row) (*models.Order, error) {

	order := &models.Order{}

	err := row.Scan(&order.ID, &order.OrderNumber, &order.UserID, &order.SessionKey, &order.FullName, &order.Email,
		&order.Phone, &order.AddressLine1, &order.AddressLine2, &order.City, &order.State, &order.PostalCode,
		&order.Country, &order.Status, &order.PaymentStatus, &order.PaymentIntentID, &order.TotalPrice,
		&order.GrandTotal, &order.Currency, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE orders SET payment_status = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, status, id)

	return checkUpdated(result, err)
}

func (r *orderRepository) UpdatePaymentAndOrderStatus(ctx context.Context, id int64, payment models.PaymentStatus, order models.OrderStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE orders SET payment_status = $1, status = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.DB.ExecContext(dbCtx, query, payment, order, id)

	return checkUpdated(result, err)
}

func checkUpdated(result sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("failed to update the order: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return ErrOrderNotFound
	}

	return nil
}
