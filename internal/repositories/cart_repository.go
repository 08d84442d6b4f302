package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
)

var ErrCartLineNotFound = errors.New("cart line not found")

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, principal models.Principal) (*models.Cart, error)
	UpsertLine(ctx context.Context, cartID uuid.UUID, productID int64, quantity int, replace bool) (int, error)
	UpdateLineQuantity(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) error
	RemoveLine(ctx context.Context, cartID uuid.UUID, productID int64) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

// GetOrCreateCart returns the principal's cart with its lines priced from the
// live catalog. Concurrent first requests converge on the same row.
func (r *cartRepository) GetOrCreateCart(ctx context.Context, principal models.Principal) (*models.Cart, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	cart := &models.Cart{}

	if principal.UserID != nil {
		cart.UserID = uuid.NullUUID{UUID: *principal.UserID, Valid: true}
	} else if principal.SessionKey != "" {
		cart.SessionKey = sql.NullString{String: principal.SessionKey, Valid: true}
	} else {
		return nil, errors.New("cart principal has neither user nor session")
	}

	insertQuery := `
		INSERT INTO carts (id, user_id, session_key, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT DO NOTHING
	`

	if _, err := r.DB.ExecContext(dbCtx, insertQuery, uuid.New(), cart.UserID, cart.SessionKey); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	var (
		selectQuery string
		owner       any
	)

	if cart.UserID.Valid {
		selectQuery = `SELECT id, created_at, updated_at FROM carts WHERE user_id = $1`
		owner = cart.UserID.UUID
	} else {
		selectQuery = `SELECT id, created_at, updated_at FROM carts WHERE session_key = $1`
		owner = cart.SessionKey.String
	}

	if err := r.DB.QueryRowContext(dbCtx, selectQuery, owner).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("querying database: %w", err)
	}

	linesQuery := `
		SELECT cl.product_id, p.name, p.price, cl.quantity
		FROM cart_lines cl
		JOIN products p ON p.id = cl.product_id
		WHERE cl.cart_id = $1
		ORDER BY cl.id
	`

	rows, err := r.DB.QueryContext(dbCtx, linesQuery, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}

	defer rows.Close()

	cart.Lines = []models.CartLine{}

	for rows.Next() {
		var line models.CartLine

		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}

		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}

	return cart, nil
}

// UpsertLine sets or increments the line quantity and returns the stored quantity.
func (r *cartRepository) UpsertLine(ctx context.Context, cartID uuid.UUID, productID int64, quantity int, replace bool) (int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_lines (cart_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (cart_id, product_id) DO UPDATE
		SET quantity = CASE WHEN $4::boolean THEN EXCLUDED.quantity ELSE cart_lines.quantity + EXCLUDED.quantity END,
		    updated_at = NOW()
		RETURNING quantity
	`

	var stored int

	if err := r.DB.QueryRowContext(dbCtx, query, cartID, productID, quantity, replace).Scan(&stored); err != nil {
		return 0, fmt.Errorf("failed to upsert cart line: %w", err)
	}

	return stored, nil
}

func (r *cartRepository) UpdateLineQuantity(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE cart_lines
		SET quantity = $1, updated_at = NOW()
		WHERE cart_id = $2 AND product_id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, quantity, cartID, productID)
	if err != nil {
		return fmt.Errorf("failed to update the cart line: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return ErrCartLineNotFound
	}

	return nil
}

func (r *cartRepository) RemoveLine(ctx context.Context, cartID uuid.UUID, productID int64) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`

	if _, err := r.DB.ExecContext(dbCtx, query, cartID, productID); err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	return nil
}

func (r *cartRepository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_lines WHERE cart_id = $1`

	if _, err := r.DB.ExecContext(dbCtx, query, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
