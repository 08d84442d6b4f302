package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
)

// CredentialsRepository reads payment gateway keys stored by operators.
type CredentialsRepository interface {
	GetActiveCredentials(ctx context.Context, provider string) (*models.GatewayCredentials, bool, error)
}

type credentialsRepository struct {
	DB *sql.DB
}

func NewCredentialsRepo(db *sql.DB) CredentialsRepository {
	return &credentialsRepository{DB: db}
}

func (r *credentialsRepository) GetActiveCredentials(ctx context.Context, provider string) (*models.GatewayCredentials, bool, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT secret_key, publishable_key, webhook_secret
		FROM payment_gateway_credentials
		WHERE provider = $1 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`

	creds := &models.GatewayCredentials{Source: "database"}

	err := r.DB.QueryRowContext(dbCtx, query, provider).Scan(&creds.SecretKey, &creds.PublishableKey, &creds.WebhookSecret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to load gateway credentials: %w", err)
	}

	return creds, true, nil
}
