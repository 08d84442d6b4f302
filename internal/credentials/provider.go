// Package credentials resolves payment gateway keys from an ordered list of backends.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	stripeclient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
)

const ProviderStripe = "stripe"

var ErrCredentialsNotFound = errors.New("payment gateway credentials not found")

type Provider interface {
	Resolve(ctx context.Context) (*models.GatewayCredentials, error)
}

// Backend is a single credential source. found=false lets the chain move on.
type Backend interface {
	Name() string
	Lookup(ctx context.Context) (*models.GatewayCredentials, bool, error)
}

type Chain struct {
	backends []Backend
}

func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

// Resolve returns the first usable credentials. A failing backend is logged and
// skipped so an unreachable keystore still falls back to static keys.
func (c *Chain) Resolve(ctx context.Context) (*models.GatewayCredentials, error) {
	var lastErr error

	for _, backend := range c.backends {
		creds, found, err := backend.Lookup(ctx)
		if err != nil {
			middleware.LoggerFromContext(ctx).Warn("Credential backend failed", slog.String("backend", backend.Name()), slog.String("error", err.Error()))
			lastErr = err

			continue
		}

		if found && creds.SecretKey != "" {
			return creds, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentialsNotFound, lastErr)
	}

	return nil, ErrCredentialsNotFound
}

// StripeKeys adapts the chain to the gateway client's key source.
func (c *Chain) StripeKeys(ctx context.Context) (stripeclient.Keys, error) {
	creds, err := c.Resolve(ctx)
	if err != nil {
		return stripeclient.Keys{}, err
	}

	return stripeclient.Keys{SecretKey: creds.SecretKey, WebhookSecret: creds.WebhookSecret}, nil
}

type DatabaseBackend struct {
	repo     repository.CredentialsRepository
	provider string
}

func NewDatabaseBackend(repo repository.CredentialsRepository) *DatabaseBackend {
	return &DatabaseBackend{repo: repo, provider: ProviderStripe}
}

func (b *DatabaseBackend) Name() string {
	return "database"
}

func (b *DatabaseBackend) Lookup(ctx context.Context) (*models.GatewayCredentials, bool, error) {
	return b.repo.GetActiveCredentials(ctx, b.provider)
}

// StaticBackend serves keys from configuration and the environment.
type StaticBackend struct {
	creds models.GatewayCredentials
}

func NewStaticBackend(secretKey, publishableKey, webhookSecret string) *StaticBackend {
	return &StaticBackend{creds: models.GatewayCredentials{
		SecretKey:      secretKey,
		PublishableKey: publishableKey,
		WebhookSecret:  webhookSecret,
		Source:         "config",
	}}
}

func (b *StaticBackend) Name() string {
	return "config"
}

func (b *StaticBackend) Lookup(context.Context) (*models.GatewayCredentials, bool, error) {
	if b.creds.SecretKey == "" {
		return nil, false, nil
	}

	creds := b.creds

	return &creds, true, nil
}
