package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/google/uuid"
)

type CartService interface {
	GetOrCreateCart(ctx context.Context, principal models.Principal) (*models.Cart, error)
	// AddLine returns nil when replace set an existing line to zero and removed it.
	AddLine(ctx context.Context, principal models.Principal, productID int64, quantity int, replace bool) (*models.CartLine, error)
	RemoveLine(ctx context.Context, principal models.Principal, productID int64) error
	// UpdateQuantity returns nil when the quantity removed the line.
	UpdateQuantity(ctx context.Context, principal models.Principal, productID int64, quantity int) (*models.CartLine, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type cartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{repo: repo, products: products}
}

func (s *cartService) GetOrCreateCart(ctx context.Context, principal models.Principal) (*models.Cart, error) {

	cart, err := s.repo.GetOrCreateCart(ctx, principal)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to load cart").WithError(err)
	}

	return cart, nil
}

func (s *cartService) AddLine(ctx context.Context, principal models.Principal, productID int64, quantity int, replace bool) (*models.CartLine, error) {

	logger := middleware.LoggerFromContext(ctx)

	// setting an existing line to zero is a removal, only a new line needs a positive quantity
	if replace && quantity <= 0 {
		cart, err := s.GetOrCreateCart(ctx, principal)
		if err != nil {
			return nil, err
		}

		if _, ok := cart.Line(productID); ok {
			if err := s.repo.RemoveLine(ctx, cart.ID, productID); err != nil {
				return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
			}

			logger.Debug("Cart line removed", slog.String("cart_id", cart.ID.String()), slog.Int64("product_id", productID))
			return nil, nil
		}
	}

	if quantity < 1 {
		return nil, appErrors.InvalidQuantityError("Quantity must be at least 1")
	}

	product, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to load product").WithError(err)
	}

	if !product.IsActive() {
		logger.Info("Rejected inactive product", slog.Int64("product_id", productID))
		return nil, appErrors.BadRequestError("Product is not available")
	}

	cart, err := s.GetOrCreateCart(ctx, principal)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.UpsertLine(ctx, cart.ID, productID, quantity, replace)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	logger.Debug("Cart line saved", slog.String("cart_id", cart.ID.String()), slog.Int64("product_id", productID), slog.Int("quantity", stored))

	return &models.CartLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    stored,
	}, nil
}

func (s *cartService) RemoveLine(ctx context.Context, principal models.Principal, productID int64) error {

	cart, err := s.GetOrCreateCart(ctx, principal)
	if err != nil {
		return err
	}

	if err := s.repo.RemoveLine(ctx, cart.ID, productID); err != nil {
		return appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	return nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, principal models.Principal, productID int64, quantity int) (*models.CartLine, error) {

	if quantity <= 0 {
		return nil, s.RemoveLine(ctx, principal, productID)
	}

	cart, err := s.GetOrCreateCart(ctx, principal)
	if err != nil {
		return nil, err
	}

	line, ok := cart.Line(productID)
	if !ok {
		return nil, appErrors.NotFoundError("Item not found in the cart")
	}

	if err := s.repo.UpdateLineQuantity(ctx, cart.ID, productID, quantity); err != nil {
		if errors.Is(err, repository.ErrCartLineNotFound) {
			return nil, appErrors.NotFoundError("Item not found in the cart").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	line.Quantity = quantity

	return &line, nil
}

func (s *cartService) Clear(ctx context.Context, cartID uuid.UUID) error {

	if err := s.repo.ClearCart(ctx, cartID); err != nil {
		return appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}
