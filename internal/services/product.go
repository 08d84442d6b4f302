package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
)

type ProductService interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error)
}

type productService struct {
	repo  repository.ProductRepository
	cache cache.Cache
}

// NewProductService reads single products through the cache when one is given.
func NewProductService(repo repository.ProductRepository, c cache.Cache) ProductService {
	return &productService{repo: repo, cache: c}
}

func (s *productService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.ProductKeyPrefix, strconv.FormatInt(id, 10))

	if s.cache != nil {
		var cached models.Product

		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("Product cache read failed", slog.String("key", key), slog.Any("error", err))
		} else if found {
			return &cached, nil
		}
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, product, 0); err != nil {
			logger.Warn("Product cache write failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	return product, nil
}

// page means "page number requested"
// pageSize means "number of products to be displayed per page"
func (s *productService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {

	products, total, err := s.repo.ListActiveProducts(ctx, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}
