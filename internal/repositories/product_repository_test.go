package repository_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{"id", "name", "description", "price", "stock_quantity", "sku", "status", "created_at", "updated_at"}

func TestNewProductRepo(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewProductRepo(db)
	assert.NotNil(t, repo, "NewProductRepo should return a non-nil repository")
}

func TestProductRepository(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewProductRepo(db)
	ctx := t.Context()
	now := time.Now()

	getSQL := regexp.QuoteMeta(`FROM products WHERE id = $1`)

	t.Run("GetProductByID", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(getSQL).
				WithArgs(int64(7)).
				WillReturnRows(sqlmock.NewRows(productColumns).
					AddRow(int64(7), "Mug", "Ceramic", "12.50", int64(40), "MUG-1", "active", now, now))

			// Act
			product, err := repo.GetProductByID(ctx, 7)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, int64(7), product.ID)
			assert.True(t, decimal.RequireFromString("12.50").Equal(product.Price))
			assert.True(t, product.IsActive())
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Not Found", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(getSQL).
				WithArgs(int64(99)).
				WillReturnRows(sqlmock.NewRows(productColumns))

			// Act
			product, err := repo.GetProductByID(ctx, 99)

			// Assert
			assert.Nil(t, product)
			assert.ErrorIs(t, err, repository.ErrProductNotFound)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Error", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(getSQL).
				WithArgs(int64(1)).
				WillReturnError(errors.New("connection reset"))

			// Act
			product, err := repo.GetProductByID(ctx, 1)

			// Assert
			assert.Nil(t, product)
			require.Error(t, err)
			assert.NotErrorIs(t, err, repository.ErrProductNotFound)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})

	t.Run("ListActiveProducts", func(t *testing.T) {
		countSQL := regexp.QuoteMeta(`SELECT COUNT(*) FROM products WHERE status = 'active'`)
		listSQL := regexp.QuoteMeta(`LIMIT $1 OFFSET $2`)

		t.Run("Success", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(countSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
			mock.ExpectQuery(listSQL).
				WithArgs(2, 2).
				WillReturnRows(sqlmock.NewRows(productColumns).
					AddRow(int64(3), "Tea", "", "4.00", int64(10), "TEA-1", "active", now, now))

			// Act
			products, total, err := repo.ListActiveProducts(ctx, 2, 2)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			require.Len(t, products, 1)
			assert.Equal(t, "Tea", products[0].Name)
			require.NoError(t, mock.ExpectationsWereMet())
		})

		t.Run("Count Error", func(t *testing.T) {
			// Arrange
			mock.ExpectQuery(countSQL).WillReturnError(errors.New("timeout"))

			// Act
			products, total, err := repo.ListActiveProducts(ctx, 1, 10)

			// Assert
			require.Error(t, err)
			assert.Nil(t, products)
			assert.Zero(t, total)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	})
}
