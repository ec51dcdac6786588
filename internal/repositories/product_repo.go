package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

// ErrProductNotFound is returned when no row matches the requested ID.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	CountByName(ctx context.Context, name string) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	// Update overwrites name, price and stock of the row with product.ID.
	// It does not report whether a row matched.
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int) error
}
