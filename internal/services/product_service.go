package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"
)

// ErrDuplicateProductName is returned when creating a product whose name is taken.
var ErrDuplicateProductName = errors.New("product name already exists")

// EventPublisher delivers product change events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct inserts a product unless another one already has its name.
// The name check and the insert are separate statements, so concurrent
// creates with the same name can both succeed.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	count, err := s.repo.CountByName(ctx, product.Name)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate product name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: '%s'", ErrDuplicateProductName, product.Name)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}
	s.publish(models.EventProductCreated, *product)
	return nil
}

// UpdateProduct overwrites name, price and stock. It neither checks that
// the product exists nor that the new name is free.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}
	s.publish(models.EventProductUpdated, *product)
	return nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(models.EventProductDeleted, models.Product{ID: id})
	return nil
}

// publish is best effort: failures are logged and never reach the caller.
func (s *ProductService) publish(event string, product models.Product) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(models.ProductEvent{
		Event:      event,
		ProductID:  product.ID,
		Name:       product.Name,
		Price:      product.Price,
		Stock:      product.Stock,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for product %d: %v", event, product.ID, err)
		return
	}

	if err := s.publisher.Publish(event, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for product %d: %v", event, product.ID, err)
	}
}
