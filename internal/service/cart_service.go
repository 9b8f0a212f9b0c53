package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/repository"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

const maxCartQuantity = 99

// CartService coordinates pending cart workflows.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

// NewCartService builds the service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the user's cart.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.carts.Get(ctx, userID)
}

// SetItem stores a quantity for a product, verifying it exists and is
// purchasable. Quantity zero removes the item.
func (s *CartService) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 0 || quantity > maxCartQuantity {
		return apperrors.NewValidationError("quantity out of range", nil)
	}
	if quantity == 0 {
		return s.carts.RemoveItem(ctx, userID, productID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("product", nil)
		}
		return err
	}
	if !product.Active {
		return apperrors.NewValidationError("product not available", nil)
	}

	return s.carts.SetItem(ctx, userID, productID, quantity)
}

// RemoveItem drops a product from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) error {
	return s.carts.RemoveItem(ctx, userID, productID)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}
