package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/storefront-service/internal/domain"
)

// cartTTL bounds abandoned carts; every write refreshes it.
const cartTTL = 30 * 24 * time.Hour

// CartRepository defines storage for pending carts.
type CartRepository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	SetItem(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}

type cartRepository struct {
	client *redis.Client
}

// NewCartRepository returns a Redis-backed implementation. Each cart is a
// hash of product id to quantity under a per-user key.
func NewCartRepository(client *redis.Client) CartRepository {
	return &cartRepository{client: client}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

func (r *cartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	entries, err := r.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	cart := &domain.Cart{UserID: userID}
	for productID, raw := range entries {
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt cart entry for %s: %w", productID, err)
		}
		cart.Items = append(cart.Items, domain.CartItem{ProductID: productID, Quantity: quantity})
	}
	return cart, nil
}

func (r *cartRepository) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	key := cartKey(userID)
	if err := r.client.HSet(ctx, key, productID, quantity).Err(); err != nil {
		return err
	}
	return r.client.Expire(ctx, key, cartTTL).Err()
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID string) error {
	return r.client.HDel(ctx, cartKey(userID), productID).Err()
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKey(userID)).Err()
}
