package dto

import "github.com/spec-kit/storefront-service/internal/domain"

// CartItemRequest payload for setting a cart line.
type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartItemResponse is one cart line.
type CartItemResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartResponse is the user's pending cart.
type CartResponse struct {
	Items []CartItemResponse `json:"items"`
}

// NewCartResponse maps a domain cart.
func NewCartResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemResponse{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return CartResponse{Items: items}
}
