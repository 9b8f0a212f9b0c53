package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/events"
	"github.com/spec-kit/storefront-service/internal/repository"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

// OrderService coordinates checkout and order management.
type OrderService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	carts      repository.CartRepository
	dispatcher events.Dispatcher
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo   repository.OrderRepository
	ProductRepo repository.ProductRepository
	CartRepo    repository.CartRepository
	Dispatcher  events.Dispatcher
}

// NewOrderService builds the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		products:   deps.ProductRepo,
		carts:      deps.CartRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Checkout turns the user's cart into an order: prices are snapshotted from
// the catalog, stock is decremented, and the cart is cleared.
func (s *OrderService) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.NewValidationError("cart is empty", nil)
	}

	// Deterministic order so concurrent checkouts touch products in the
	// same sequence.
	sort.Slice(cart.Items, func(i, j int) bool {
		return cart.Items[i].ProductID < cart.Items[j].ProductID
	})

	order := &domain.Order{
		Number: newOrderNumber(),
		UserID: userID,
		Status: domain.OrderStatusPending,
	}

	var decremented []domain.CartItem
	for _, item := range cart.Items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				s.restock(ctx, decremented)
				return nil, apperrors.NewValidationError("product no longer available", map[string]any{
					"product_id": item.ProductID,
				})
			}
			s.restock(ctx, decremented)
			return nil, err
		}
		if !product.Active {
			s.restock(ctx, decremented)
			return nil, apperrors.NewValidationError("product no longer available", map[string]any{
				"product_id": item.ProductID,
			})
		}

		if err := s.products.AdjustStock(ctx, product.ID, -item.Quantity); err != nil {
			s.restock(ctx, decremented)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewConflict("insufficient stock", map[string]any{
					"product_id": product.ID,
				})
			}
			return nil, err
		}
		decremented = append(decremented, item)

		order.Items = append(order.Items, domain.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
		})
		order.TotalCents += product.PriceCents * int64(item.Quantity)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.restock(ctx, decremented)
		return nil, err
	}

	// The order is placed at this point; a stale cart is recoverable, so a
	// failed clear is not fatal.
	_ = s.carts.Clear(ctx, userID)

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventOrderCreated,
		SubjectID: order.ID,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload: events.OrderCreatedPayload{
			Number:     order.Number,
			TotalCents: order.TotalCents,
			ItemCount:  len(order.Items),
		},
	})

	return order, nil
}

// GetForUser returns an order if it belongs to the user.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", nil)
		}
		return nil, err
	}
	if order.UserID != userID {
		// not found rather than forbidden: order ids of other users are
		// not acknowledged
		return nil, apperrors.NewNotFound("order", nil)
	}
	return order, nil
}

// ListForUser returns the user's orders.
func (s *OrderService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// ListAll returns all orders, admin only at the route layer.
func (s *OrderService) ListAll(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.orders.ListAll(ctx, limit, offset)
}

// UpdateStatus moves an order to a new status.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown order status", nil)
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", nil)
		}
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}

	oldStatus := order.Status
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	s.publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventOrderStatusChanged,
		SubjectID: order.ID,
		UserID:    order.UserID,
		Timestamp: time.Now(),
		Payload: events.OrderStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})

	return order, nil
}

func (s *OrderService) restock(ctx context.Context, items []domain.CartItem) {
	for _, item := range items {
		_ = s.products.AdjustStock(ctx, item.ProductID, item.Quantity)
	}
}

func (s *OrderService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func newOrderNumber() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ORD-%s", id[:12])
}
