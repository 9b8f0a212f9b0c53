package domain

// CartItem is a product selection held in a user's cart before checkout.
type CartItem struct {
	ProductID string
	Quantity  int
}

// Cart is the per-user set of pending selections. Carts live in Redis and
// carry no prices; prices are resolved from the catalog at checkout.
type Cart struct {
	UserID string
	Items  []CartItem
}
