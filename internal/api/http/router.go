package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-service/internal/api/http/handlers"
	"github.com/spec-kit/storefront-service/internal/auth"
	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/ratelimit"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Products       *handlers.ProductsHandler
	Cart           *handlers.CartHandler
	Orders         *handlers.OrdersHandler
	AdminUsers     *handlers.AdminUsersHandler
	AuthMiddleware *auth.Middleware

	// AuthLimiter throttles credential endpoints; GeneralLimiter covers
	// everything else.
	AuthLimiter    *ratelimit.Limiter
	GeneralLimiter *ratelimit.Limiter
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.GeneralLimiter != nil {
		app.Use(RateLimitMiddleware(cfg.GeneralLimiter))
	}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	credentialLimit := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.AuthLimiter != nil {
		credentialLimit = RateLimitMiddleware(cfg.AuthLimiter)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", credentialLimit, cfg.Auth.Register)
	authGroup.Post("/login", credentialLimit, cfg.Auth.Login)
	authGroup.Post("/refresh", credentialLimit, cfg.Auth.Refresh)
	authGroup.Post("/logout", cfg.Auth.Logout)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Get("/me", cfg.Auth.Me)
	authProtected.Post("/password/change", credentialLimit, cfg.Auth.ChangePassword)

	app.Get("/products", cfg.Products.List)
	app.Get("/products/:id", cfg.Products.Get)

	cart := app.Group("/cart", cfg.AuthMiddleware.Handle)
	cart.Get("/", cfg.Cart.Get)
	cart.Put("/items", cfg.Cart.SetItem)
	cart.Delete("/items/:productId", cfg.Cart.RemoveItem)
	cart.Delete("/", cfg.Cart.Clear)

	orders := app.Group("/orders", cfg.AuthMiddleware.Handle)
	orders.Post("/", cfg.Orders.Checkout)
	orders.Get("/", cfg.Orders.List)
	orders.Get("/:id", cfg.Orders.Get)

	// Role sets are exact-match, so admin routes that admit super admins
	// list both tiers explicitly.
	admin := app.Group("/admin", cfg.AuthMiddleware.Handle)

	adminCatalog := admin.Group("/products", auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
	adminCatalog.Post("/", cfg.Products.Create)
	adminCatalog.Put("/:id", cfg.Products.Update)
	adminCatalog.Delete("/:id", cfg.Products.Delete)

	adminOrders := admin.Group("/orders", auth.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
	adminOrders.Get("/", cfg.Orders.AdminList)
	adminOrders.Patch("/:id/status", cfg.Orders.AdminUpdateStatus)

	adminUsers := admin.Group("/users", auth.RequireRole(domain.RoleSuperAdmin))
	adminUsers.Get("/:id", cfg.AdminUsers.Get)
	adminUsers.Patch("/:id/role", cfg.AdminUsers.ChangeRole)
	adminUsers.Delete("/:id", cfg.AdminUsers.Delete)
}
