package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/session"
)

type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Order    *OrderHandler
	Product  *ProductHandler
	Admin    *AdminHandler
}

func NewRouter(h Handlers, resolver *session.Resolver, opts middleware.SessionOptions, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)

	v1 := router.Group("/api/v1", middleware.Session(resolver, opts, log))
	{
		v1.GET("/session", h.Auth.Session)

		auth := v1.Group("/auth")
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)

		cart := v1.Group("/cart")
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items", h.Cart.UpdateItem)
		cart.DELETE("/items", h.Cart.RemoveItem)

		checkout := v1.Group("/checkout")
		checkout.POST("", h.Checkout.Create)
		checkout.GET("", h.Checkout.Current)
		checkout.POST("/:id/pay", h.Checkout.Pay)
		checkout.POST("/:id/finalize", h.Checkout.Finalize)

		orders := v1.Group("/orders")
		orders.GET("", h.Order.ListOrders)
		orders.GET("/confirmation", h.Order.Confirmation)
		orders.GET("/:id", h.Order.GetOrder)

		products := v1.Group("/products")
		products.GET("", h.Product.List)
		products.GET("/best-seller", h.Product.BestSeller)
		products.GET("/new-arrivals", h.Product.NewArrivals)
		products.GET("/:id", h.Product.GetByID)
		products.GET("/:id/similar", h.Product.Similar)

		admin := v1.Group("/admin", middleware.AdminOnly())
		admin.GET("/summary", h.Admin.Summary)
		admin.GET("/products", h.Admin.ListProducts)
		admin.POST("/products", h.Admin.CreateProduct)
		admin.PUT("/products/:id", h.Admin.UpdateProduct)
		admin.DELETE("/products/:id", h.Admin.DeleteProduct)
		admin.POST("/upload", h.Admin.UploadImage)
		admin.GET("/orders", h.Admin.ListOrders)
		admin.PUT("/orders/:id", h.Admin.UpdateOrderStatus)
		admin.DELETE("/orders/:id", h.Admin.DeleteOrder)
		admin.GET("/users", h.Admin.ListUsers)
		admin.POST("/users", h.Admin.CreateUser)
		admin.PUT("/users/:id", h.Admin.UpdateUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
	}
	return router
}
