package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/blob"
	"storefront/internal/middleware"
	"storefront/internal/orders"
)

type Deps struct {
	Orders   *orders.Service
	Products ProductStore
	Accounts AccountStore
	// Users backs the token guards; nil skips the account check.
	Users middleware.UserLookup
	Blobs blob.Store
	Auth  AuthConfig

	LegacyUserIDAuth   bool
	OrderRatePerMinute int
	PaymentKeyID       string

	// Ping reports database reachability for /healthz.
	Ping func(ctx context.Context) error
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.Use(middleware.RequestID())

	r.GET("/healthz", Health(d.Ping))

	r.POST("/auth/register", Register(d.Accounts, d.Auth))
	r.POST("/auth/login", Login(d.Accounts, d.Auth))
	r.POST("/auth/refresh", Refresh(d.Accounts, d.Auth))
	r.POST("/auth/logout", Logout(d.Accounts))
	r.GET("/auth/me", middleware.UserAuth(d.Auth.Secret, d.Users), GetMe(d.Accounts))
	r.POST("/admin/login", AdminLogin(d.Accounts, d.Auth))

	r.GET("/products", GetProducts(d.Products))
	r.GET("/products/:id", GetProduct(d.Products))

	limiter := middleware.NewRateLimiter(d.OrderRatePerMinute)
	customer := r.Group("/orders")
	customer.Use(middleware.UserAuth(d.Auth.Secret, d.Users))
	{
		customer.POST("", limiter.Middleware(), CreateOrder(d.Orders))
		customer.GET("", GetOrders(d.Orders))
		customer.GET("/:orderId", GetOrder(d.Orders))
		customer.POST("/:orderId/cancel", CancelOrder(d.Orders))
		customer.POST("/:orderId/payment", StartPayment(d.Orders, d.PaymentKeyID))
		customer.POST("/:orderId/payment/verify", VerifyPayment(d.Orders))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(d.Auth.Secret, d.Users, d.LegacyUserIDAuth))
	{
		admin.GET("/me", func(c *gin.Context) {
			caller, _ := middleware.CallerFrom(c)
			respondOK(c, http.StatusOK, gin.H{"id": caller.UserID.Hex(), "role": caller.Role})
		})

		admin.GET("/orders", GetAllOrders(d.Orders))
		admin.GET("/orders/:orderId", GetOrderAdmin(d.Orders))
		admin.PATCH("/orders/:orderId/status", UpdateOrderStatus(d.Orders))
		admin.DELETE("/orders/:orderId", DeleteOrder(d.Orders))

		admin.GET("/products", GetAllProducts(d.Products))
		admin.GET("/products/:id", GetProductAdmin(d.Products))
		admin.POST("/products", CreateProduct(d.Products))
		admin.PUT("/products/:id", UpdateProduct(d.Products))
		admin.DELETE("/products/:id", DeleteProduct(d.Products))

		if d.Blobs != nil {
			admin.POST("/uploads", UploadImage(d.Blobs))
			admin.DELETE("/uploads/:handle", DeleteImage(d.Blobs))
		}
	}
}

func Health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /healthz"
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
				return
			}
		}
		respondMessage(c, http.StatusOK, "ok")
	}
}
