package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Orders   *OrderHandler
	Products *ProductHandler
	Payments *PaymentHandler
	Audit    *AuditHandler
}

// RegisterRoutes mounts every endpoint on e; auth guards the mutating catalog routes.
func RegisterRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc) {
	e.Validator = NewValidator()

	orders := e.Group("/orders")
	orders.POST("", h.Orders.CreateOrder)
	orders.POST("/addOrder", h.Orders.CreateOrder)
	orders.GET("", h.Orders.ListOrders)
	orders.GET("/:id", h.Orders.GetOrder)
	orders.DELETE("/:id", h.Orders.RemoveOrder, auth)

	products := e.Group("/products")
	products.POST("", h.Products.CreateProduct, auth)
	products.POST("/create", h.Products.CreateProduct, auth)
	products.GET("", h.Products.ListProducts)
	products.GET("/:id", h.Products.GetProduct)
	products.PATCH("/:id", h.Products.UpdateProduct, auth)
	products.DELETE("/:id", h.Products.DeleteProduct, auth)
	products.GET("/:id/images", h.Products.ListImages)
	products.POST("/:id/images", h.Products.AddImage, auth)
	products.DELETE("/:id/images/:imageId", h.Products.RemoveImage, auth)
	products.GET("/:id/sizes", h.Products.ListSizes)
	products.POST("/:id/sizes", h.Products.AddSize, auth)
	products.DELETE("/:id/sizes/:sizeId", h.Products.RemoveSize, auth)

	payments := e.Group("/payments")
	payments.GET("/products", h.Payments.ListProducts)
	payments.POST("/products", h.Payments.CreateProduct)
	payments.GET("/customers", h.Payments.ListCustomers)
	payments.POST("/customers", h.Payments.CreateCustomer)
	payments.POST("/intents", h.Payments.CreatePaymentIntent)
	payments.POST("/subscriptions", h.Payments.CreateSubscription)
	payments.POST("/refunds", h.Payments.Refund)
	payments.POST("/payment-methods/attach", h.Payments.AttachPaymentMethod)
	payments.GET("/balance", h.Payments.Balance)
	payments.POST("/links", h.Payments.CreatePaymentLink)

	e.GET("/audit-logs", h.Audit.ListRecent, auth)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "commerce-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
}
