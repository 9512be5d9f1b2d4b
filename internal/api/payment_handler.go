package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
)

type PaymentService interface {
	ListProducts(ctx context.Context) ([]*stripe.Product, error)
	ListCustomers(ctx context.Context) ([]*stripe.Customer, error)
	CreateCustomer(ctx context.Context, email, name string) (*stripe.Customer, error)
	CreateProduct(ctx context.Context, name, description string, price decimal.Decimal) (*stripe.Product, error)
	CreatePaymentIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (*stripe.PaymentIntent, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error)
	Refund(ctx context.Context, paymentIntentID, idempotencyKey string) (*stripe.Refund, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*stripe.PaymentMethod, error)
	Balance(ctx context.Context) (*stripe.Balance, error)
	CreatePaymentLink(ctx context.Context, priceID string) (*stripe.PaymentLink, error)
}

const headerIdempotencyKey = "Idempotency-Key"

type PaymentHandler struct {
	paymentService PaymentService
}

func NewPaymentHandler(paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ListProducts --> GET /payments/products
func (h *PaymentHandler) ListProducts(c echo.Context) error {
	products, err := h.paymentService.ListProducts(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct --> POST /payments/products
func (h *PaymentHandler) CreateProduct(c echo.Context) error {
	req := struct {
		Name        string          `json:"name" validate:"required"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
	}{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	product, err := h.paymentService.CreateProduct(c.Request().Context(), req.Name, req.Description, req.Price)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// ListCustomers --> GET /payments/customers
func (h *PaymentHandler) ListCustomers(c echo.Context) error {
	customers, err := h.paymentService.ListCustomers(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, customers)
}

// CreateCustomer --> POST /payments/customers
func (h *PaymentHandler) CreateCustomer(c echo.Context) error {
	req := struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required"`
	}{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	customer, err := h.paymentService.CreateCustomer(c.Request().Context(), req.Email, req.Name)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, customer)
}

// CreatePaymentIntent --> POST /payments/intents
func (h *PaymentHandler) CreatePaymentIntent(c echo.Context) error {
	req := struct {
		Amount   int64  `json:"amount" validate:"gt=0"`
		Currency string `json:"currency" validate:"required,len=3"`
	}{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	key := c.Request().Header.Get(headerIdempotencyKey)
	intent, err := h.paymentService.CreatePaymentIntent(c.Request().Context(), req.Amount, req.Currency, key)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, intent)
}

// CreateSubscription --> POST /payments/subscriptions
func (h *PaymentHandler) CreateSubscription(c echo.Context) error {
	req := struct {
		CustomerID string `json:"customerId" validate:"required"`
		PriceID    string `json:"priceId" validate:"required"`
	}{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	sub, err := h.paymentService.CreateSubscription(c.Request().Context(), req.CustomerID, req.PriceID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, sub)
}

// Refund --> POST /payments/refunds
func (h *PaymentHandler) Refund(c echo.Context) error {
	req := struct {
		PaymentIntentID string `json:"paymentIntentId" validate:"required"`
	}{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	key := c.Request().Header.Get(headerIdempotencyKey)
	refund, err := h.paymentService.Refund(c.Request().Context(), req.PaymentIntentID, key)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, refund)
}

// AttachPaymentMethod --> POST /payments/payment-methods/attach
func (h *PaymentHandler) AttachPaymentMethod(c echo.Context) error {
	req := struct {
		CustomerID      string `json:"customerId" validate:"required"`
		PaymentMethodID string `json:"paymentMethodId" validate:"required"`
	}{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	pm, err := h.paymentService.AttachPaymentMethod(c.Request().Context(), req.CustomerID, req.PaymentMethodID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, pm)
}

// Balance --> GET /payments/balance
func (h *PaymentHandler) Balance(c echo.Context) error {
	balance, err := h.paymentService.Balance(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, balance)
}

// CreatePaymentLink --> POST /payments/links
func (h *PaymentHandler) CreatePaymentLink(c echo.Context) error {
	req := struct {
		PriceID string `json:"priceId" validate:"required"`
	}{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}
	link, err := h.paymentService.CreatePaymentLink(c.Request().Context(), req.PriceID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, link)
}
