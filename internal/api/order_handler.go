package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"commerce-service/internal/entity"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, customer entity.Customer, items []entity.ItemRequest) (*entity.Order, error)
	ListOrders(ctx context.Context) ([]entity.Order, error)
	GetOrder(ctx context.Context, id int64) (*entity.Order, error)
	RemoveOrder(ctx context.Context, id int64) (bool, error)
}

type OrderHandler struct {
	orderService OrderService
}

func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type createOrderRequest struct {
	CustomerName  string                   `json:"customerName" validate:"required"`
	CustomerEmail string                   `json:"customerEmail" validate:"required,email"`
	CustomerPhone string                   `json:"customerPhone" validate:"required"`
	Items         []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createOrderItemRequest struct {
	ProductID   int64           `json:"productId" validate:"gt=0"`
	ProductName string          `json:"productName" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	Price       decimal.Decimal `json:"price"`
}

// CreateOrder places an order --> POST /orders, /orders/addOrder
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	req := createOrderRequest{}
	if err := bindAndValidate(c, &req); err != nil {
		return errorJSON(c, err)
	}

	items := make([]entity.ItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, entity.ItemRequest{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
		})
	}
	customer := entity.Customer{Name: req.CustomerName, Email: req.CustomerEmail, Phone: req.CustomerPhone}

	order, err := h.orderService.PlaceOrder(c.Request().Context(), customer, items)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ListOrders --> GET /orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder --> GET /orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	order, err := h.orderService.GetOrder(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// RemoveOrder --> DELETE /orders/:id
func (h *OrderHandler) RemoveOrder(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return invalidID(c)
	}
	removed, err := h.orderService.RemoveOrder(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"deleted": removed})
}
