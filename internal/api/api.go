package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"commerce-service/internal/service"
)

// Validator plugs go-playground/validator into echo's c.Validate.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i any) error {
	return v.validate.Struct(i)
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request payload", service.ErrValidation)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	return nil
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid ID"})
}

// errorJSON maps service errors onto status codes.
func errorJSON(c echo.Context, err error) error {
	var stockErr *service.InsufficientStockError
	var payErr *service.PaymentError

	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusConflict, map[string]any{
			"error":      err.Error(),
			"product_id": stockErr.ProductID,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		})
	case errors.As(err, &payErr):
		return c.JSON(http.StatusBadGateway, map[string]string{"error": payErr.Message})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
