package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrOrderNotFound     = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound   = fmt.Errorf("product %w", ErrNotFound)
	ErrImageNotFound     = fmt.Errorf("image %w", ErrNotFound)
	ErrSizeNotFound      = fmt.Errorf("size %w", ErrNotFound)
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPaymentProcessing = errors.New("payment processing failed")
)

// InsufficientStockError reports the product that could not cover the requested quantity.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PaymentError carries the message returned by the payment provider.
type PaymentError struct {
	Operation string
	Message   string
	Err       error
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment %s failed: %s", e.Operation, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func (e *PaymentError) Is(target error) bool {
	return target == ErrPaymentProcessing
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
