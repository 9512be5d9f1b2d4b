package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"

	"commerce-service/internal/audit"
	"commerce-service/internal/payment"
)

// PaymentService forwards requests to the payment gateway. Every failure comes back as *PaymentError.
type PaymentService struct {
	gateway payment.Gateway
	audit   audit.Emitter
}

func NewPaymentService(gateway payment.Gateway, emitter audit.Emitter) *PaymentService {
	return &PaymentService{gateway: gateway, audit: emitter}
}

func (s *PaymentService) fail(ctx context.Context, op, reference string, err error) error {
	perr := &PaymentError{Operation: op, Message: payment.ErrorMessage(err), Err: err}
	logger.Error().Err(err).Str("operation", op).Msg("Payment request failed")
	s.audit.Emit(audit.Failure(ctx, audit.SubjectPayment, audit.PaymentProcessed{Operation: op, Reference: reference}, perr))
	return perr
}

func (s *PaymentService) succeed(ctx context.Context, op, reference string) {
	s.audit.Emit(audit.Success(ctx, audit.SubjectPayment, audit.PaymentProcessed{Operation: op, Reference: reference}))
}

func (s *PaymentService) ListProducts(ctx context.Context) ([]*stripe.Product, error) {
	products, err := s.gateway.ListProducts(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list_products", "", err)
	}
	return products, nil
}

func (s *PaymentService) ListCustomers(ctx context.Context) ([]*stripe.Customer, error) {
	customers, err := s.gateway.ListCustomers(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list_customers", "", err)
	}
	return customers, nil
}

func (s *PaymentService) CreateCustomer(ctx context.Context, email, name string) (*stripe.Customer, error) {
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, validationError("customer email is invalid")
	}
	customer, err := s.gateway.CreateCustomer(ctx, email, name)
	if err != nil {
		return nil, s.fail(ctx, "create_customer", email, err)
	}
	s.succeed(ctx, "create_customer", customer.ID)
	return customer, nil
}

func (s *PaymentService) CreateProduct(ctx context.Context, name, description string, price decimal.Decimal) (*stripe.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationError("product name is required")
	}
	if !price.IsPositive() {
		return nil, validationError("product price must be positive")
	}
	product, err := s.gateway.CreateProduct(ctx, name, description, price)
	if err != nil {
		return nil, s.fail(ctx, "create_product", name, err)
	}
	s.succeed(ctx, "create_product", product.ID)
	return product, nil
}

func (s *PaymentService) CreatePaymentIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (*stripe.PaymentIntent, error) {
	if amount <= 0 {
		return nil, validationError("amount must be positive")
	}
	if currency == "" {
		return nil, validationError("currency is required")
	}
	intent, err := s.gateway.CreatePaymentIntent(ctx, amount, strings.ToLower(currency), idempotencyKey)
	if err != nil {
		return nil, s.fail(ctx, "create_payment_intent", idempotencyKey, err)
	}
	s.succeed(ctx, "create_payment_intent", intent.ID)
	return intent, nil
}

func (s *PaymentService) CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	if customerID == "" || priceID == "" {
		return nil, validationError("customer id and price id are required")
	}
	sub, err := s.gateway.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, s.fail(ctx, "create_subscription", customerID, err)
	}
	s.succeed(ctx, "create_subscription", sub.ID)
	return sub, nil
}

func (s *PaymentService) Refund(ctx context.Context, paymentIntentID, idempotencyKey string) (*stripe.Refund, error) {
	if paymentIntentID == "" {
		return nil, validationError("payment intent id is required")
	}
	refund, err := s.gateway.Refund(ctx, paymentIntentID, idempotencyKey)
	if err != nil {
		return nil, s.fail(ctx, "refund", paymentIntentID, err)
	}
	s.succeed(ctx, "refund", refund.ID)
	return refund, nil
}

func (s *PaymentService) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*stripe.PaymentMethod, error) {
	if customerID == "" || paymentMethodID == "" {
		return nil, validationError("customer id and payment method id are required")
	}
	pm, err := s.gateway.AttachPaymentMethod(ctx, customerID, paymentMethodID)
	if err != nil {
		return nil, s.fail(ctx, "attach_payment_method", paymentMethodID, err)
	}
	s.succeed(ctx, "attach_payment_method", paymentMethodID)
	return pm, nil
}

func (s *PaymentService) Balance(ctx context.Context) (*stripe.Balance, error) {
	balance, err := s.gateway.Balance(ctx)
	if err != nil {
		return nil, s.fail(ctx, "balance", "", err)
	}
	return balance, nil
}

func (s *PaymentService) CreatePaymentLink(ctx context.Context, priceID string) (*stripe.PaymentLink, error) {
	if priceID == "" {
		return nil, validationError("price id is required")
	}
	link, err := s.gateway.CreatePaymentLink(ctx, priceID)
	if err != nil {
		return nil, s.fail(ctx, "create_payment_link", priceID, err)
	}
	s.succeed(ctx, "create_payment_link", link.ID)
	return link, nil
}
