package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Gateway is the payment provider surface used by the service layer.
type Gateway interface {
	ListProducts(ctx context.Context) ([]*stripe.Product, error)
	ListCustomers(ctx context.Context) ([]*stripe.Customer, error)
	CreateCustomer(ctx context.Context, email, name string) (*stripe.Customer, error)
	// CreateProduct creates the product and a usd price for it.
	CreateProduct(ctx context.Context, name, description string, price decimal.Decimal) (*stripe.Product, error)
	CreatePaymentIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (*stripe.PaymentIntent, error)
	CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error)
	Refund(ctx context.Context, paymentIntentID, idempotencyKey string) (*stripe.Refund, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*stripe.PaymentMethod, error)
	Balance(ctx context.Context) (*stripe.Balance, error)
	CreatePaymentLink(ctx context.Context, priceID string) (*stripe.PaymentLink, error)
}

type StripeGateway struct {
	sc *client.API
}

func NewStripeGateway(apiKey string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{sc: client.New(apiKey, backends)}
}

func (g *StripeGateway) ListProducts(ctx context.Context) ([]*stripe.Product, error) {
	params := &stripe.ProductListParams{}
	params.Context = ctx

	products := []*stripe.Product{}
	it := g.sc.Products.List(params)
	for it.Next() {
		products = append(products, it.Product())
	}
	return products, it.Err()
}

func (g *StripeGateway) ListCustomers(ctx context.Context) ([]*stripe.Customer, error) {
	params := &stripe.CustomerListParams{}
	params.Context = ctx

	customers := []*stripe.Customer{}
	it := g.sc.Customers.List(params)
	for it.Next() {
		customers = append(customers, it.Customer())
	}
	return customers, it.Err()
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	return g.sc.Customers.New(params)
}

func (g *StripeGateway) CreateProduct(ctx context.Context, name, description string, price decimal.Decimal) (*stripe.Product, error) {
	params := &stripe.ProductParams{
		Name:        stripe.String(name),
		Description: stripe.String(description),
	}
	params.Context = ctx
	product, err := g.sc.Products.New(params)
	if err != nil {
		return nil, err
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(product.ID),
		UnitAmount: stripe.Int64(ToCents(price)),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
	}
	priceParams.Context = ctx
	if _, err := g.sc.Prices.New(priceParams); err != nil {
		return nil, err
	}
	return product, nil
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency, idempotencyKey string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	return g.sc.PaymentIntents.New(params)
}

func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx
	return g.sc.Subscriptions.New(params)
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID, idempotencyKey string) (*stripe.Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	return g.sc.Refunds.New(params)
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) (*stripe.PaymentMethod, error) {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	return g.sc.PaymentMethods.Attach(paymentMethodID, params)
}

func (g *StripeGateway) Balance(ctx context.Context) (*stripe.Balance, error) {
	params := &stripe.BalanceParams{}
	params.Context = ctx
	return g.sc.Balance.Get(params)
}

func (g *StripeGateway) CreatePaymentLink(ctx context.Context, priceID string) (*stripe.PaymentLink, error) {
	params := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	return g.sc.PaymentLinks.New(params)
}

// ToCents converts a major-unit amount into the smallest currency unit.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// ErrorMessage extracts the provider message from err when it is a stripe error.
func ErrorMessage(err error) string {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Msg != "" {
		return serr.Msg
	}
	return err.Error()
}
