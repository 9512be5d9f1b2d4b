package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
)

// newTestGateway points the stripe client at an httptest server.
func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeGateway("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestStripeGateway_CreatePaymentIntent(t *testing.T) {
	var (
		gotKey  string
		gotForm string
	)
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("Idempotency-Key")
		r.ParseForm()
		gotForm = r.Form.Encode()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":500,"currency":"usd"}`))
	})

	pi, err := g.CreatePaymentIntent(context.Background(), 500, "usd", "order-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pi.ID != "pi_123" || pi.Amount != 500 {
		t.Errorf("unexpected intent %+v", pi)
	}
	if gotKey != "order-42" {
		t.Errorf("expected idempotency key to be forwarded, got %q", gotKey)
	}
	if !strings.Contains(gotForm, "amount=500") || !strings.Contains(gotForm, "payment_method_types") {
		t.Errorf("unexpected form %s", gotForm)
	}
}

func TestStripeGateway_CreateProductCreatesPrice(t *testing.T) {
	var paths []string
	var unitAmount string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/products":
			w.Write([]byte(`{"id":"prod_1","object":"product","name":"Laptop"}`))
		case "/v1/prices":
			r.ParseForm()
			unitAmount = r.Form.Get("unit_amount")
			w.Write([]byte(`{"id":"price_1","object":"price","unit_amount":1999}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	p, err := g.CreateProduct(context.Background(), "Laptop", "A laptop", decimal.RequireFromString("19.99"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "prod_1" {
		t.Errorf("unexpected product %+v", p)
	}
	if len(paths) != 2 || unitAmount != "1999" {
		t.Errorf("expected product then price in cents, got %v unit_amount=%s", paths, unitAmount)
	}
}

func TestStripeGateway_ErrorMessage(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	})

	_, err := g.Refund(context.Background(), "pi_123", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := ErrorMessage(err); msg != "Your card was declined." {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestErrorMessage_PlainError(t *testing.T) {
	if msg := ErrorMessage(errors.New("network down")); msg != "network down" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestToCents(t *testing.T) {
	tests := map[string]int64{"10": 1000, "19.99": 1999, "0.015": 2, "999.999": 100000}
	for in, want := range tests {
		if got := ToCents(decimal.RequireFromString(in)); got != want {
			t.Errorf("ToCents(%s) = %d, want %d", in, got, want)
		}
	}
}
