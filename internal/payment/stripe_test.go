package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

func fakeStripe(t *testing.T, timeout time.Duration) (*StripeGateway, *http.Request) {
	t.Helper()
	var lastCreate http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_intents/pi_ok":
			_, _ = w.Write([]byte(`{"id":"pi_ok","object":"payment_intent","status":"succeeded","amount":5998,"currency":"usd","client_secret":"pi_ok_secret","metadata":{"order_id":"o1"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_intents/pi_declined":
			_, _ = w.Write([]byte(`{"id":"pi_declined","object":"payment_intent","status":"requires_payment_method","last_payment_error":{"code":"card_declined","message":"Your card was declined."}}`))
		case r.URL.Path == "/v1/payment_intents/pi_missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
		case r.URL.Path == "/v1/payment_intents/pi_boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"internal"}}`))
		case r.URL.Path == "/v1/payment_intents/pi_bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad request"}}`))
		case r.URL.Path == "/v1/payment_intents/pi_slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
			_ = r.ParseForm()
			lastCreate = *r
			_, _ = w.Write([]byte(`{"id":"pi_created","object":"payment_intent","status":"requires_payment_method","amount":5998,"currency":"usd","client_secret":"pi_created_secret"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"unexpected"}}`))
		}
	}))
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeGatewayWithBackend("sk_test_123", backend, timeout), &lastCreate
}

func TestStripeRetrieve(t *testing.T) {
	gw, _ := fakeStripe(t, time.Second)

	in, err := gw.Retrieve(context.Background(), "pi_ok")
	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, in.Status)
	assert.Equal(t, int64(5998), in.Amount)
	assert.Equal(t, "o1", in.Metadata["order_id"])

	in, err = gw.Retrieve(context.Background(), "pi_declined")
	require.NoError(t, err)
	assert.Equal(t, "Your card was declined.", in.LastError)
}

func TestStripeErrorClassification(t *testing.T) {
	gw, _ := fakeStripe(t, 100*time.Millisecond)

	_, err := gw.Retrieve(context.Background(), "pi_missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound), "%v", err)

	_, err = gw.Retrieve(context.Background(), "pi_boom")
	e, ok := apperr.As(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, apperr.CodeUpstreamUnavailable, e.Code)
	assert.True(t, e.Retryable)

	_, err = gw.Retrieve(context.Background(), "pi_bad")
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeUpstreamRejected, e.Code)
	assert.False(t, e.Retryable)

	_, err = gw.Retrieve(context.Background(), "pi_slow")
	e, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeUpstreamTimeout, e.Code)
	assert.Equal(t, 504, apperr.HTTPStatus(err))
}

func TestStripeCreateIntentSendsIdempotencyKeyAndMetadata(t *testing.T) {
	gw, last := fakeStripe(t, time.Second)

	in, err := gw.CreateIntent(context.Background(), IntentRequest{
		OrderID: "o1", OrderNumber: "LH-1", CustomerEmail: "ana@example.com", Amount: 5998, Currency: "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_created", in.ID)
	assert.Equal(t, "pi_created_secret", in.ClientSecret)

	assert.Equal(t, "order-o1", last.Header.Get("Idempotency-Key"))
	assert.Equal(t, "Bearer sk_test_123", last.Header.Get("Authorization"))
	assert.Equal(t, "5998", last.PostForm.Get("amount"))
	assert.Equal(t, "o1", last.PostForm.Get("metadata[order_id]"))
	assert.Equal(t, "LH-1", last.PostForm.Get("metadata[order_number]"))
}
