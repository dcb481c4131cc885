package paystack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	pkgerrors "github.com/k-code-yt/paystack-payments/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewClient(Config{BaseURL: srv.URL + "/", SecretKey: "sk_test_123", Timeout: timeout}, logger)
}

func initiateRequest() payment.InitiateRequest {
	return payment.InitiateRequest{
		Reference:      "PAY-ABCDEF12",
		AmountSubunits: 5000,
		Currency:       "NGN",
		Email:          "john@example.com",
		CallbackURL:    "http://localhost:8000/api/v1/payments/webhook/paystack/",
		Metadata:       map[string]string{"customer_name": "John Doe"},
	}
}

func TestInitiateSuccess(t *testing.T) {
	var got initializeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"PAY-ABCDEF12"}}`))
	}, time.Second)

	res, err := client.Initiate(context.Background(), initiateRequest())
	require.NoError(t, err)

	assert.Equal(t, "PAY-ABCDEF12", res.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
	assert.Equal(t, "abc", res.AccessCode)

	assert.Equal(t, int64(5000), got.Amount)
	assert.Equal(t, "john@example.com", got.Email)
	assert.Equal(t, "NGN", got.Currency)
	assert.Equal(t, "John Doe", got.Metadata["customer_name"])
}

func TestInitiateProviderFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
		},
		"status false": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":false,"message":"Duplicate Transaction Reference"}`))
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
		"no url": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":true,"data":{}}`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, handler, time.Second)
			_, err := client.Initiate(context.Background(), initiateRequest())
			require.Error(t, err)
			assert.True(t, pkgerrors.IsProviderError(err))
		})
	}
}

func TestInitiateTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, 50*time.Millisecond)

	start := time.Now()
	_, err := client.Initiate(context.Background(), initiateRequest())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsProviderError(err))
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestInitiateCancelledContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Initiate(ctx, initiateRequest())
	assert.True(t, pkgerrors.IsProviderError(err))
}

func TestInitiateReturnsWhenContextCancelledInFlight(t *testing.T) {
	release := make(chan struct{})
	received := make(chan struct{}, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case received <- struct{}{}:
		default:
		}
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
	}, 5*time.Second)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-received
		cancel()
	}()

	start := time.Now()
	_, err := client.Initiate(ctx, initiateRequest())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsProviderError(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}
