package httpapi

import (
	"net/http"
	"time"

	"github.com/k-code-yt/paystack-payments/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	apiPrefix     = "/api/v1"
	healthTimeout = 2 * time.Second
)

// NewRouter wires the payment API. Every payment route answers with and
// without the trailing slash.
func NewRouter(h *Handlers, logger logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()

	handle := func(method, path string, fn http.HandlerFunc) {
		mux.HandleFunc(method+" "+apiPrefix+path+"/{$}", fn)
		mux.HandleFunc(method+" "+apiPrefix+path, fn)
	}

	handle(http.MethodPost, "/payments", h.createPayment)
	handle(http.MethodGet, "/payments/{id}", h.getPayment)
	handle(http.MethodPost, "/payments/webhook/paystack", h.paystackWebhook)

	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", metrics.Handler())

	return recoverMiddleware(logger, loggingMiddleware(logger, mux))
}
