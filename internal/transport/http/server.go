package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/k-code-yt/paystack-payments/internal/config"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
}

func NewServer(cfg config.HTTPConfig, handler http.Handler, logger logrus.FieldLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("HTTP:SERVER_STARTING")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP:SERVER_SHUTTING_DOWN")
	return s.httpServer.Shutdown(ctx)
}
