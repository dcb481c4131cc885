package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	outboxapp "github.com/k-code-yt/paystack-payments/internal/application/outbox"
	paymentapp "github.com/k-code-yt/paystack-payments/internal/application/payment"
	"github.com/k-code-yt/paystack-payments/internal/config"
	"github.com/k-code-yt/paystack-payments/internal/domain/outbox"
	"github.com/k-code-yt/paystack-payments/internal/domain/payment"
	"github.com/k-code-yt/paystack-payments/internal/infrastructure/inmemory"
	"github.com/k-code-yt/paystack-payments/internal/infrastructure/paystack"
	"github.com/k-code-yt/paystack-payments/internal/infrastructure/sqlstore"
	"github.com/k-code-yt/paystack-payments/internal/logging"
	httpapi "github.com/k-code-yt/paystack-payments/internal/transport/http"
	pkgdb "github.com/k-code-yt/paystack-payments/pkg/db"
	pkgkafka "github.com/k-code-yt/paystack-payments/pkg/kafka"
	"github.com/sirupsen/logrus"
)

func init() {
	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), ".env")
	if err := godotenv.Load(envPath); err != nil {
		// .env is optional; the process environment wins either way
		_ = godotenv.Load()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Debug)

	repo, store, closeStore, err := openStore(cfg.DB, logger)
	if err != nil {
		logger.WithError(err).Fatal("STORE:OPEN_FAILED")
	}
	defer closeStore()

	client := paystack.NewClient(paystack.Config{
		BaseURL:   cfg.Paystack.BaseURL,
		SecretKey: cfg.Paystack.SecretKey,
		Timeout:   cfg.Paystack.Timeout,
	}, logger)

	svc := paymentapp.NewPaymentService(paymentapp.Config{
		WebhookSecret:       cfg.Paystack.WebhookSecret,
		CallbackURL:         cfg.Paystack.CallbackURL,
		SupportedCurrencies: cfg.SupportedCurrencies,
	}, repo, client, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relayDone := make(chan struct{})
	if err := startRelay(ctx, cfg.Kafka, store, logger, relayDone); err != nil {
		logger.WithError(err).Fatal("OUTBOX:START_FAILED")
	}

	server := httpapi.NewServer(cfg.HTTP, httpapi.NewRouter(httpapi.NewHandlers(svc, logger), logger), logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("HTTP:SERVER_FAILED")
		}
		stop()
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP:SHUTDOWN_FAILED")
	}
	<-relayDone
	logger.Info("SERVER:STOPPED")
}

func openStore(cfg config.DBConfig, logger *logrus.Logger) (payment.Repository, outbox.Store, func(), error) {
	if cfg.Driver == pkgdb.DriverMemory {
		logger.Warn("STORE:IN_MEMORY")
		repo := inmemory.NewPaymentRepository()
		return repo, repo, func() {}, nil
	}

	if cfg.MigrateOnStart {
		if err := pkgdb.MigrateUp(cfg.Driver, cfg.DSN); err != nil {
			return nil, nil, nil, err
		}
		logger.WithField("driver", cfg.Driver).Info("STORE:MIGRATED")
	}

	db, err := pkgdb.NewDBConn(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, nil, err
	}
	events := sqlstore.NewEventRepo(db)
	return sqlstore.NewPaymentRepo(db, events), events, closeDB(db, logger), nil
}

func closeDB(db *sqlx.DB, logger *logrus.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("STORE:CLOSE_FAILED")
		}
	}
}

// startRelay closes done when the relay exits, or at once when it is disabled.
func startRelay(ctx context.Context, cfg config.KafkaConfig, store outbox.Store, logger *logrus.Logger, done chan struct{}) error {
	if len(cfg.Brokers) == 0 {
		logger.Info("OUTBOX:RELAY_DISABLED")
		close(done)
		return nil
	}

	kcfg := pkgkafka.NewKafkaConfig()
	kcfg.Brokers = cfg.Brokers
	kcfg.Topic = cfg.Topic
	kcfg.Encoder = cfg.Encoder

	encoder, err := outboxapp.NewEncoder(kcfg.Encoder)
	if err != nil {
		return err
	}
	producer, err := pkgkafka.NewKafkaProducer(kcfg, logger)
	if err != nil {
		return err
	}

	relay := outboxapp.NewRelay(outboxapp.RelayConfig{
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.BatchSize,
	}, store, producer, encoder, logger)

	go func() {
		defer close(done)
		defer producer.Close()
		relay.Run(ctx)
	}()
	return nil
}
