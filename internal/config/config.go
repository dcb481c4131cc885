package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	pkgdb "github.com/k-code-yt/paystack-payments/pkg/db"
	pkgkafka "github.com/k-code-yt/paystack-payments/pkg/kafka"
	"github.com/spf13/cast"
)

type Config struct {
	HTTP                HTTPConfig
	Paystack            PaystackConfig
	DB                  DBConfig
	Kafka               KafkaConfig
	Log                 LogConfig
	Debug               bool
	SupportedCurrencies []string
}

type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PaystackConfig struct {
	BaseURL       string
	SecretKey     string
	PublicKey     string
	WebhookSecret string
	Timeout       time.Duration
	CallbackURL   string
}

type DBConfig struct {
	Driver         string
	DSN            string
	MigrateOnStart bool
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Encoder      pkgkafka.KafkaEncoder
	PollInterval time.Duration
	BatchSize    int
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8000
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 40 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultPaystackURL     = "https://api.paystack.co"
	defaultPaystackTimeout = 30 * time.Second
	defaultBaseURL         = "http://localhost:8000"
	defaultSQLitePath      = "payments.db"
	defaultDBName          = "payments"
	defaultKafkaTopic      = "payments.events"
	defaultPollInterval    = 5 * time.Second
	defaultBatchSize       = 100
	defaultCurrencies      = "NGN,USD,GHS"

	webhookPath = "/api/v1/payments/webhook/paystack/"
)

// Load reads the environment. Invalid values are errors, not silently defaulted.
func Load() (Config, error) {
	var errs []error
	p := &parser{errs: &errs}

	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			Port:            p.int("SERVER_PORT", defaultPort),
			ReadTimeout:     p.duration("SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    p.duration("SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			ShutdownTimeout: p.duration("SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Paystack: PaystackConfig{
			BaseURL:   strings.TrimRight(valueOrDefault("PAYSTACK_BASE_URL", defaultPaystackURL), "/"),
			SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
			PublicKey: os.Getenv("PAYSTACK_PUBLIC_KEY"),
			Timeout:   p.duration("PAYSTACK_TIMEOUT", defaultPaystackTimeout),
		},
		DB: loadDB(p),
		Kafka: KafkaConfig{
			Brokers:      splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:        valueOrDefault("KAFKA_TOPIC", defaultKafkaTopic),
			PollInterval: p.duration("OUTBOX_POLL_INTERVAL", defaultPollInterval),
			BatchSize:    p.int("OUTBOX_BATCH_SIZE", defaultBatchSize),
		},
		Log: LogConfig{
			Level:  valueOrDefault("LOG_LEVEL", "info"),
			Format: valueOrDefault("LOG_FORMAT", "text"),
		},
		Debug:               p.bool("DEBUG", false),
		SupportedCurrencies: splitList(strings.ToUpper(valueOrDefault("SUPPORTED_CURRENCIES", defaultCurrencies))),
	}

	cfg.Paystack.WebhookSecret = valueOrDefault("PAYSTACK_WEBHOOK_SECRET", cfg.Paystack.SecretKey)
	cfg.Paystack.CallbackURL = valueOrDefault("PAYSTACK_CALLBACK_URL",
		strings.TrimRight(valueOrDefault("BASE_URL", defaultBaseURL), "/")+webhookPath)

	encoder, err := pkgkafka.ParseEncoder(os.Getenv("KAFKA_ENCODER"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Kafka.Encoder = encoder

	if cfg.Paystack.SecretKey == "" {
		errs = append(errs, errors.New("PAYSTACK_SECRET_KEY is required"))
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", cfg.HTTP.Port))
	}
	if len(cfg.SupportedCurrencies) == 0 {
		errs = append(errs, errors.New("SUPPORTED_CURRENCIES must list at least one currency"))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// LoadDB reads only the store settings, for tools that never call the provider.
func LoadDB() (DBConfig, error) {
	var errs []error
	cfg := loadDB(&parser{errs: &errs})
	return cfg, errors.Join(errs...)
}

func loadDB(p *parser) DBConfig {
	cfg := DBConfig{
		Driver:         valueOrDefault("DB_DRIVER", pkgdb.DriverPostgres),
		MigrateOnStart: p.bool("DB_MIGRATE_ON_START", false),
	}

	switch cfg.Driver {
	case pkgdb.DriverPostgres:
		cfg.DSN = valueOrDefault("DATABASE_URL", pkgdb.NewPostgresConfig(defaultDBName).URL())
	case pkgdb.DriverSQLite:
		cfg.DSN = valueOrDefault("DATABASE_URL", defaultSQLitePath)
	case pkgdb.DriverMemory:
	default:
		*p.errs = append(*p.errs, fmt.Errorf("invalid DB_DRIVER %q: want postgres, sqlite3 or memory", cfg.Driver))
	}
	return cfg
}

type parser struct {
	errs *[]error
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := cast.ToDurationE(v)
	if err != nil || d <= 0 {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s value %q", key, v))
		return fallback
	}
	return d
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s value %q: %w", key, v, err))
		return fallback
	}
	return n
}

func (p *parser) bool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s value %q: %w", key, v, err))
		return fallback
	}
	return b
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
