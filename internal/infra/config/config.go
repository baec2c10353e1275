package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"hirely/internal/domain/pricing"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env           string `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr      string `envconfig:"HTTP_ADDR" default:":8080"`
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"memory"`
	SeedFixtures  bool   `envconfig:"SEED_FIXTURES" default:"false"`
	FixturesPath  string `envconfig:"FIXTURES_PATH" default:"data/fixtures.json"`

	Mongo struct {
		URI string `envconfig:"MONGO_URI"`
		DB  string `envconfig:"MONGO_DB" default:"hirely"`
	}

	Postgres struct {
		DSN      string `envconfig:"POSTGRES_DSN"`
		MaxConns int32  `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
	}

	Kafka struct {
		Brokers     []string `envconfig:"KAFKA_BROKERS"`
		TopicPrefix string   `envconfig:"KAFKA_TOPIC_PREFIX"`
		GroupID     string   `envconfig:"KAFKA_GROUP_ID" default:"hirely-notifier"`
		ClientID    string   `envconfig:"KAFKA_CLIENT_ID" default:"hirely"`
	}

	Outbox struct {
		PollInterval time.Duration   `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
		RetryBackoff []time.Duration `envconfig:"RETRY_BACKOFF" default:"1s,5s,30s"`
	}

	IdempotencyTTL time.Duration `envconfig:"IDEMP_TTL" default:"168h"`

	Auth struct {
		JWTSecret string        `envconfig:"AUTH_JWT_SECRET"`
		JWTIssuer string        `envconfig:"AUTH_JWT_ISSUER" default:"hirely"`
		TokenTTL  time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
	}

	Platform struct {
		Currency              string          `envconfig:"PLATFORM_CURRENCY" default:"USD"`
		FeeRate               decimal.Decimal `envconfig:"PLATFORM_FEE_RATE" default:"0.15"`
		PreviewServiceRate    decimal.Decimal `envconfig:"PREVIEW_SERVICE_RATE" default:"0.10"`
		PreviewProtectionRate decimal.Decimal `envconfig:"PREVIEW_PROTECTION_RATE" default:"0.05"`
	}

	Booking struct {
		EnforceAvailability bool `envconfig:"BOOKING_ENFORCE_AVAILABILITY" default:"false"`
	}
}

// Load parses configuration from the current environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.Platform.Currency = strings.ToUpper(strings.TrimSpace(cfg.Platform.Currency))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo driver")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if len(c.Platform.Currency) != 3 {
		return fmt.Errorf("PLATFORM_CURRENCY must be a 3-letter code, got %q", c.Platform.Currency)
	}
	for key, rate := range map[string]decimal.Decimal{
		"PLATFORM_FEE_RATE":       c.Platform.FeeRate,
		"PREVIEW_SERVICE_RATE":    c.Platform.PreviewServiceRate,
		"PREVIEW_PROTECTION_RATE": c.Platform.PreviewProtectionRate,
	} {
		if rate.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}

// RequireKafka is checked by processes that cannot run without a broker.
func (c *Config) RequireKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	return nil
}

// Rates builds the pricing policies from the configured fee rates.
func (c *Config) Rates() pricing.Rates {
	return pricing.Rates{
		Booking: pricing.FeePolicy{Name: "booking", PlatformRate: c.Platform.FeeRate},
		Preview: pricing.PreviewPolicy{
			Name:           "preview",
			ServiceRate:    c.Platform.PreviewServiceRate,
			ProtectionRate: c.Platform.PreviewProtectionRate,
		},
	}
}
