package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `validate:"required,oneof=development stage production"`
	Http Http

	Cors CORS `validate:"required"`

	Postgres Postgres `validate:"required"`

	JWT JWT `validate:"required"`

	Shipping Shipping `validate:"required"`

	Bkash Gateway `validate:"required"`
	Nagad Gateway `validate:"required"`

	Kafka Kafka `validate:"required"`

	// Redis is optional; when Addr is set the gateway token cache is shared
	// across instances instead of process-local.
	Redis Redis

	// FrontendURL is the base for payment success/failure redirects.
	FrontendURL string `validate:"required,url"`
}

type Http struct {
	Host string `validate:"required,hostname|ip"`
	Port string `validate:"required,gt=0,lte=65535"`
}

type CORS struct {
	AllowedOrigins []string `validate:"required,min=1,dive,url"`
}

type Postgres struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `validate:"required,gt=0,lte=65535"`
	DBName   string `validate:"required"`
	User     string `validate:"required"`
	Password string `validate:"required"`

	SSLMode string `validate:"required,oneof=disable require verify-ca verify-full"`

	MaxOpenConns    int           `validate:"gte=1"`
	MaxIdleConns    int           `validate:"gte=0"`
	ConnMaxLifetime time.Duration `validate:"gte=0"`
}

type JWT struct {
	Secret string `validate:"required,min=16"`
}

type Shipping struct {
	// MetroToken selects the low fee tier when the shipping district
	// contains it case-insensitively.
	MetroToken string `validate:"required"`
	MetroFee   int64  `validate:"gte=0"`
	OutsideFee int64  `validate:"gte=0"`
}

type Gateway struct {
	BaseURL       string `validate:"required,url"`
	AppKey        string `validate:"required"`
	AppSecret     string `validate:"required"`
	Username      string
	Password      string
	MerchantID    string
	WebhookSecret string `validate:"required"`

	// TokenTTL is kept slightly short of the provider's real expiry.
	TokenTTL time.Duration `validate:"gt=0"`
	Timeout  time.Duration `validate:"gt=0"`
}

type Kafka struct {
	Brokers      []string      `validate:"required,min=1,dive,hostname_port"`
	OrdersTopic  string        `validate:"required"`
	BatchTimeout time.Duration `validate:"gte=0"`
}

type Redis struct {
	Addr string
}

func New() Config {
	return Config{
		Env: env("ENV", "development"),

		Http: Http{
			Host: env("HOST", "localhost"),
			Port: env("PORT", "8080"),
		},

		Cors: CORS{
			AllowedOrigins: strings.Split(env("ALLOWED_CORS_ORIGINS", "http://localhost:3000"), ","),
		},

		Postgres: Postgres{
			Port:     envInt("POSTGRES_PORT", 5432),
			Host:     env("POSTGRES_HOST", "localhost"),
			DBName:   env("POSTGRES_DB", "storefront"),
			User:     env("POSTGRES_USER", ""),
			Password: env("POSTGRES_PASSWORD", ""),

			SSLMode: env("POSTGRES_SSL_MODE", "disable"),

			MaxOpenConns:    envInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("POSTGRES_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: envDuration("POSTGRES_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		JWT: JWT{
			Secret: env("JWT_SECRET", ""),
		},

		Shipping: Shipping{
			MetroToken: env("SHIPPING_METRO_TOKEN", "dhaka"),
			MetroFee:   envInt64("SHIPPING_METRO_FEE", 60),
			OutsideFee: envInt64("SHIPPING_OUTSIDE_FEE", 120),
		},

		Bkash: Gateway{
			BaseURL:       env("BKASH_BASE_URL", "https://tokenized.sandbox.bka.sh/v1.2.0-beta"),
			AppKey:        env("BKASH_APP_KEY", ""),
			AppSecret:     env("BKASH_APP_SECRET", ""),
			Username:      env("BKASH_USERNAME", ""),
			Password:      env("BKASH_PASSWORD", ""),
			WebhookSecret: env("BKASH_WEBHOOK_SECRET", ""),
			TokenTTL:      envDuration("BKASH_TOKEN_TTL", 55*time.Minute),
			Timeout:       envDuration("BKASH_TIMEOUT", 15*time.Second),
		},

		Nagad: Gateway{
			BaseURL:       env("NAGAD_BASE_URL", "https://api.mynagad.com"),
			AppKey:        env("NAGAD_MERCHANT_NUMBER", ""),
			AppSecret:     env("NAGAD_PRIVATE_KEY", ""),
			MerchantID:    env("NAGAD_MERCHANT_ID", ""),
			WebhookSecret: env("NAGAD_WEBHOOK_SECRET", ""),
			TokenTTL:      envDuration("NAGAD_TOKEN_TTL", 55*time.Minute),
			Timeout:       envDuration("NAGAD_TIMEOUT", 15*time.Second),
		},

		Kafka: Kafka{
			Brokers:      strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
			OrdersTopic:  env("KAFKA_ORDERS_TOPIC", "storefront.orders"),
			BatchTimeout: envDuration("KAFKA_BATCH_TIMEOUT", 10*time.Millisecond),
		},

		Redis: Redis{
			Addr: env("REDIS_ADDR", ""),
		},

		FrontendURL: env("FRONTEND_URL", "http://localhost:3000"),
	}
}

func (c Config) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func env(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if len(fallback) == 0 {
		return ""
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}
