package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is loaded once in main and handed to the services that need it.
type Config struct {
	Env  string
	Port string

	DSN       string
	JWTSecret string

	// --- Pricing & Checkout ---
	TaxRate        decimal.Decimal
	Currency       string
	PaymentTimeout time.Duration
	DeliveryETA    time.Duration
	PickupETA      time.Duration

	CORSOrigins []string

	// --- Optional integrations (empty disables the feature) ---
	StripeSecretKey string
	RedisAddr       string
	KafkaBrokers    []string
	GeminiAPIKey    string
	GeminiModel     string
}

// Load reads a .env file when one exists and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DSN:             os.Getenv("DB_DSN_PRIMARY"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		Currency:        strings.ToLower(getEnv("CURRENCY", "usd")),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
	}

	var err error
	if cfg.TaxRate, err = decimal.NewFromString(getEnv("TAX_RATE", "0.10")); err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("invalid TAX_RATE: must not be negative")
	}
	if cfg.PaymentTimeout, err = getDuration("PAYMENT_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.DeliveryETA, err = getDuration("DELIVERY_ETA", 45*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PickupETA, err = getDuration("PICKUP_ETA", 20*time.Minute); err != nil {
		return nil, err
	}

	if cfg.DSN == "" {
		return nil, fmt.Errorf("DB_DSN_PRIMARY is not set")
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is not set")
		}
		cfg.JWTSecret = "dev-only-secret"
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getDuration accepts Go durations ("30s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
