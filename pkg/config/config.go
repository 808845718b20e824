package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every process-level setting. It is parsed once at startup
// and injected through fx; nothing else reads the environment directly.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	PostgresURL string `env:"POSTGRES_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Environment string `env:"APP_ENV" envDefault:"production"`

	Stripe StripeConfig
	SMTP   SMTPConfig

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

// StripeConfig holds the billing gateway credentials and the tier price ids.
// Price ids live here, not in code, so staging and production can point at
// different Stripe products.
type StripeConfig struct {
	APIKey        string `env:"STRIPE_API_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	SuccessURL    string `env:"STRIPE_SUCCESS_URL" envDefault:"https://arcanum.app/billing/success"`
	CancelURL     string `env:"STRIPE_CANCEL_URL" envDefault:"https://arcanum.app/billing/cancel"`

	PriceBasic string `env:"STRIPE_PRICE_BASIC"`
	PricePro   string `env:"STRIPE_PRICE_PRO"`
	PriceVIP   string `env:"STRIPE_PRICE_VIP"`
}

// SMTPConfig mirrors the mail service settings.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@arcanum.app"`
	FromName string `env:"SMTP_FROM_NAME" envDefault:"Arcanum"`
}

// Load reads .env if present and parses the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production error
// redaction (no internal detail in API responses).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
