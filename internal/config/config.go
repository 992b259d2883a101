// Package config handles application configuration via environment variables.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configurable values for the app.
type Config struct {
	Env                 string
	Port                string
	StripeSecretKey     string
	StripeWebhookSecret string
	SendGridAPIKey      string
	EmailFrom           string
	FrontendURL         string
	AllowedOrigins      []string
	InternalRecipients  []string
	Currency            string
	StripeProductID     string
}

// Load reads environment variables and populates a Config struct. A .env
// file is honored when present so local runs match deployment.
func Load() *Config {
	_ = godotenv.Load()

	frontend := getEnv("FRONTEND_URL", "http://localhost:3000")
	origins := append([]string{frontend}, splitList(os.Getenv("ALLOWED_ORIGINS"))...)

	return &Config{
		Env:                 getEnv("ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:           getEnv("EMAIL_FROM", "donations@example.org"),
		FrontendURL:         frontend,
		AllowedOrigins:      origins,
		InternalRecipients:  splitList(os.Getenv("NOTIFY_EMAILS")),
		Currency:            getEnv("CURRENCY", "usd"),
		StripeProductID:     os.Getenv("STRIPE_PRODUCT_ID"),
	}
}

// Production reports whether real email delivery should happen.
func (c *Config) Production() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
