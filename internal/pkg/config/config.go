// Package config loads gateway configuration from the environment with the
// STOREFRONT_ prefix, e.g. STOREFRONT_BACKEND_BASE_URL.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HTTPAddr is the listen address of the gateway.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// BackendBaseURL is the pharmacy REST backend, including the /api prefix.
	BackendBaseURL string `envconfig:"BACKEND_BASE_URL" default:"http://localhost:5000/api"`

	// ProcessorBaseURL and ProcessorSecretKey configure the card payment
	// processor. An empty secret key switches the gateway to the fake
	// confirmer for local development.
	ProcessorBaseURL   string `envconfig:"PROCESSOR_BASE_URL" default:"https://api.stripe.com"`
	ProcessorSecretKey string `envconfig:"PROCESSOR_SECRET_KEY"`

	// RedisAddr backs the cart/wizard/session snapshot stores and the
	// catalog cache.
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	// JournalPath is the SQLite file for the checkout attempt log. Empty
	// disables journaling.
	JournalPath string `envconfig:"JOURNAL_PATH" default:"./data/checkout.db"`

	CartTTL    time.Duration `envconfig:"CART_TTL" default:"720h"`
	WizardTTL  time.Duration `envconfig:"WIZARD_TTL" default:"1h"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	CatalogTTL time.Duration `envconfig:"CATALOG_TTL" default:"60s"`
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("storefront", &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}
