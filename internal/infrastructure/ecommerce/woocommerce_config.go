package ecommerce

import (
	"errors"
	"time"
)

// WooCommerceConfig holds WooCommerce REST API settings shared by all
// tenants. Per-tenant material (store domain, consumer key and secret,
// webhook secret) arrives with each call via integration.Credentials.
type WooCommerceConfig struct {
	// BaseURL overrides the https://{store-domain} base for tests.
	BaseURL string

	// Timeout for HTTP calls to the store API.
	Timeout time.Duration

	// MaxRetries for transient failures on pull requests.
	MaxRetries int
}

// Validate checks the configuration and applies defaults.
func (c *WooCommerceConfig) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		return errors.New("woocommerce: max retries cannot be negative")
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	return nil
}
