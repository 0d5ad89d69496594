package ecommerce

import (
	"errors"
	"time"
)

// ShopifyConfig holds Shopify Admin API settings shared by all tenants.
// Per-tenant material (shop domain, access token, webhook secret) arrives
// with each call via integration.Credentials.
type ShopifyConfig struct {
	// APIVersion is the Admin API version path segment, e.g. "2024-10".
	APIVersion string

	// BaseURL overrides the https://{shop-domain} base. Intended for
	// tests pointing the adapter at a local server; leave empty in
	// production so each tenant's shop domain is used.
	BaseURL string

	// Timeout for HTTP calls to the Admin API.
	Timeout time.Duration

	// MaxRetries for transient failures on pull requests.
	MaxRetries int
}

// Validate checks the configuration and applies defaults.
func (c *ShopifyConfig) Validate() error {
	if c.APIVersion == "" {
		c.APIVersion = "2024-10"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		return errors.New("shopify: max retries cannot be negative")
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	return nil
}
