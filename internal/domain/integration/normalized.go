package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Normalized value objects
// ---------------------------------------------------------------------------
//
// Adapters translate raw platform payloads into these shapes before any
// reconciliation runs. Monetary amounts are parsed from the platform's
// decimal strings into decimal.Decimal; float64 never touches money.
// Fields without an internal home go into the Metadata bag so nothing the
// platform sent is silently dropped.

// NormalizedVariant is one purchasable variant of a platform product.
type NormalizedVariant struct {
	// ExternalID is the platform's variant id. Order line items reference
	// variants by this id.
	ExternalID string
	SKU        string
	Title      string
	Price      decimal.Decimal
	Stock      int
}

// NormalizedProduct is the platform-neutral product shape.
type NormalizedProduct struct {
	// ExternalID is the platform's product id, unique per
	// (organization, platform).
	ExternalID  string
	Name        string
	Description string
	// SKU falls back to the product handle, then the external id, when the
	// platform payload carries no explicit SKU.
	SKU    string
	Price  decimal.Decimal
	Stock  int
	Images []string
	Active bool
	// Variants preserves the platform's ordering.
	Variants []NormalizedVariant
	// Metadata holds source fields with no internal equivalent.
	Metadata  map[string]any
	UpdatedAt time.Time
}

// ShippingAddress is an optional order destination. A nil address on a
// normalized order is valid; digital goods ship nowhere.
type ShippingAddress struct {
	Name     string
	Line1    string
	Line2    string
	City     string
	Province string
	Country  string
	Zip      string
	Phone    string
}

// NormalizedOrderItem is one line of a platform order.
type NormalizedOrderItem struct {
	// ExternalVariantID links the line to a product variant on the
	// platform. It may reference a variant this system has never seen.
	ExternalVariantID string
	Title             string
	SKU               string
	Quantity          int
	UnitPrice         decimal.Decimal
}

// NormalizedOrder is the platform-neutral order shape.
type NormalizedOrder struct {
	// ExternalID is the platform's order id, unique per
	// (organization, platform).
	ExternalID    string
	OrderNumber   string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Currency      string
	TotalAmount   decimal.Decimal
	CustomerEmail string
	CustomerName  string
	// Items preserves the platform's line ordering.
	Items           []NormalizedOrderItem
	ShippingAddress *ShippingAddress
	Metadata        map[string]any
	PlacedAt        time.Time
	UpdatedAt       time.Time
}
