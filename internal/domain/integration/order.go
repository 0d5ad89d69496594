package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Order Errors
// ---------------------------------------------------------------------------

var (
	ErrOrderInvalidOrganization = errors.New("integration: order requires an organization ID")
	ErrOrderInvalidExternalID   = errors.New("integration: order requires a platform order ID")
)

// ---------------------------------------------------------------------------
// Order Entity
// ---------------------------------------------------------------------------

// OrderItem is one line of an order. Items are owned by their order and
// are removed with it.
type OrderItem struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	// ProductID references the internal product resolved through the
	// variant ref index. Nil when the platform variant is unknown here;
	// the line is still persisted with its descriptive fields.
	ProductID         *uuid.UUID
	ExternalVariantID string
	Title             string
	SKU               string
	Quantity          int
	UnitPrice         decimal.Decimal
}

// Order is the internal order entity reconciled from platform data,
// keyed externally by (organization, platform, PlatformOrderID).
type Order struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	Platform        PlatformCode
	PlatformOrderID string
	OrderNumber     string
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Currency        string
	TotalAmount     decimal.Decimal
	CustomerEmail   string
	CustomerName    string
	Items           []OrderItem
	ShippingAddress *ShippingAddress
	Metadata        map[string]any
	PlacedAt        time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewOrder creates an order shell; callers apply normalized data next.
func NewOrder(organizationID uuid.UUID, platform PlatformCode, platformOrderID string) (*Order, error) {
	if organizationID == uuid.Nil {
		return nil, ErrOrderInvalidOrganization
	}
	if platformOrderID == "" {
		return nil, ErrOrderInvalidExternalID
	}

	now := time.Now()
	return &Order{
		ID:              uuid.New(),
		OrganizationID:  organizationID,
		Platform:        platform,
		PlatformOrderID: platformOrderID,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ApplyNormalized overwrites the order's synced fields from a normalized
// payload. Items are not touched here; item reconciliation is a separate
// policy decision.
func (o *Order) ApplyNormalized(n *NormalizedOrder) {
	o.OrderNumber = n.OrderNumber
	o.Status = n.Status
	o.PaymentStatus = n.PaymentStatus
	o.Currency = n.Currency
	o.TotalAmount = n.TotalAmount
	o.CustomerEmail = n.CustomerEmail
	o.CustomerName = n.CustomerName
	o.ShippingAddress = n.ShippingAddress
	o.Metadata = n.Metadata
	if !n.PlacedAt.IsZero() {
		o.PlacedAt = n.PlacedAt
	}
	o.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// Repository Interface
// ---------------------------------------------------------------------------

// OrderRepository persists orders with their items.
type OrderRepository interface {
	// Save persists a new order together with its items
	Save(ctx context.Context, o *Order) error

	// Update persists changes to an existing order. When replaceItems is
	// true the stored items are replaced with o.Items; otherwise items
	// are left as they are.
	Update(ctx context.Context, o *Order, replaceItems bool) error

	// Delete removes an order and its items.
	// Returns ErrOrderNotFound if absent.
	Delete(ctx context.Context, organizationID, id uuid.UUID) error

	// FindByID returns an order with items by internal id.
	// Returns ErrOrderNotFound if absent.
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*Order, error)

	// FindByPlatformOrderID returns an order by its platform key.
	// Returns ErrOrderNotFound if absent.
	FindByPlatformOrderID(ctx context.Context, organizationID uuid.UUID, platform PlatformCode, platformOrderID string) (*Order, error)
}
