package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Product Errors
// ---------------------------------------------------------------------------

var (
	ErrProductInvalidOrganization = errors.New("integration: product requires an organization ID")
	ErrProductInvalidName         = errors.New("integration: product name is required")
)

// ---------------------------------------------------------------------------
// Product Entity
// ---------------------------------------------------------------------------

// PlatformSyncState records a product's standing on one platform.
type PlatformSyncState struct {
	Synced     bool       `json:"synced"`
	ProductID  string     `json:"productId,omitempty"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
}

// Product is the internal catalog entity reconciled from platform data.
// A product's identity on a platform lives in PlatformSync plus the
// platform ref index; the product itself is platform-neutral.
type Product struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Description    string
	SKU            string
	Price          decimal.Decimal
	Stock          int
	Images         []string
	Active         bool
	// PlatformSync tracks, per platform, whether this product exists
	// there and under which platform id.
	PlatformSync map[PlatformCode]PlatformSyncState
	Metadata     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProduct creates a product owned by an organization.
func NewProduct(organizationID uuid.UUID, name string) (*Product, error) {
	if organizationID == uuid.Nil {
		return nil, ErrProductInvalidOrganization
	}
	if name == "" {
		return nil, ErrProductInvalidName
	}

	now := time.Now()
	return &Product{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Name:           name,
		Active:         true,
		PlatformSync:   make(map[PlatformCode]PlatformSyncState),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyNormalized overwrites the product's synced fields from a normalized
// payload. Full overwrite, last write wins; there is no field-level merge.
func (p *Product) ApplyNormalized(n *NormalizedProduct) {
	p.Name = n.Name
	p.Description = n.Description
	p.SKU = n.SKU
	p.Price = n.Price
	p.Stock = n.Stock
	p.Images = n.Images
	p.Active = n.Active
	p.Metadata = n.Metadata
	p.UpdatedAt = time.Now()
}

// MarkSynced records a successful push or pull against a platform.
func (p *Product) MarkSynced(platform PlatformCode, platformProductID string, at time.Time) {
	if p.PlatformSync == nil {
		p.PlatformSync = make(map[PlatformCode]PlatformSyncState)
	}
	p.PlatformSync[platform] = PlatformSyncState{
		Synced:     true,
		ProductID:  platformProductID,
		LastSyncAt: &at,
	}
	p.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// ProductPlatformRef
// ---------------------------------------------------------------------------

// RefKind distinguishes product-level from variant-level platform ids.
type RefKind string

const (
	RefKindProduct RefKind = "product"
	RefKindVariant RefKind = "variant"
)

// ProductPlatformRef is an index row linking a platform's product or
// variant id to an internal product. Order reconciliation resolves line
// items through this index instead of scanning product payloads.
type ProductPlatformRef struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Platform       PlatformCode
	Kind           RefKind
	ExternalID     string
	ProductID      uuid.UUID
	CreatedAt      time.Time
}

// ---------------------------------------------------------------------------
// Repository Interface
// ---------------------------------------------------------------------------

// ProductRepository persists products and their platform refs.
type ProductRepository interface {
	// Save persists a new product
	Save(ctx context.Context, p *Product) error

	// Update persists changes to an existing product
	Update(ctx context.Context, p *Product) error

	// Delete removes a product. Returns ErrProductNotFound if absent.
	Delete(ctx context.Context, organizationID, id uuid.UUID) error

	// FindByID returns a product by internal id.
	// Returns ErrProductNotFound if absent.
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*Product, error)

	// FindByExternalID resolves a platform product id to the internal
	// product via the ref index. Returns ErrProductNotFound if absent.
	FindByExternalID(ctx context.Context, organizationID uuid.UUID, platform PlatformCode, externalID string) (*Product, error)

	// ResolveVariantRef resolves a platform variant id to the internal
	// product id. Returns uuid.Nil and no error when the variant is
	// unknown; order reconciliation treats that as an unresolved line.
	ResolveVariantRef(ctx context.Context, organizationID uuid.UUID, platform PlatformCode, externalVariantID string) (uuid.UUID, error)

	// UpsertPlatformRefs replaces the platform refs of a product for one
	// platform with the given set.
	UpsertPlatformRefs(ctx context.Context, productID uuid.UUID, refs []ProductPlatformRef) error

	// ListUnsyncedForPlatform returns products with no synced state on a
	// platform, for export runs.
	ListUnsyncedForPlatform(ctx context.Context, organizationID uuid.UUID, platform PlatformCode, limit int) ([]*Product, error)
}
