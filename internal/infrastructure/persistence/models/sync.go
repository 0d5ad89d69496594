package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// IntegrationModel
// ---------------------------------------------------------------------------

// IntegrationModel is the persistence model for the Integration domain
// entity. ShopDomain is denormalized out of the credentials blob so
// webhook tenant resolution can hit an index.
type IntegrationModel struct {
	ID              uuid.UUID                `gorm:"type:uuid;primary_key"`
	OrganizationID  uuid.UUID                `gorm:"type:uuid;not null;index:idx_integrations_org"`
	Platform        integration.PlatformCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_integrations_shop,priority:1"`
	ShopDomain      string                   `gorm:"type:varchar(255);not null;uniqueIndex:idx_integrations_shop,priority:2"`
	Name            string                   `gorm:"type:varchar(255)"`
	Active          bool                     `gorm:"not null;default:true"`
	CredentialsJSON string                   `gorm:"type:jsonb;column:credentials"`
	ConfigJSON      string                   `gorm:"type:jsonb;column:config"`
	SyncStatus      integration.SyncStatus   `gorm:"type:varchar(20);not null;default:'idle'"`
	LastSyncAt      *time.Time
	LastSyncError   string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IntegrationModel) TableName() string {
	return "integrations"
}

// ToDomain converts the persistence model to a domain Integration entity.
func (m *IntegrationModel) ToDomain() *integration.Integration {
	it := &integration.Integration{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Platform:       m.Platform,
		Name:           m.Name,
		Active:         m.Active,
		SyncStatus:     m.SyncStatus,
		LastSyncAt:     m.LastSyncAt,
		LastSyncError:  m.LastSyncError,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.CredentialsJSON != "" {
		_ = json.Unmarshal([]byte(m.CredentialsJSON), &it.Credentials)
	}
	if m.ConfigJSON != "" {
		_ = json.Unmarshal([]byte(m.ConfigJSON), &it.Config)
	}
	return it
}

// FromDomain populates the persistence model from a domain Integration entity.
func (m *IntegrationModel) FromDomain(it *integration.Integration) {
	m.ID = it.ID
	m.OrganizationID = it.OrganizationID
	m.Platform = it.Platform
	m.ShopDomain = it.Credentials.ShopDomain
	m.Name = it.Name
	m.Active = it.Active
	m.SyncStatus = it.SyncStatus
	m.LastSyncAt = it.LastSyncAt
	m.LastSyncError = it.LastSyncError
	m.CreatedAt = it.CreatedAt
	m.UpdatedAt = it.UpdatedAt

	if data, err := json.Marshal(it.Credentials); err == nil {
		m.CredentialsJSON = string(data)
	}
	if data, err := json.Marshal(it.Config); err == nil {
		m.ConfigJSON = string(data)
	}
}

// ---------------------------------------------------------------------------
// ProductModel
// ---------------------------------------------------------------------------

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrganizationID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_products_org"`
	Name             string          `gorm:"type:varchar(255);not null"`
	Description      string          `gorm:"type:text"`
	SKU              string          `gorm:"type:varchar(100);index:idx_products_sku"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Stock            int             `gorm:"not null;default:0"`
	ImagesJSON       string          `gorm:"type:jsonb;column:images"`
	Active           bool            `gorm:"not null;default:true"`
	PlatformSyncJSON string          `gorm:"type:jsonb;column:platform_sync"`
	MetadataJSON     string          `gorm:"type:jsonb;column:metadata"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *integration.Product {
	p := &integration.Product{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Description:    m.Description,
		SKU:            m.SKU,
		Price:          m.Price,
		Stock:          m.Stock,
		Active:         m.Active,
		PlatformSync:   make(map[integration.PlatformCode]integration.PlatformSyncState),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.ImagesJSON != "" {
		_ = json.Unmarshal([]byte(m.ImagesJSON), &p.Images)
	}
	if m.PlatformSyncJSON != "" {
		_ = json.Unmarshal([]byte(m.PlatformSyncJSON), &p.PlatformSync)
	}
	if m.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(m.MetadataJSON), &p.Metadata)
	}
	return p
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *integration.Product) {
	m.ID = p.ID
	m.OrganizationID = p.OrganizationID
	m.Name = p.Name
	m.Description = p.Description
	m.SKU = p.SKU
	m.Price = p.Price
	m.Stock = p.Stock
	m.Active = p.Active
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt

	if len(p.Images) > 0 {
		if data, err := json.Marshal(p.Images); err == nil {
			m.ImagesJSON = string(data)
		}
	} else {
		m.ImagesJSON = ""
	}
	if len(p.PlatformSync) > 0 {
		if data, err := json.Marshal(p.PlatformSync); err == nil {
			m.PlatformSyncJSON = string(data)
		}
	} else {
		m.PlatformSyncJSON = ""
	}
	if len(p.Metadata) > 0 {
		if data, err := json.Marshal(p.Metadata); err == nil {
			m.MetadataJSON = string(data)
		}
	} else {
		m.MetadataJSON = ""
	}
}

// ---------------------------------------------------------------------------
// ProductPlatformRefModel
// ---------------------------------------------------------------------------

// ProductPlatformRefModel is the persistence model for the platform ref
// index. The unique lookup index makes external id resolution a single
// indexed read.
type ProductPlatformRefModel struct {
	ID             uuid.UUID                `gorm:"type:uuid;primary_key"`
	OrganizationID uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_platform_refs_lookup,priority:1"`
	Platform       integration.PlatformCode `gorm:"type:varchar(20);not null;uniqueIndex:idx_platform_refs_lookup,priority:2"`
	Kind           integration.RefKind      `gorm:"type:varchar(10);not null;uniqueIndex:idx_platform_refs_lookup,priority:3"`
	ExternalID     string                   `gorm:"type:varchar(100);not null;uniqueIndex:idx_platform_refs_lookup,priority:4"`
	ProductID      uuid.UUID                `gorm:"type:uuid;not null;index:idx_platform_refs_product"`
	CreatedAt      time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductPlatformRefModel) TableName() string {
	return "product_platform_refs"
}

// ToDomain converts the persistence model to a domain ProductPlatformRef.
func (m *ProductPlatformRefModel) ToDomain() integration.ProductPlatformRef {
	return integration.ProductPlatformRef{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Platform:       m.Platform,
		Kind:           m.Kind,
		ExternalID:     m.ExternalID,
		ProductID:      m.ProductID,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductPlatformRef.
func (m *ProductPlatformRefModel) FromDomain(ref integration.ProductPlatformRef) {
	m.ID = ref.ID
	m.OrganizationID = ref.OrganizationID
	m.Platform = ref.Platform
	m.Kind = ref.Kind
	m.ExternalID = ref.ExternalID
	m.ProductID = ref.ProductID
	m.CreatedAt = ref.CreatedAt
}

// ---------------------------------------------------------------------------
// OrderModel
// ---------------------------------------------------------------------------

// OrderModel is the persistence model for the Order domain entity.
// Items live in their own table and are loaded by the repository.
type OrderModel struct {
	ID                  uuid.UUID                 `gorm:"type:uuid;primary_key"`
	OrganizationID      uuid.UUID                 `gorm:"type:uuid;not null;uniqueIndex:idx_orders_platform_key,priority:1"`
	Platform            integration.PlatformCode  `gorm:"type:varchar(20);not null;uniqueIndex:idx_orders_platform_key,priority:2"`
	PlatformOrderID     string                    `gorm:"type:varchar(100);not null;uniqueIndex:idx_orders_platform_key,priority:3"`
	OrderNumber         string                    `gorm:"type:varchar(100)"`
	Status              integration.OrderStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentStatus       integration.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Currency            string                    `gorm:"type:varchar(3)"`
	TotalAmount         decimal.Decimal           `gorm:"type:numeric(12,2);not null;default:0"`
	CustomerEmail       string                    `gorm:"type:varchar(255)"`
	CustomerName        string                    `gorm:"type:varchar(255)"`
	ShippingAddressJSON string                    `gorm:"type:jsonb;column:shipping_address"`
	MetadataJSON        string                    `gorm:"type:jsonb;column:metadata"`
	PlacedAt            time.Time
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity
// without items.
func (m *OrderModel) ToDomain() *integration.Order {
	o := &integration.Order{
		ID:              m.ID,
		OrganizationID:  m.OrganizationID,
		Platform:        m.Platform,
		PlatformOrderID: m.PlatformOrderID,
		OrderNumber:     m.OrderNumber,
		Status:          m.Status,
		PaymentStatus:   m.PaymentStatus,
		Currency:        m.Currency,
		TotalAmount:     m.TotalAmount,
		CustomerEmail:   m.CustomerEmail,
		CustomerName:    m.CustomerName,
		PlacedAt:        m.PlacedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ShippingAddressJSON != "" {
		var addr integration.ShippingAddress
		if err := json.Unmarshal([]byte(m.ShippingAddressJSON), &addr); err == nil {
			o.ShippingAddress = &addr
		}
	}
	if m.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(m.MetadataJSON), &o.Metadata)
	}
	return o
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *integration.Order) {
	m.ID = o.ID
	m.OrganizationID = o.OrganizationID
	m.Platform = o.Platform
	m.PlatformOrderID = o.PlatformOrderID
	m.OrderNumber = o.OrderNumber
	m.Status = o.Status
	m.PaymentStatus = o.PaymentStatus
	m.Currency = o.Currency
	m.TotalAmount = o.TotalAmount
	m.CustomerEmail = o.CustomerEmail
	m.CustomerName = o.CustomerName
	m.PlacedAt = o.PlacedAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt

	if o.ShippingAddress != nil {
		if data, err := json.Marshal(o.ShippingAddress); err == nil {
			m.ShippingAddressJSON = string(data)
		}
	} else {
		m.ShippingAddressJSON = ""
	}
	if len(o.Metadata) > 0 {
		if data, err := json.Marshal(o.Metadata); err == nil {
			m.MetadataJSON = string(data)
		}
	} else {
		m.MetadataJSON = ""
	}
}

// ---------------------------------------------------------------------------
// OrderItemModel
// ---------------------------------------------------------------------------

// OrderItemModel is the persistence model for one order line.
type OrderItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_order_items_order"`
	ProductID         *uuid.UUID      `gorm:"type:uuid;index:idx_order_items_product"`
	ExternalVariantID string          `gorm:"type:varchar(100)"`
	Title             string          `gorm:"type:varchar(255)"`
	SKU               string          `gorm:"type:varchar(100)"`
	Quantity          int             `gorm:"not null;default:0"`
	UnitPrice         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *OrderItemModel) ToDomain() integration.OrderItem {
	return integration.OrderItem{
		ID:                m.ID,
		OrderID:           m.OrderID,
		ProductID:         m.ProductID,
		ExternalVariantID: m.ExternalVariantID,
		Title:             m.Title,
		SKU:               m.SKU,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
	}
}

// FromDomain populates the persistence model from a domain OrderItem.
func (m *OrderItemModel) FromDomain(item integration.OrderItem) {
	m.ID = item.ID
	m.OrderID = item.OrderID
	m.ProductID = item.ProductID
	m.ExternalVariantID = item.ExternalVariantID
	m.Title = item.Title
	m.SKU = item.SKU
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
}

// ---------------------------------------------------------------------------
// SyncLogModel
// ---------------------------------------------------------------------------

// SyncLogModel is the persistence model for the append-only sync audit
// trail.
type SyncLogModel struct {
	ID             uuid.UUID                  `gorm:"type:uuid;primary_key"`
	IntegrationID  uuid.UUID                  `gorm:"type:uuid;not null;index:idx_sync_logs_integration"`
	OrganizationID uuid.UUID                  `gorm:"type:uuid;not null;index:idx_sync_logs_org"`
	EntityType     integration.SyncEntityType `gorm:"type:varchar(10);not null"`
	EntityID       string                     `gorm:"type:varchar(100)"`
	Action         integration.SyncAction     `gorm:"type:varchar(20);not null"`
	Status         integration.SyncLogStatus  `gorm:"type:varchar(10);not null"`
	ErrorMessage   string                     `gorm:"type:text"`
	MetadataJSON   string                     `gorm:"type:jsonb;column:metadata"`
	CreatedAt      time.Time                  `gorm:"not null;index:idx_sync_logs_created"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog.
func (m *SyncLogModel) ToDomain() *integration.SyncLog {
	l := &integration.SyncLog{
		ID:             m.ID,
		IntegrationID:  m.IntegrationID,
		OrganizationID: m.OrganizationID,
		EntityType:     m.EntityType,
		EntityID:       m.EntityID,
		Action:         m.Action,
		Status:         m.Status,
		ErrorMessage:   m.ErrorMessage,
		CreatedAt:      m.CreatedAt,
	}
	if m.MetadataJSON != "" {
		_ = json.Unmarshal([]byte(m.MetadataJSON), &l.Metadata)
	}
	return l
}

// FromDomain populates the persistence model from a domain SyncLog.
func (m *SyncLogModel) FromDomain(l *integration.SyncLog) {
	m.ID = l.ID
	m.IntegrationID = l.IntegrationID
	m.OrganizationID = l.OrganizationID
	m.EntityType = l.EntityType
	m.EntityID = l.EntityID
	m.Action = l.Action
	m.Status = l.Status
	m.ErrorMessage = l.ErrorMessage
	m.CreatedAt = l.CreatedAt

	if len(l.Metadata) > 0 {
		if data, err := json.Marshal(l.Metadata); err == nil {
			m.MetadataJSON = string(data)
		}
	} else {
		m.MetadataJSON = ""
	}
}
