package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/agentcommerce/backend/internal/domain/integration"
	"github.com/agentcommerce/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Repository mocks
// ---------------------------------------------------------------------------

type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) Save(ctx context.Context, it *integration.Integration) error {
	args := m.Called(ctx, it)
	return args.Error(0)
}

func (m *MockIntegrationRepository) Update(ctx context.Context, it *integration.Integration) error {
	args := m.Called(ctx, it)
	return args.Error(0)
}

func (m *MockIntegrationRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*integration.Integration, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindByShopDomain(ctx context.Context, platform integration.PlatformCode, shopDomain string) (*integration.Integration, error) {
	args := m.Called(ctx, platform, shopDomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*integration.Integration, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) UpdateSyncStatusIf(ctx context.Context, id uuid.UUID, from, to integration.SyncStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockIntegrationRepository) RecordSyncOutcome(ctx context.Context, id uuid.UUID, status integration.SyncStatus, finishedAt time.Time, errMsg string) error {
	args := m.Called(ctx, id, status, finishedAt, errMsg)
	return args.Error(0)
}

var _ integration.IntegrationRepository = (*MockIntegrationRepository)(nil)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, p *integration.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *integration.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, id)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*integration.Product, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Product), args.Error(1)
}

func (m *MockProductRepository) FindByExternalID(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, externalID string) (*integration.Product, error) {
	args := m.Called(ctx, organizationID, platform, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Product), args.Error(1)
}

func (m *MockProductRepository) ResolveVariantRef(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, externalVariantID string) (uuid.UUID, error) {
	args := m.Called(ctx, organizationID, platform, externalVariantID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockProductRepository) UpsertPlatformRefs(ctx context.Context, productID uuid.UUID, refs []integration.ProductPlatformRef) error {
	args := m.Called(ctx, productID, refs)
	return args.Error(0)
}

func (m *MockProductRepository) ListUnsyncedForPlatform(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, limit int) ([]*integration.Product, error) {
	args := m.Called(ctx, organizationID, platform, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*integration.Product), args.Error(1)
}

var _ integration.ProductRepository = (*MockProductRepository)(nil)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, o *integration.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *integration.Order, replaceItems bool) error {
	args := m.Called(ctx, o, replaceItems)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	args := m.Called(ctx, organizationID, id)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*integration.Order, error) {
	args := m.Called(ctx, organizationID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPlatformOrderID(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, platformOrderID string) (*integration.Order, error) {
	args := m.Called(ctx, organizationID, platform, platformOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Order), args.Error(1)
}

var _ integration.OrderRepository = (*MockOrderRepository)(nil)

// MockSyncLogRepository records appended logs for assertions.
type MockSyncLogRepository struct {
	mock.Mock

	mu      sync.Mutex
	entries []*integration.SyncLog
}

func (m *MockSyncLogRepository) Append(ctx context.Context, log *integration.SyncLog) error {
	m.mu.Lock()
	m.entries = append(m.entries, log)
	m.mu.Unlock()
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockSyncLogRepository) List(ctx context.Context, organizationID uuid.UUID, filter integration.SyncLogFilter) ([]*integration.SyncLog, int64, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*integration.SyncLog), args.Get(1).(int64), args.Error(2)
}

func (m *MockSyncLogRepository) Entries() []*integration.SyncLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*integration.SyncLog, len(m.entries))
	copy(out, m.entries)
	return out
}

var _ integration.SyncLogRepository = (*MockSyncLogRepository)(nil)

// ---------------------------------------------------------------------------
// Platform mock and registry stub
// ---------------------------------------------------------------------------

type MockPlatform struct {
	mock.Mock
	code integration.PlatformCode
}

func NewMockPlatform(code integration.PlatformCode) *MockPlatform {
	return &MockPlatform{code: code}
}

func (m *MockPlatform) Code() integration.PlatformCode {
	return m.code
}

func (m *MockPlatform) VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	args := m.Called(rawBody, signature, secret)
	return args.Bool(0)
}

func (m *MockPlatform) ParseWebhookTopic(nativeTopic string) (integration.WebhookTopic, error) {
	args := m.Called(nativeTopic)
	return args.Get(0).(integration.WebhookTopic), args.Error(1)
}

func (m *MockPlatform) NormalizeProduct(rawPayload []byte) (*integration.NormalizedProduct, error) {
	args := m.Called(rawPayload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.NormalizedProduct), args.Error(1)
}

func (m *MockPlatform) NormalizeOrder(rawPayload []byte, topic integration.WebhookTopic) (*integration.NormalizedOrder, error) {
	args := m.Called(rawPayload, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.NormalizedOrder), args.Error(1)
}

func (m *MockPlatform) FetchProducts(ctx context.Context, creds integration.Credentials, req integration.PullRequest) (*integration.ProductPage, error) {
	args := m.Called(ctx, creds, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductPage), args.Error(1)
}

func (m *MockPlatform) FetchOrders(ctx context.Context, creds integration.Credentials, req integration.PullRequest) (*integration.OrderPage, error) {
	args := m.Called(ctx, creds, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.OrderPage), args.Error(1)
}

func (m *MockPlatform) PushProduct(ctx context.Context, creds integration.Credentials, push integration.ProductPush) (string, error) {
	args := m.Called(ctx, creds, push)
	return args.String(0), args.Error(1)
}

var _ integration.CommercePlatform = (*MockPlatform)(nil)

// stubRegistry is a minimal in-memory registry for tests.
type stubRegistry struct {
	platforms map[integration.PlatformCode]integration.CommercePlatform
}

func newStubRegistry(platforms ...integration.CommercePlatform) *stubRegistry {
	r := &stubRegistry{platforms: make(map[integration.PlatformCode]integration.CommercePlatform)}
	for _, p := range platforms {
		r.Register(p)
	}
	return r
}

func (r *stubRegistry) Register(p integration.CommercePlatform) {
	r.platforms[p.Code()] = p
}

func (r *stubRegistry) Get(code integration.PlatformCode) (integration.CommercePlatform, error) {
	p, ok := r.platforms[code]
	if !ok {
		return nil, integration.ErrPlatformNotRegistered
	}
	return p, nil
}

func (r *stubRegistry) Codes() []integration.PlatformCode {
	codes := make([]integration.PlatformCode, 0, len(r.platforms))
	for c := range r.platforms {
		codes = append(codes, c)
	}
	return codes
}

var _ integration.PlatformRegistry = (*stubRegistry)(nil)

// ---------------------------------------------------------------------------
// Idempotency stub
// ---------------------------------------------------------------------------

type stubIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{seen: make(map[string]bool)}
}

func (s *stubIdempotencyStore) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *stubIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[eventID], nil
}

func (s *stubIdempotencyStore) Close() error { return nil }

var _ shared.IdempotencyStore = (*stubIdempotencyStore)(nil)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func newTestIntegration(platform integration.PlatformCode, secret string) *integration.Integration {
	it, _ := integration.NewIntegration(
		uuid.New(),
		platform,
		"test store",
		integration.Credentials{ShopDomain: "acme.myshopify.com", AccessToken: "token"},
		integration.IntegrationConfig{WebhookSecret: secret},
	)
	return it
}
