package ecommerce

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// Registry is a thread-safe PlatformRegistry implementation.
type Registry struct {
	mu       sync.RWMutex
	adapters map[integration.PlatformCode]integration.CommercePlatform
}

// NewRegistry creates an empty platform registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[integration.PlatformCode]integration.CommercePlatform),
	}
}

// Register adds a platform adapter. Re-registering a code replaces the
// previous adapter.
func (r *Registry) Register(platform integration.CommercePlatform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[platform.Code()] = platform
}

// Get returns the adapter for a platform code.
func (r *Registry) Get(code integration.PlatformCode) (integration.CommercePlatform, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotRegistered, code)
	}
	return adapter, nil
}

// Codes returns the registered platform codes in stable order.
func (r *Registry) Codes() []integration.PlatformCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]integration.PlatformCode, 0, len(r.adapters))
	for code := range r.adapters {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Ensure Registry implements PlatformRegistry
var _ integration.PlatformRegistry = (*Registry)(nil)
