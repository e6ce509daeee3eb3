package httpform

import (
	"context"
	"sync"

	"github.com/goliatone/go-forms/pkg/model"
)

// StoreProvider loads and persists the store behind a form. Implementations
// typically key the store off values carried by ctx (session, tenant).
type StoreProvider interface {
	Load(ctx context.Context) (model.Store, error)
	Save(ctx context.Context, store model.Store) error
}

// MemoryStore keeps a single store in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	store model.Store
}

var _ StoreProvider = (*MemoryStore)(nil)

// NewMemoryStore returns a provider seeded with initial (may be nil).
func NewMemoryStore(initial model.Store) *MemoryStore {
	if initial == nil {
		initial = model.Store{}
	}
	return &MemoryStore{store: initial}
}

// Load returns the current store. Stores are treated as immutable values, so
// the map is shared rather than copied.
func (m *MemoryStore) Load(ctx context.Context) (model.Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store, nil
}

// Save replaces the current store.
func (m *MemoryStore) Save(ctx context.Context, store model.Store) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if store == nil {
		store = model.Store{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = store
	return nil
}
