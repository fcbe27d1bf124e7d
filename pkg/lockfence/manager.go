package lockfence

import (
	"fmt"
	"sync"

	"github.com/yourusername/lockfence/lock"
	"github.com/yourusername/lockfence/store"
)

// Manager hands out limiters by id, sharing one counter store, lock
// provider and option set across all of them. Budgets for distinct ids
// never interfere: each id has its own lock name and state key.
type Manager struct {
	config *FileConfig
	opts   []Option

	mu       sync.RWMutex
	limiters map[string]Limiter
}

// NewManager creates a manager resolving per-id policies from the
// given file configuration. Unless the caller overrides them, all
// limiters share one in-process store and locker.
func NewManager(config *FileConfig, opts ...Option) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: file config cannot be nil", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Defaults go first so caller-provided options win.
	shared := []Option{
		WithStore(store.NewMemoryStore()),
		WithLocker(lock.NewMemoryLocker()),
	}

	return &Manager{
		config:   config,
		opts:     append(shared, opts...),
		limiters: make(map[string]Limiter),
	}, nil
}

// For returns the limiter for the given id, creating it on first use.
func (m *Manager) For(id string) (Limiter, error) {
	// Fast path - limiter exists
	m.mu.RLock()
	l, exists := m.limiters[id]
	m.mu.RUnlock()
	if exists {
		return l, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check: another goroutine might have created it
	if l, exists = m.limiters[id]; exists {
		return l, nil
	}

	config, err := m.config.ConfigFor(id)
	if err != nil {
		return nil, err
	}

	l, err = New(config, m.opts...)
	if err != nil {
		return nil, err
	}
	m.limiters[id] = l
	return l, nil
}
