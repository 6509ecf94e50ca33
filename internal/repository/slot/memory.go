package slot

import (
	"context"
	"sync"

	"storefront/internal/domain"
)

type memoryRepo struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory returns a process-local Repository.
func NewMemory() Repository {
	return &memoryRepo{slots: make(map[string][]byte)}
}

func (r *memoryRepo) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.slots[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *memoryRepo) Save(_ context.Context, key string, payload []byte) error {
	r.mu.Lock()
	r.slots[key] = append([]byte(nil), payload...)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.slots, key)
	r.mu.Unlock()
	return nil
}
