package purchases

import (
	"context"
	"sync"
)

// Repository defines the interface for purchase storage.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id string) (*Purchase, error)
	Update(ctx context.Context, p *Purchase) error
	// Delete removes a purchase record. Only the purchase rollback path
	// uses it, when the paired lead update cannot be applied.
	Delete(ctx context.Context, id string) error
	// CountAll and CountConverted support the full conversion-rate
	// recount; the rate is never maintained incrementally.
	CountAll(ctx context.Context) (int64, error)
	CountConverted(ctx context.Context) (int64, error)
}

// InMemoryRepository is a Repository backed by a map.
type InMemoryRepository struct {
	mu        sync.RWMutex
	purchases map[string]*Purchase
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{purchases: make(map[string]*Purchase)}
}

// Create stores a new purchase.
func (r *InMemoryRepository) Create(ctx context.Context, p *Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.purchases[p.ID] = &cp
	return nil
}

// GetByID retrieves a purchase by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	cp := *p
	return &cp, nil
}

// Update overwrites the stored purchase.
func (r *InMemoryRepository) Update(ctx context.Context, p *Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.purchases[p.ID]; !ok {
		return ErrPurchaseNotFound
	}
	cp := *p
	r.purchases[p.ID] = &cp
	return nil
}

// CountAll returns the total number of purchases.
func (r *InMemoryRepository) CountAll(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.purchases)), nil
}

// CountConverted returns how many purchases reached the converted milestone.
func (r *InMemoryRepository) CountConverted(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.purchases {
		if p.Converted {
			n++
		}
	}
	return n, nil
}

// Delete removes a stored purchase.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.purchases[id]; !ok {
		return ErrPurchaseNotFound
	}
	delete(r.purchases, id)
	return nil
}

// List returns every purchase; used by the in-memory analytics store.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Purchase, 0, len(r.purchases))
	for _, p := range r.purchases {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}
