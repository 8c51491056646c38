package leads

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for lead storage.
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	Update(ctx context.Context, lead *Lead) error
	// ListActive returns leads with status=active that have not lazily
	// expired as of now. Expired rows are not mutated; expiry is a
	// read-time predicate.
	ListActive(ctx context.Context, now time.Time) ([]*Lead, error)
	IncrementViews(ctx context.Context, id string) error
}

// InMemoryRepository is a Repository backed by a map, used in development
// mode and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
	}
}

// Create stores a new lead.
func (r *InMemoryRepository) Create(ctx context.Context, lead *Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneLead(lead)
	r.leads[lead.ID] = cp
	return nil
}

// GetByID retrieves a lead by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// Update overwrites the stored lead.
func (r *InMemoryRepository) Update(ctx context.Context, lead *Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[lead.ID]; !ok {
		return ErrLeadNotFound
	}
	r.leads[lead.ID] = cloneLead(lead)
	return nil
}

// ListActive returns active, unexpired leads.
func (r *InMemoryRepository) ListActive(ctx context.Context, now time.Time) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	for _, lead := range r.leads {
		if lead.Status == StatusActive && !lead.Expired(now) {
			out = append(out, cloneLead(lead))
		}
	}
	return out, nil
}

// IncrementViews bumps the view counter.
func (r *InMemoryRepository) IncrementViews(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	lead.Views++
	return nil
}

// List returns every stored lead; used by the in-memory analytics store.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, cloneLead(lead))
	}
	return out, nil
}

func cloneLead(l *Lead) *Lead {
	cp := *l
	cp.Goals = append([]string(nil), l.Goals...)
	cp.QualityIndicators = append([]string(nil), l.QualityIndicators...)
	cp.MatchedProviders = append([]string(nil), l.MatchedProviders...)
	cp.InterestedProviders = append([]string(nil), l.InterestedProviders...)
	cp.PurchasedBy = append([]string(nil), l.PurchasedBy...)
	return &cp
}
