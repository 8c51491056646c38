package providers

import (
	"context"
	"sync"
)

// StaticDirectory is an in-memory Directory used in development mode and as
// a test double.
type StaticDirectory struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewStaticDirectory creates a directory preloaded with the given profiles.
func NewStaticDirectory(profiles ...*Profile) *StaticDirectory {
	d := &StaticDirectory{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		d.profiles[p.ID] = p
	}
	return d
}

// Add registers or replaces a profile.
func (d *StaticDirectory) Add(p *Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[p.ID] = p
}

// FindBySpecialties returns providers with at least one matching specialty.
func (d *StaticDirectory) FindBySpecialties(ctx context.Context, specialties []string) ([]*Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*Profile
	for _, p := range d.profiles {
		if p.HasAnySpecialty(specialties) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// GetByID fetches a single profile.
func (d *StaticDirectory) GetByID(ctx context.Context, id string) (*Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.profiles[id]
	if !ok {
		return nil, ErrProviderNotFound
	}
	cp := *p
	return &cp, nil
}
