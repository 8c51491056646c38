package leads

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/voicebridge/lead-marketplace/internal/geo"
)

func testLead(status Status, expiresAt time.Time) *Lead {
	return &Lead{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Source:    "aac_app",
		Contact:   Contact{ParentName: "Dana Miller", ParentEmail: "dana@example.com"},
		ChildAge:  4,
		Diagnosis: "autism",
		Severity:  "moderate",
		Urgency:   "within_week",
		Location:  geo.Point{Lat: 41.88, Lng: -87.63},
		LeadScore: 85,
		Status:    status,
		Pricing:   Pricing{BasePrice: 35, FinalPrice: 62},
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
}

func TestInMemoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead := testLead(StatusActive, time.Now().Add(time.Hour))
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Contact.ParentEmail != "dana@example.com" {
		t.Errorf("ParentEmail = %q", got.Contact.ParentEmail)
	}

	// the returned lead must be a copy, not the stored instance
	got.PurchasedBy = append(got.PurchasedBy, "prov-1")
	again, _ := repo.GetByID(ctx, lead.ID)
	if len(again.PurchasedBy) != 0 {
		t.Error("mutating a fetched lead leaked into the store")
	}
}

func TestInMemoryGetMissing(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.GetByID(context.Background(), "nope"); err != ErrLeadNotFound {
		t.Errorf("err = %v, want ErrLeadNotFound", err)
	}
}

func TestInMemoryUpdateMissing(t *testing.T) {
	repo := NewInMemoryRepository()
	lead := testLead(StatusActive, time.Now().Add(time.Hour))
	if err := repo.Update(context.Background(), lead); err != ErrLeadNotFound {
		t.Errorf("err = %v, want ErrLeadNotFound", err)
	}
}

func TestInMemoryListActiveSkipsExpiredAndInactive(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	now := time.Now()

	active := testLead(StatusActive, now.Add(time.Hour))
	// stored status still says active, but the lead is past its expiry
	lapsed := testLead(StatusActive, now.Add(-time.Minute))
	sold := testLead(StatusPurchased, now.Add(time.Hour))

	for _, l := range []*Lead{active, lapsed, sold} {
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.ListActive(ctx, now)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Errorf("ListActive returned %d leads, want only the live one", len(got))
	}
}

func TestInMemoryIncrementViews(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	lead := testLead(StatusActive, time.Now().Add(time.Hour))
	if err := repo.Create(ctx, lead); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementViews(ctx, lead.ID); err != nil {
			t.Fatalf("IncrementViews: %v", err)
		}
	}
	got, _ := repo.GetByID(ctx, lead.ID)
	if got.Views != 3 {
		t.Errorf("Views = %d, want 3", got.Views)
	}
}

func TestPurchasable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		mod  func(*Lead)
		want error
	}{
		{"active lead", func(l *Lead) {}, nil},
		{"not yet matched", func(l *Lead) { l.Status = StatusNew }, ErrLeadUnavailable},
		{"already sold out", func(l *Lead) {
			l.Status = StatusPurchased
			l.PurchasedBy = []string{"a", "b", "c"}
		}, ErrLeadUnavailable},
		{"expired", func(l *Lead) { l.ExpiresAt = now.Add(-time.Second) }, ErrLeadUnavailable},
		{"at cap but status stale", func(l *Lead) { l.PurchasedBy = []string{"a", "b", "c"} }, ErrLeadUnavailable},
		{"duplicate buyer", func(l *Lead) { l.PurchasedBy = []string{"prov-1"} }, ErrAlreadyPurchased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLead(StatusActive, now.Add(time.Hour))
			tt.mod(l)
			if got := l.Purchasable("prov-1", now); got != tt.want {
				t.Errorf("Purchasable = %v, want %v", got, tt.want)
			}
		})
	}
}
