package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voicebridge/lead-marketplace/internal/analytics"
	"github.com/voicebridge/lead-marketplace/internal/geo"
	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/internal/marketplace"
	"github.com/voicebridge/lead-marketplace/internal/notify"
	"github.com/voicebridge/lead-marketplace/internal/payments"
	"github.com/voicebridge/lead-marketplace/internal/providers"
	"github.com/voicebridge/lead-marketplace/internal/purchases"
	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.New("error")
	leadRepo := leads.NewInMemoryRepository()
	purchaseRepo := purchases.NewInMemoryRepository()
	directory := providers.NewStaticDirectory(&providers.Profile{
		ID:              "prov-1",
		Name:            "Bright Start Speech",
		Specialties:     []string{"AAC"},
		Location:        geo.Point{Lat: 41.8781, Lng: -87.6298},
		ServiceRadiusMi: 50,
		Rating:          4.8,
	})

	service := marketplace.NewService(marketplace.Config{
		Leads:     leadRepo,
		Purchases: purchaseRepo,
		Directory: directory,
		Gateway:   payments.NewFakeGateway(),
		Publisher: notify.NewPublisher(notify.NewMemoryQueue(16), logger),
		Store:     analytics.NewMemoryStore(leadRepo, purchaseRepo),
		Logger:    logger,
	})

	cfg := &Config{
		Logger:      logger,
		Marketplace: marketplace.NewHandler(service, logger),
	}
	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterCaptureAndBrowse(t *testing.T) {
	router := newTestRouter(t)

	capture := map[string]any{
		"user_id":             "user-1",
		"parent_name":         "Jordan Lee",
		"parent_email":        "jordan@example.com",
		"child_age":           4,
		"diagnosis":           "autism",
		"usage_duration_days": 10,
		"app_engagement":      70,
		"location":            map[string]float64{"lat": 41.8781, "lng": -87.6298},
		"zip_code":            "60601",
	}
	body, err := json.Marshal(capture)
	if err != nil {
		t.Fatalf("marshal capture: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/leads?provider_id=prov-1", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var browse struct {
		TotalAvailable int `json:"total_available"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &browse); err != nil {
		t.Fatalf("decode browse: %v", err)
	}
	if browse.TotalAvailable != 1 {
		t.Fatalf("expected 1 available lead, got %d", browse.TotalAvailable)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
