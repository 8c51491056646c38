package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

func newTestServer(t *testing.T) (*testEnv, *httptest.Server) {
	t.Helper()
	env := newTestEnv(t)
	handler := NewHandler(env.service, logging.New("error"))

	r := chi.NewRouter()
	r.Get("/health", handler.HealthCheck)
	r.Route("/leads", func(r chi.Router) {
		r.Post("/", handler.CaptureLead)
		r.Get("/", handler.BrowseLeads)
		r.Post("/{leadID}/purchase", handler.PurchaseLead)
	})
	r.Post("/purchases/{purchaseID}/track", handler.TrackConversion)
	r.Get("/analytics", handler.Analytics)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return env, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandlerCaptureLead(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/leads", captureRequest(nil))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var lead leads.Lead
	decodeBody(t, resp, &lead)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, 100, lead.LeadScore)
}

func TestHandlerCaptureLeadValidation(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/leads", captureRequest(func(r *leads.CaptureRequest) {
		r.ChildAge = 42
	}))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerBrowseRedactsContact(t *testing.T) {
	env, srv := newTestServer(t)

	_, err := env.service.CaptureLead(context.Background(), captureRequest(nil))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/leads?provider_id=prov-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	decodeBody(t, resp, &raw)

	encoded, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "jordan@example.com")
	assert.NotContains(t, string(encoded), "parent_email")

	previews := raw["leads"].([]any)
	require.Len(t, previews, 1)
	preview := previews[0].(map[string]any)
	assert.Equal(t, "autism", preview["diagnosis"])
	assert.NotZero(t, preview["price"])
}

func TestHandlerBrowseRequiresProvider(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/leads")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerBrowseFilters(t *testing.T) {
	env, srv := newTestServer(t)
	ctx := context.Background()

	_, err := env.service.CaptureLead(ctx, captureRequest(nil))
	require.NoError(t, err)
	_, err = env.service.CaptureLead(ctx, captureRequest(func(r *leads.CaptureRequest) {
		r.UserID = "user-2"
		r.Diagnosis = "speech_delay"
		r.ChildAge = 10
	}))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/leads?provider_id=prov-1&diagnosis=autism")
	require.NoError(t, err)
	var browse browseResponse
	decodeBody(t, resp, &browse)
	assert.Equal(t, 1, browse.TotalAvailable)

	resp, err = http.Get(srv.URL + "/leads?provider_id=prov-1&max_price=notanumber")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerBrowseLimit(t *testing.T) {
	env, srv := newTestServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.service.CaptureLead(ctx, captureRequest(func(r *leads.CaptureRequest) {
			r.UserID = fmt.Sprintf("user-%d", i)
		}))
		require.NoError(t, err)
	}

	resp, err := http.Get(srv.URL + "/leads?provider_id=prov-1&limit=2")
	require.NoError(t, err)
	var browse browseResponse
	decodeBody(t, resp, &browse)
	assert.Len(t, browse.Leads, 2)
	assert.Equal(t, 3, browse.TotalAvailable)

	// Oversized and malformed limits fall back to the caps.
	resp, err = http.Get(srv.URL + "/leads?provider_id=prov-1&limit=5000")
	require.NoError(t, err)
	decodeBody(t, resp, &browse)
	assert.Len(t, browse.Leads, 3)
}

func TestHandlerPurchaseFlow(t *testing.T) {
	env, srv := newTestServer(t)

	lead, err := env.service.CaptureLead(context.Background(), captureRequest(nil))
	require.NoError(t, err)

	purchaseURL := fmt.Sprintf("%s/leads/%s/purchase", srv.URL, lead.ID)

	resp := postJSON(t, purchaseURL, purchaseRequest{ProviderID: "prov-1", PaymentMethod: "card"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result PurchaseResult
	decodeBody(t, resp, &result)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.PurchaseID)
	require.NotNil(t, result.Contact)
	assert.Equal(t, "jordan@example.com", result.Contact.ParentEmail)

	// Duplicate buyer gets a structured conflict.
	resp = postJSON(t, purchaseURL, purchaseRequest{ProviderID: "prov-1", PaymentMethod: "card"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var dup PurchaseResult
	decodeBody(t, resp, &dup)
	assert.False(t, dup.Success)
	assert.Equal(t, "Lead already purchased", dup.Error)
}

func TestHandlerPurchaseUnknownLead(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/leads/nope/purchase", purchaseRequest{ProviderID: "prov-1"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerPurchasePaymentDeclined(t *testing.T) {
	env, srv := newTestServer(t)

	lead, err := env.service.CaptureLead(context.Background(), captureRequest(nil))
	require.NoError(t, err)
	env.gateway.DeclineAll = true

	resp := postJSON(t, fmt.Sprintf("%s/leads/%s/purchase", srv.URL, lead.ID),
		purchaseRequest{ProviderID: "prov-1"})
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	var result PurchaseResult
	decodeBody(t, resp, &result)
	assert.False(t, result.Success)
	assert.True(t, result.Price > 0)
}

func TestHandlerTrackConversion(t *testing.T) {
	env, srv := newTestServer(t)
	ctx := context.Background()

	lead, err := env.service.CaptureLead(ctx, captureRequest(nil))
	require.NoError(t, err)
	result, err := env.service.PurchaseLead(ctx, "prov-1", lead.ID, "card")
	require.NoError(t, err)

	trackURL := fmt.Sprintf("%s/purchases/%s/track", srv.URL, result.PurchaseID)

	resp := postJSON(t, trackURL, trackRequest{Milestone: "contacted"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = postJSON(t, trackURL, trackRequest{Milestone: "bogus"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, fmt.Sprintf("%s/purchases/missing/track", srv.URL), trackRequest{Milestone: "contacted"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerAnalytics(t *testing.T) {
	env, srv := newTestServer(t)

	_, err := env.service.CaptureLead(context.Background(), captureRequest(nil))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/analytics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	decodeBody(t, resp, &raw)
	totals := raw["totals"].(map[string]any)
	assert.Equal(t, float64(1), totals["total_leads"])
}

func TestHandlerHealth(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
