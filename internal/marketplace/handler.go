package marketplace

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/voicebridge/lead-marketplace/internal/geo"
	"github.com/voicebridge/lead-marketplace/internal/leads"
	"github.com/voicebridge/lead-marketplace/internal/matching"
	"github.com/voicebridge/lead-marketplace/internal/payments"
	"github.com/voicebridge/lead-marketplace/internal/providers"
	"github.com/voicebridge/lead-marketplace/internal/purchases"
	"github.com/voicebridge/lead-marketplace/pkg/logging"
)

// Handler handles HTTP requests for the marketplace.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new marketplace handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// CaptureLead handles POST /leads requests.
func (h *Handler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	var req leads.CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode capture request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	lead, err := h.service.CaptureLead(r.Context(), &req)
	if err != nil {
		if errors.Is(err, leads.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to capture lead", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to capture lead")
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// leadPreview is the browse view of a lead. Contact details stay hidden
// until purchase.
type leadPreview struct {
	ID                    string   `json:"id"`
	ChildAge              int      `json:"child_age"`
	Diagnosis             string   `json:"diagnosis"`
	Severity              string   `json:"severity"`
	Urgency               string   `json:"urgency"`
	ServiceType           string   `json:"service_type,omitempty"`
	ZipCode               string   `json:"zip_code"`
	LeadScore             int      `json:"lead_score"`
	ConversionProbability float64  `json:"conversion_probability"`
	QualityIndicators     []string `json:"quality_indicators,omitempty"`
	Price                 int      `json:"price"`
	MatchScore            int      `json:"match_score"`
	EstimatedROI          float64  `json:"estimated_roi"`
	DistanceMiles         float64  `json:"distance_miles"`
	PurchasersLeft        int      `json:"purchasers_left"`
	ExpiresAt             string   `json:"expires_at"`
}

type browseResponse struct {
	Leads          []leadPreview `json:"leads"`
	TotalAvailable int           `json:"total_available"`
	AvgPrice       float64       `json:"avg_price"`
}

// BrowseLeads handles GET /leads requests.
func (h *Handler) BrowseLeads(w http.ResponseWriter, r *http.Request) {
	providerID := r.URL.Query().Get("provider_id")
	if providerID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}

	filters, err := parseBrowseFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := parseLimit(r)

	result, err := h.service.AvailableLeads(r.Context(), providerID, filters)
	if err != nil {
		if errors.Is(err, providers.ErrProviderNotFound) {
			writeError(w, http.StatusNotFound, "provider not found")
			return
		}
		h.logger.Error("failed to browse leads", "provider_id", providerID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to browse leads")
		return
	}

	page := result.Leads
	if len(page) > limit {
		page = page[:limit]
	}

	resp := browseResponse{
		Leads:          make([]leadPreview, 0, len(page)),
		TotalAvailable: result.TotalAvailable,
		AvgPrice:       result.AvgPrice,
	}
	for _, ranked := range page {
		l := ranked.Lead
		resp.Leads = append(resp.Leads, leadPreview{
			ID:                    l.ID,
			ChildAge:              l.ChildAge,
			Diagnosis:             l.Diagnosis,
			Severity:              l.Severity,
			Urgency:               l.Urgency,
			ServiceType:           l.ServiceType,
			ZipCode:               l.ZipCode,
			LeadScore:             l.LeadScore,
			ConversionProbability: l.ConversionProbability,
			QualityIndicators:     l.QualityIndicators,
			Price:                 l.Pricing.FinalPrice,
			MatchScore:            ranked.MatchScore,
			EstimatedROI:          ranked.EstimatedROI,
			DistanceMiles:         ranked.DistanceMiles,
			PurchasersLeft:        leads.MaxPurchasers - len(l.PurchasedBy),
			ExpiresAt:             l.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func parseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	return limit
}

func parseBrowseFilters(r *http.Request) (matching.Filters, error) {
	var f matching.Filters
	q := r.URL.Query()

	if v := q.Get("max_price"); v != "" {
		maxPrice, err := strconv.Atoi(v)
		if err != nil || maxPrice < 0 {
			return f, errors.New("invalid max_price")
		}
		f.MaxPrice = maxPrice
	}
	if lat, lng, radius := q.Get("lat"), q.Get("lng"), q.Get("radius_miles"); lat != "" || lng != "" || radius != "" {
		latF, err1 := strconv.ParseFloat(lat, 64)
		lngF, err2 := strconv.ParseFloat(lng, 64)
		radiusF, err3 := strconv.ParseFloat(radius, 64)
		if err1 != nil || err2 != nil || err3 != nil || radiusF <= 0 {
			return f, errors.New("location filter requires lat, lng and a positive radius_miles")
		}
		f.Geo = &matching.GeoFilter{Center: geo.Point{Lat: latF, Lng: lngF}, RadiusMiles: radiusF}
	}
	if minAge, maxAge := q.Get("age_min"), q.Get("age_max"); minAge != "" || maxAge != "" {
		minA, err1 := strconv.Atoi(minAge)
		maxA, err2 := strconv.Atoi(maxAge)
		if err1 != nil || err2 != nil || minA > maxA {
			return f, errors.New("age filter requires age_min <= age_max")
		}
		f.Age = &matching.AgeFilter{Min: minA, Max: maxA}
	}
	if v := q.Get("diagnosis"); v != "" {
		f.Diagnoses = splitCSV(v)
	}
	if v := q.Get("urgency"); v != "" {
		f.Urgencies = splitCSV(v)
	}
	return f, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type purchaseRequest struct {
	ProviderID    string `json:"provider_id"`
	PaymentMethod string `json:"payment_method"`
}

// PurchaseLead handles POST /leads/{leadID}/purchase requests. Business
// failures come back as structured results, not bare errors.
func (h *Handler) PurchaseLead(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProviderID == "" {
		writeError(w, http.StatusBadRequest, "provider_id is required")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "card"
	}

	result, err := h.service.PurchaseLead(r.Context(), req.ProviderID, leadID, req.PaymentMethod)
	if err != nil {
		writeJSON(w, purchaseFailureCode(err), result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func purchaseFailureCode(err error) int {
	switch {
	case errors.Is(err, leads.ErrLeadNotFound), errors.Is(err, providers.ErrProviderNotFound):
		return http.StatusNotFound
	case errors.Is(err, leads.ErrLeadUnavailable):
		return http.StatusConflict
	case errors.Is(err, leads.ErrAlreadyPurchased):
		return http.StatusConflict
	case errors.Is(err, payments.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

type trackRequest struct {
	Milestone string `json:"milestone"`
}

// TrackConversion handles POST /purchases/{purchaseID}/track requests.
func (h *Handler) TrackConversion(w http.ResponseWriter, r *http.Request) {
	purchaseID := chi.URLParam(r, "purchaseID")

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.service.TrackConversion(r.Context(), purchaseID, purchases.Milestone(req.Milestone))
	if err != nil {
		switch {
		case errors.Is(err, purchases.ErrUnknownMilestone):
			writeError(w, http.StatusBadRequest, "unknown milestone")
		case errors.Is(err, purchases.ErrPurchaseNotFound):
			writeError(w, http.StatusNotFound, "purchase not found")
		default:
			h.logger.Error("failed to track conversion", "purchase_id", purchaseID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to track conversion")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Analytics handles GET /analytics requests.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.service.Analytics(r.Context())
	if err != nil {
		h.logger.Error("failed to assemble analytics", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to assemble analytics")
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

// HealthCheck handles GET /health requests.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
