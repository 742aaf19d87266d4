package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/creatorpay/backend/internal/models"
	"github.com/creatorpay/backend/internal/services"
)

type LedgerHandler struct {
	registry  *services.AggregatorRegistry
	validator *services.ValidationHelper
}

func NewLedgerHandler(registry *services.AggregatorRegistry) *LedgerHandler {
	return &LedgerHandler{
		registry:  registry,
		validator: services.NewValidationHelper(),
	}
}

// callerID pulls the authenticated user from the request context.
func callerID(r *http.Request) string {
	userID, _ := r.Context().Value("userID").(string)
	return userID
}

// aggregatorFor resolves the target: an explicit userId query parameter
// wins (store access rules decide whether the caller may read it),
// otherwise the caller's own identity.
func (h *LedgerHandler) aggregatorFor(r *http.Request) *services.LedgerAggregator {
	target := strings.TrimSpace(r.URL.Query().Get("userId"))
	return h.registry.GetOrCreate(r.Context(), target, callerID(r))
}

// GetLedger returns the cached ledger state for the resolved user.
// @Summary Get payment ledger state
// @Description Entries, derived summary, loading flag and last fetch error for the resolved user
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Target user id (defaults to caller)"
// @Success 200 {object} services.LedgerState
// @Router /ledger [get]
func (h *LedgerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	agg := h.aggregatorFor(r)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agg.Snapshot())
}

// RefreshLedger forces a refetch and returns the resulting state.
// @Summary Refresh payment ledger
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Target user id (defaults to caller)"
// @Success 200 {object} services.LedgerState
// @Router /ledger/refresh [post]
func (h *LedgerHandler) RefreshLedger(w http.ResponseWriter, r *http.Request) {
	agg := h.aggregatorFor(r)
	agg.Refetch(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(agg.Snapshot())
}

// GetPendingBySource returns the unpaid remainder for one source.
// @Summary Pending amount by source
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param sourceType query string true "campaign or boost"
// @Param sourceId query string true "Source id"
// @Success 200 {object} object{sourceType=string,sourceId=string,pending=float64}
// @Failure 400 {object} services.ErrorResponse
// @Router /ledger/pending [get]
func (h *LedgerHandler) GetPendingBySource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceType string `validate:"required,oneof=campaign boost"`
		SourceID   string `validate:"required"`
	}
	req.SourceType = strings.TrimSpace(r.URL.Query().Get("sourceType"))
	req.SourceID = strings.TrimSpace(r.URL.Query().Get("sourceId"))

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	agg := h.aggregatorFor(r)
	pending := agg.GetPendingBySource(models.SourceType(req.SourceType), req.SourceID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"sourceType": req.SourceType,
		"sourceId":   req.SourceID,
		"pending":    pending,
	})
}

// GetVideoEntry returns the rollup for one content unit.
// @Summary Per-video ledger rollup
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param videoId path string true "Video submission id"
// @Success 200 {object} models.VideoLedgerEntry
// @Failure 404 {object} services.ErrorResponse
// @Router /ledger/videos/{videoId} [get]
func (h *LedgerHandler) GetVideoEntry(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")

	agg := h.aggregatorFor(r)
	entry := agg.GetEntryByVideoID(videoID)
	if entry == nil {
		services.SendErrorResponse(w, "No ledger entry for video", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

// RequestPayout invokes the external request-payout procedure.
// @Summary Request a payout
// @Description Forwards to the external request-payout procedure, then refetches the ledger
// @Tags payouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.PayoutParams true "Optional payout selectors"
// @Success 200 {object} services.LedgerState
// @Failure 400 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /payouts/request [post]
func (h *LedgerHandler) RequestPayout(w http.ResponseWriter, r *http.Request) {
	if callerID(r) == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req services.PayoutParams

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil && err != io.EOF {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	agg := h.aggregatorFor(r)
	if err := agg.RequestPayout(r.Context(), req); err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadGateway, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"ledger":  agg.Snapshot(),
	})
}
