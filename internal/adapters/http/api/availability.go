package api

import (
	"net/http"
	"time"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/pkg/logger"
)

// AvailabilityHandler serves free windows, mutual availability and suggestions.
type AvailabilityHandler struct {
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

// NewAvailabilityHandler creates a new availability handler.
func NewAvailabilityHandler(deps Dependencies, log logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{deps: deps, logger: log, now: time.Now}
}

type mutualResponse struct {
	UserID    string                     `json:"userId"`
	PartnerID string                     `json:"partnerId,omitempty"`
	From      time.Time                  `json:"from"`
	To        time.Time                  `json:"to"`
	Dates     []model.MutualAvailability `json:"dates"`
}

type suggestionsResponse struct {
	UserID      string                 `json:"userId"`
	PartnerID   string                 `json:"partnerId,omitempty"`
	Suggestions []model.DateSuggestion `json:"suggestions"`
}

// HandleAvailability handles GET /users/{id}/availability?from=&to=.
func (h *AvailabilityHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	const op = "api.availability"
	from, to, err := parseRange(r, h.deps.Location(), h.now())
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	ua, err := h.deps.Windows(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, ua)
}

// HandleMutual handles GET /users/{id}/mutual?from=&to=[&partner=].
func (h *AvailabilityHandler) HandleMutual(w http.ResponseWriter, r *http.Request) {
	const op = "api.mutual"
	from, to, err := parseRange(r, h.deps.Location(), h.now())
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	userID, partnerID := r.PathValue("id"), r.URL.Query().Get("partner")
	dates, err := h.deps.Mutual(r.Context(), userID, partnerID, from, to)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	if dates == nil {
		dates = []model.MutualAvailability{}
	}
	writeJSON(w, http.StatusOK, mutualResponse{UserID: userID, PartnerID: partnerID, From: from, To: to, Dates: dates})
}

// HandleSuggestions handles GET /users/{id}/suggestions?from=&to=&limit=[&partner=].
func (h *AvailabilityHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggestions"
	from, to, err := parseRange(r, h.deps.Location(), h.now())
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	limit, err := parseLimit(r)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	userID, partnerID := r.PathValue("id"), r.URL.Query().Get("partner")
	out, err := h.deps.Suggest(r.Context(), userID, partnerID, from, to, limit)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	if out == nil {
		out = []model.DateSuggestion{}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{UserID: userID, PartnerID: partnerID, Suggestions: out})
}

// HandleCompute handles POST /compute/suggestions.
func (h *AvailabilityHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "api.compute"
	var req model.ComputeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	res, err := h.deps.ComputeSuggestions(r.Context(), req)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
