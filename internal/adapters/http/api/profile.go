package api

import (
	"net/http"

	"github.com/okian/datesync/internal/domain/model"
	"github.com/okian/datesync/pkg/logger"
)

// ProfileHandler handles per-user state: preferences, events, sources, partner.
type ProfileHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps Dependencies, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{deps: deps, logger: log}
}

type partnerRequest struct {
	PartnerID string `json:"partnerId"`
}

type partnerResponse struct {
	UserID    string `json:"userId"`
	PartnerID string `json:"partnerId"`
}

type syncResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"jobs"`
}

type eventsResponse struct {
	CalendarID string `json:"calendarId"`
	Stored     int    `json:"stored"`
}

// HandlePutPreferences handles PUT /users/{id}/preferences.
func (h *ProfileHandler) HandlePutPreferences(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_preferences"
	var prefs model.AvailabilityPreferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	if err := h.deps.SetPreferences(r.Context(), r.PathValue("id"), prefs); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// HandleGetPreferences handles GET /users/{id}/preferences.
func (h *ProfileHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.deps.Preferences(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(r.Context(), h.logger, w, "api.get_preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// HandlePutEvents handles PUT /users/{id}/calendars/{calendarId}/events.
// The body replaces every event of that calendar.
func (h *ProfileHandler) HandlePutEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_events"
	var events []model.CalendarEvent
	if err := decodeJSON(w, r, &events); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	calendarID := r.PathValue("calendarId")
	if err := h.deps.ReplaceEvents(r.Context(), r.PathValue("id"), calendarID, events); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{CalendarID: calendarID, Stored: len(events)})
}

// HandlePostSource handles POST /users/{id}/sources.
func (h *ProfileHandler) HandlePostSource(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_source"
	var src model.CalendarSource
	if err := decodeJSON(w, r, &src); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	if err := h.deps.AddSource(r.Context(), r.PathValue("id"), src); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, src)
}

// HandleGetSources handles GET /users/{id}/sources.
func (h *ProfileHandler) HandleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.deps.Sources(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(r.Context(), h.logger, w, "api.get_sources", err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

// HandlePostSync handles POST /users/{id}/sync.
func (h *ProfileHandler) HandlePostSync(w http.ResponseWriter, r *http.Request) {
	n, err := h.deps.RequestSync(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(r.Context(), h.logger, w, "api.post_sync", err)
		return
	}
	writeJSON(w, http.StatusAccepted, syncResponse{Status: "accepted", Jobs: n})
}

// HandlePutPartner handles PUT /users/{id}/partner.
func (h *ProfileHandler) HandlePutPartner(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_partner"
	var req partnerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	userID := r.PathValue("id")
	if err := h.deps.LinkPartner(r.Context(), userID, req.PartnerID); err != nil {
		writeFailure(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, partnerResponse{UserID: userID, PartnerID: req.PartnerID})
}

// HandleGetPartner handles GET /users/{id}/partner.
func (h *ProfileHandler) HandleGetPartner(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	partnerID, err := h.deps.Partner(r.Context(), userID)
	if err != nil {
		writeFailure(r.Context(), h.logger, w, "api.get_partner", err)
		return
	}
	writeJSON(w, http.StatusOK, partnerResponse{UserID: userID, PartnerID: partnerID})
}

// HandleDeletePartner handles DELETE /users/{id}/partner.
func (h *ProfileHandler) HandleDeletePartner(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.UnlinkPartner(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(r.Context(), h.logger, w, "api.delete_partner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
