package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/emsdispatch/internal/domain/presence"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/utils"
)

// PresenceHandler serves the responder location snapshot
type PresenceHandler struct {
	tracker presence.Tracker
}

// NewPresenceHandler creates a new presence handler
func NewPresenceHandler(tracker presence.Tracker) *PresenceHandler {
	return &PresenceHandler{tracker: tracker}
}

// Snapshot returns the current responder positions
// @Summary Responder locations
// @Description Current position of every connected responder, for catch-up before a realtime session starts
// @Tags Presence
// @Produce json
// @Success 200 {array} presence.Presence "Responder positions"
// @Failure 403 {object} utils.ErrorResponse "Staff only"
// @Security BearerAuth
// @Router /presence [get]
func (h *PresenceHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, h.tracker.Snapshot())
}
