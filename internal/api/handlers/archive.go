package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/emsdispatch/internal/api/dto"
	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/utils"
)

// ArchiveHandler handles archived alert requests
type ArchiveHandler struct {
	service alert.Service
	logger  *logger.Logger
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(service alert.Service, log *logger.Logger) *ArchiveHandler {
	return &ArchiveHandler{service: service, logger: log}
}

// List returns archived alerts
// @Summary List archived alerts
// @Tags Archive
// @Produce json
// @Param sort query string false "archived_desc (default), archived_asc, created_desc or created_asc"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 50, max: 200)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.ArchivedAlertDTO} "Archived alerts"
// @Failure 403 {object} utils.ErrorResponse "Staff only"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /archive [get]
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	params := utils.ParsePaginationParams(r)
	sort := alert.ParseArchiveSort(r.URL.Query().Get("sort"))

	views, total, err := h.service.ListArchived(r.Context(), middleware.GetActor(r), sort, params.PageSize, params.Offset)
	if err != nil {
		utils.WriteAnyError(w, err, "Failed to list archived alerts")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dto.FromArchivedViews(views), params.Page, params.PageSize, total))
}

// Get returns one archived alert
// @Summary Get archived alert
// @Tags Archive
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} dto.ArchivedAlertDTO "Archived alert"
// @Failure 403 {object} utils.ErrorResponse "Staff only"
// @Failure 404 {object} utils.ErrorResponse "Archived alert not found"
// @Security BearerAuth
// @Router /archive/{id} [get]
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetArchived(r.Context(), middleware.GetActor(r), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteAnyError(w, err, "Failed to get archived alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromArchivedView(view))
}

// Delete permanently removes an archived alert
// @Summary Delete archived alert
// @Tags Archive
// @Param id path string true "Alert ID"
// @Success 204 "Deleted"
// @Failure 403 {object} utils.ErrorResponse "Admin only"
// @Failure 404 {object} utils.ErrorResponse "Archived alert not found"
// @Security BearerAuth
// @Router /archive/{id} [delete]
func (h *ArchiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := middleware.GetActor(r)

	if err := h.service.DeleteArchived(r.Context(), actor, id); err != nil {
		utils.WriteAnyError(w, err, "Failed to delete archived alert")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"actor_id": actor.ID,
	}).Info("Archived alert deleted")
	w.WriteHeader(http.StatusNoContent)
}
