package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/emsdispatch/internal/api/dto"
	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/utils"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/validator"
)

// AlertHandler handles live alert requests
type AlertHandler struct {
	service   alert.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(service alert.Service, log *logger.Logger, val *validator.Validator) *AlertHandler {
	return &AlertHandler{service: service, logger: log, validator: val}
}

// Submit records a new alert
// @Summary Submit alert
// @Description Report an emergency. Signed-in users are recorded as the reporter; anonymous callers must give a name and phone number.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param request body dto.SubmitAlertRequest true "Alert details"
// @Success 201 {object} dto.AlertDTO "Alert created"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or validation error"
// @Failure 429 {object} utils.ErrorResponse "Too many requests"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Router /alerts [post]
func (h *AlertHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitAlertRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	view, err := h.service.Submit(r.Context(), middleware.GetActor(r), req.ToSubmission())
	if err != nil {
		utils.WriteAnyError(w, err, "Failed to submit alert")
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, dto.FromView(view))
}

// List returns live alerts with pagination and filtering
// @Summary List live alerts
// @Description Get live alerts newest first
// @Tags Alerts
// @Produce json
// @Param status query string false "Filter by status"
// @Param from query string false "Created at or after (RFC 3339 or YYYY-MM-DD)"
// @Param to query string false "Created at or before (RFC 3339 or YYYY-MM-DD)"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 50, max: 200)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.AlertDTO} "List of alerts"
// @Failure 400 {object} utils.ErrorResponse "Invalid filter"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /alerts [get]
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, appErr := h.filterFromQuery(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	h.list(w, r, filter)
}

// Mine returns the live alerts reported by the caller
// @Summary List my alerts
// @Description Get live alerts reported by the signed-in user
// @Tags Alerts
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 50, max: 200)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.AlertDTO} "List of alerts"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /alerts/mine [get]
func (h *AlertHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	filter, appErr := h.filterFromQuery(r)
	if appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	filter.ReporterID = actor.ID
	h.list(w, r, filter)
}

func (h *AlertHandler) filterFromQuery(r *http.Request) (alert.Filter, *errors.AppError) {
	var filter alert.Filter

	if s := r.URL.Query().Get("status"); s != "" {
		status := alert.Status(s)
		if !status.Valid() {
			return filter, errors.ValidationError("Invalid query parameter", []validator.ValidationError{{
				Field: "status", Tag: "alert_status", Value: s, Message: "status is not a recognised alert status",
			}})
		}
		filter.Status = status
	}

	from, appErr := parseTimeQuery(r, "from", false)
	if appErr != nil {
		return filter, appErr
	}
	to, appErr := parseTimeQuery(r, "to", true)
	if appErr != nil {
		return filter, appErr
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func (h *AlertHandler) list(w http.ResponseWriter, r *http.Request, filter alert.Filter) {
	params := utils.ParsePaginationParams(r)
	filter.Limit = params.PageSize
	filter.Offset = params.Offset

	views, total, err := h.service.ListLive(r.Context(), filter)
	if err != nil {
		utils.WriteAnyError(w, err, "Failed to list alerts")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dto.FromViews(views), params.Page, params.PageSize, total))
}

// Get returns a single live alert
// @Summary Get alert by ID
// @Description Get a live alert. Archived alerts are served from /archive.
// @Tags Alerts
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} dto.AlertDTO "Alert details"
// @Failure 404 {object} utils.ErrorResponse "Alert not found"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /alerts/{id} [get]
func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteAnyError(w, err, "Failed to get alert")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromView(view))
}

// Transition moves an alert to a new status
// @Summary Update alert status
// @Description Move an alert through its lifecycle. Completing or cancelling an alert archives it.
// @Tags Alerts
// @Accept json
// @Produce json
// @Param id path string true "Alert ID"
// @Param request body dto.TransitionRequest true "New status"
// @Success 200 {object} dto.TransitionResponse "Status updated"
// @Failure 400 {object} utils.ErrorResponse "Invalid status"
// @Failure 403 {object} utils.ErrorResponse "Staff only"
// @Failure 404 {object} utils.ErrorResponse "Alert not found"
// @Failure 409 {object} utils.ErrorResponse "Transition not allowed"
// @Failure 500 {object} utils.ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /alerts/{id}/status [patch]
func (h *AlertHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.TransitionRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	view, err := h.service.Transition(r.Context(), middleware.GetActor(r), id, alert.Status(req.Status), req.Note)
	if err != nil {
		utils.WriteAnyError(w, err, "Failed to update alert status")
		return
	}

	resp := dto.TransitionResponse{ID: id, Status: req.Status, Archived: view == nil}
	if view != nil {
		a := dto.FromView(view)
		resp.Alert = &a
	}
	utils.WriteSuccess(w, http.StatusOK, resp)
}
