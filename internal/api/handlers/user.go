package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/emsdispatch/internal/api/dto"
	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/errors"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/utils"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/validator"
)

// UserHandler handles requests about the signed-in user
type UserHandler struct {
	service   user.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(service user.Service, log *logger.Logger, val *validator.Validator) *UserHandler {
	return &UserHandler{service: service, logger: log, validator: val}
}

// Me returns the caller's account
// @Summary Get current user
// @Tags Users
// @Produce json
// @Success 200 {object} dto.UserDTO "Current user"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Failure 404 {object} utils.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r)
	if actor == nil {
		utils.WriteError(w, errors.Unauthorized("Authentication required"))
		return
	}

	u, err := h.service.GetByID(r.Context(), actor.ID)
	if err != nil {
		utils.WriteAnyError(w, err, "Failed to get user")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromUser(u))
}

// RegisterPushToken stores a device token for new-alert notifications
// @Summary Register push token
// @Tags Users
// @Accept json
// @Produce json
// @Param request body dto.RegisterPushTokenRequest true "Device token"
// @Success 200 {object} utils.SuccessResponse "Token registered"
// @Failure 400 {object} utils.ErrorResponse "Invalid token"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /users/me/push-tokens [post]
func (h *UserHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPushTokenRequest
	if appErr := decodeJSON(w, r, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}
	if errs := h.validator.Validate(req); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Validation failed", errs))
		return
	}

	if err := h.service.RegisterPushToken(r.Context(), middleware.GetActor(r), req.Token); err != nil {
		utils.WriteAnyError(w, err, "Failed to register push token")
		return
	}

	utils.WriteSuccessWithMessage(w, http.StatusOK, "Push token registered", nil)
}
