package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamzarao/carsaaz/internal/middleware"
	"github.com/hamzarao/carsaaz/internal/services"
	"github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/response"
)

// PreferenceHandler exposes communication preference endpoints.
type PreferenceHandler struct {
	service *services.PreferenceService
}

// NewPreferenceHandler constructs a preference handler.
func NewPreferenceHandler(service *services.PreferenceService) (*PreferenceHandler, error) {
	if service == nil {
		return nil, errors.New("MISSING_SERVICE", "preference service is required", http.StatusInternalServerError)
	}
	return &PreferenceHandler{service: service}, nil
}

type upsertPreferenceRequest struct {
	EmailEnabled bool `json:"email_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`
}

// Get returns the current user's communication preference.
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	pref, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, pref)
}

// Upsert replaces the current user's communication preference.
func (h *PreferenceHandler) Upsert(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req upsertPreferenceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pref, err := h.service.Upsert(c.Request.Context(), services.UpsertPreferenceInput{
		UserID:       userID,
		EmailEnabled: req.EmailEnabled,
		SMSEnabled:   req.SMSEnabled,
		PushEnabled:  req.PushEnabled,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pref)
}
