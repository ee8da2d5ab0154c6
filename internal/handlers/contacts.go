package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hamzarao/carsaaz/internal/middleware"
	"github.com/hamzarao/carsaaz/internal/models"
	"github.com/hamzarao/carsaaz/internal/services"
	"github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/response"
)

// ContactHandler exposes dealership contact endpoints.
type ContactHandler struct {
	service *services.ContactService
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(service *services.ContactService) (*ContactHandler, error) {
	if service == nil {
		return nil, errors.New("MISSING_SERVICE", "contact service is required", http.StatusInternalServerError)
	}
	return &ContactHandler{service: service}, nil
}

type upsertContactRequest struct {
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
	Address  string `json:"address"`
	City     string `json:"city"`
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
}

// Get returns a dealership's contact record.
func (h *ContactHandler) Get(c *gin.Context) {
	dealershipID := strings.TrimSpace(c.Param("id"))
	contact, err := h.service.GetByDealership(c.Request.Context(), dealershipID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, contact)
}

// Upsert creates or replaces the contact record. Dealer users may only write
// their own dealership's contact.
func (h *ContactHandler) Upsert(c *gin.Context) {
	dealershipID := strings.TrimSpace(c.Param("id"))

	role := c.GetString(middleware.CtxRoleKey)
	if role == models.RoleDealer && c.GetString(middleware.CtxDealershipIDKey) != dealershipID {
		response.Error(c, errors.ErrForbidden)
		return
	}

	var req upsertContactRequest
	if !bindAndValidate(c, &req) {
		return
	}

	contact, err := h.service.Upsert(c.Request.Context(), services.UpsertContactInput{
		DealershipID: dealershipID,
		Phone:        req.Phone,
		WhatsApp:     req.WhatsApp,
		Address:      req.Address,
		City:         req.City,
		OpensAt:      req.OpensAt,
		ClosesAt:     req.ClosesAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, contact)
}
