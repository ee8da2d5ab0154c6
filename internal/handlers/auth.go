package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hamzarao/carsaaz/internal/middleware"
	"github.com/hamzarao/carsaaz/internal/services"
	"github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/response"
)

// AuthHandler exposes login and identity endpoints.
type AuthHandler struct {
	service *services.AuthService
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(service *services.AuthService) (*AuthHandler, error) {
	if service == nil {
		return nil, errors.New("MISSING_SERVICE", "auth service is required", http.StatusInternalServerError)
	}
	return &AuthHandler{service: service}, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and returns a JWT with the user profile.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, user)
}
