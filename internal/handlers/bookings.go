package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hamzarao/carsaaz/internal/middleware"
	"github.com/hamzarao/carsaaz/internal/models"
	"github.com/hamzarao/carsaaz/internal/services"
	"github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/logger"
	"github.com/hamzarao/carsaaz/pkg/response"
)

// BookingHandler exposes booking request endpoints.
type BookingHandler struct {
	bookings *services.BookingService
	dispatch *services.DispatchService
	log      *zap.Logger
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(bookings *services.BookingService, dispatch *services.DispatchService) (*BookingHandler, error) {
	if bookings == nil {
		return nil, errors.New("MISSING_SERVICE", "booking service is required", http.StatusInternalServerError)
	}
	if dispatch == nil {
		return nil, errors.New("MISSING_SERVICE", "dispatch service is required", http.StatusInternalServerError)
	}
	return &BookingHandler{
		bookings: bookings,
		dispatch: dispatch,
		log:      logger.WithModule("bookings"),
	}, nil
}

type createBookingRequest struct {
	CarID           string `json:"car_id" validate:"required"`
	StartDate       string `json:"start_date" validate:"required"`
	EndDate         string `json:"end_date" validate:"required"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email" validate:"omitempty,email"`
	SpecialRequests string `json:"special_requests"`
}

// Create persists a booking request and fans notifications out to the
// dealership. The response reflects the booking write only; notification
// failures are logged, never surfaced to the customer.
func (h *BookingHandler) Create(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var req createBookingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.Error(c, errors.NewBadRequest("start_date must be YYYY-MM-DD"))
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		response.Error(c, errors.NewBadRequest("end_date must be YYYY-MM-DD"))
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), services.CreateBookingInput{
		CarID:           req.CarID,
		CustomerID:      userID,
		StartDate:       start,
		EndDate:         end,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.dispatch.NotifyDealershipOfBookingRequest(c.Request.Context(), booking.ID)
	if err != nil {
		h.log.Error("dealership fan-out failed",
			zap.String("booking_id", booking.ID), zap.Error(err))
	} else if report.Errors != nil {
		h.log.Warn("dealership fan-out had partial failures",
			zap.String("booking_id", booking.ID),
			zap.Int("failed", report.Failed()),
			zap.Error(report.Errors))
	}

	response.Success(c, http.StatusCreated, booking)
}

// Confirm transitions a pending booking to confirmed and notifies the customer.
func (h *BookingHandler) Confirm(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	bookingID := strings.TrimSpace(c.Param("id"))
	booking, err := h.bookings.Confirm(c.Request.Context(), bookingID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.dispatch.NotifyCustomerOfBookingConfirmation(c.Request.Context(), booking.ID)
	if err != nil {
		h.log.Error("customer confirmation notification failed",
			zap.String("booking_id", booking.ID), zap.Error(err))
	} else if report.Errors != nil {
		h.log.Warn("customer confirmation had partial failures",
			zap.String("booking_id", booking.ID),
			zap.Int("failed", report.Failed()),
			zap.Error(report.Errors))
	}

	response.Success(c, http.StatusOK, booking)
}

// Get returns one booking, visible to its customer and its dealership.
func (h *BookingHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	role := c.GetString(middleware.CtxRoleKey)
	dealershipID := c.GetString(middleware.CtxDealershipIDKey)
	switch {
	case role == models.RoleAdmin:
	case booking.CustomerID == userID:
	case role == models.RoleDealer && booking.DealershipID == dealershipID:
	default:
		response.Error(c, errors.ErrForbidden)
		return
	}

	response.Success(c, http.StatusOK, booking)
}
