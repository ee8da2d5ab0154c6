package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/models"
	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
)

// CreateBookingInput carries the fields a customer submits with a booking request.
type CreateBookingInput struct {
	CarID           string
	CustomerID      string
	StartDate       time.Time
	EndDate         time.Time
	CustomerPhone   string
	CustomerEmail   string
	SpecialRequests string
}

// BookingService manages booking request lifecycle state.
type BookingService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(db *gorm.DB) (*BookingService, error) {
	if db == nil {
		return nil, errors.New("booking service: db is required")
	}
	return &BookingService{db: db, now: time.Now}, nil
}

// WithClock overrides the service clock. Intended for tests.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create persists a new pending booking request for an available car.
func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*models.BookingRequest, error) {
	ctx = ensureContext(ctx)

	carID := strings.TrimSpace(input.CarID)
	if carID == "" {
		return nil, apperrors.NewBadRequest("car id is required")
	}
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		return nil, apperrors.NewBadRequest("customer id is required")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, apperrors.NewBadRequest("start and end dates are required")
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, apperrors.NewBadRequest("end date must be after start date")
	}

	var car models.Car
	if err := s.db.WithContext(ctx).First(&car, "id = ?", carID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithInternal(fmt.Errorf("car %s not found", carID))
		}
		return nil, fmt.Errorf("booking service: load car: %w", err)
	}
	if !car.IsAvailable {
		return nil, apperrors.New("CAR_UNAVAILABLE", "car is not available for booking", 409)
	}

	booking := models.BookingRequest{
		CarID:           car.ID,
		CustomerID:      customerID,
		DealershipID:    car.DealershipID,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Status:          models.BookingPending,
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		SpecialRequests: strings.TrimSpace(input.SpecialRequests),
	}

	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("create booking: %w", err))
	}
	return &booking, nil
}

// Get loads a booking with its associations.
func (s *BookingService) Get(ctx context.Context, bookingID string) (*models.BookingRequest, error) {
	ctx = ensureContext(ctx)
	var booking models.BookingRequest
	err := s.db.WithContext(ctx).
		Preload("Car").
		Preload("Customer").
		Preload("Dealership").
		First(&booking, "id = ?", strings.TrimSpace(bookingID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("booking service: load booking: %w", err)
	}
	return &booking, nil
}

// Confirm transitions a pending booking to confirmed. Only dealer users of the
// booking's dealership may confirm.
func (s *BookingService) Confirm(ctx context.Context, bookingID, dealerUserID string) (*models.BookingRequest, error) {
	ctx = ensureContext(ctx)

	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var dealer models.User
	if err := s.db.WithContext(ctx).First(&dealer, "id = ?", strings.TrimSpace(dealerUserID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrForbidden
		}
		return nil, fmt.Errorf("booking service: load dealer: %w", err)
	}
	if dealer.Role != models.RoleDealer && dealer.Role != models.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}
	if dealer.Role == models.RoleDealer &&
		(dealer.DealershipID == nil || *dealer.DealershipID != booking.DealershipID) {
		return nil, apperrors.ErrForbidden
	}

	if booking.Status != models.BookingPending {
		return nil, apperrors.New("BOOKING_NOT_PENDING",
			fmt.Sprintf("booking is %s, only pending bookings can be confirmed", booking.Status), 409)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.BookingRequest{}).
		Where("id = ? AND status = ?", booking.ID, models.BookingPending).
		Update("status", models.BookingConfirmed).Error; err != nil {
		return nil, fmt.Errorf("booking service: confirm booking: %w", err)
	}

	booking.Status = models.BookingConfirmed
	return booking, nil
}

// ExpirePendingOlderThan flips pending bookings created before the cutoff to
// expired and returns the affected rows for follow-up notification.
func (s *BookingService) ExpirePendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.BookingRequest, error) {
	ctx = ensureContext(ctx)

	var stale []models.BookingRequest
	if err := s.db.WithContext(ctx).
		Preload("Car").
		Where("status = ? AND created_at < ?", models.BookingPending, cutoff).
		Find(&stale).Error; err != nil {
		return nil, fmt.Errorf("booking service: load stale bookings: %w", err)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(stale))
	for _, booking := range stale {
		ids = append(ids, booking.ID)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.BookingRequest{}).
		Where("id IN ? AND status = ?", ids, models.BookingPending).
		Update("status", models.BookingExpired).Error; err != nil {
		return nil, fmt.Errorf("booking service: expire bookings: %w", err)
	}

	for i := range stale {
		stale[i].Status = models.BookingExpired
	}
	return stale, nil
}
