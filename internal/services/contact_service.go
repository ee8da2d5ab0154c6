package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/models"
	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
)

// UpsertContactInput carries the writable fields of a dealership contact.
type UpsertContactInput struct {
	DealershipID string
	Phone        string
	WhatsApp     string
	Address      string
	City         string
	OpensAt      string
	ClosesAt     string
}

// ContactService manages dealership contact records.
type ContactService struct {
	db *gorm.DB
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	return &ContactService{db: db}, nil
}

// GetByDealership returns the contact record for a dealership, or ErrNotFound.
func (s *ContactService) GetByDealership(ctx context.Context, dealershipID string) (*models.DealershipContact, error) {
	ctx = ensureContext(ctx)
	dealershipID = strings.TrimSpace(dealershipID)
	if dealershipID == "" {
		return nil, errors.New("contact service: dealership id is required")
	}

	var contact models.DealershipContact
	err := s.db.WithContext(ctx).Where("dealership_id = ?", dealershipID).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("contact service: load contact: %w", err)
	}
	return &contact, nil
}

// Upsert creates or replaces the dealership's contact row.
func (s *ContactService) Upsert(ctx context.Context, input UpsertContactInput) (*models.DealershipContact, error) {
	ctx = ensureContext(ctx)
	dealershipID := strings.TrimSpace(input.DealershipID)
	if dealershipID == "" {
		return nil, errors.New("contact service: dealership id is required")
	}

	var dealership models.Dealership
	if err := s.db.WithContext(ctx).First(&dealership, "id = ?", dealershipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("contact service: load dealership: %w", err)
	}

	var contact models.DealershipContact
	err := s.db.WithContext(ctx).Where("dealership_id = ?", dealershipID).First(&contact).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"phone":     input.Phone,
			"whats_app": input.WhatsApp,
			"address":   input.Address,
			"city":      input.City,
			"opens_at":  input.OpensAt,
			"closes_at": input.ClosesAt,
		}
		if err := s.db.WithContext(ctx).Model(&contact).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("contact service: update contact: %w", err)
		}
		contact.Phone = input.Phone
		contact.WhatsApp = input.WhatsApp
		contact.Address = input.Address
		contact.City = input.City
		contact.OpensAt = input.OpensAt
		contact.ClosesAt = input.ClosesAt
		return &contact, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		contact = models.DealershipContact{
			DealershipID: dealershipID,
			Phone:        input.Phone,
			WhatsApp:     input.WhatsApp,
			Address:      input.Address,
			City:         input.City,
			OpensAt:      input.OpensAt,
			ClosesAt:     input.ClosesAt,
		}
		if err := s.db.WithContext(ctx).Create(&contact).Error; err != nil {
			if isUniqueConstraintError(err) {
				return s.Upsert(ctx, input)
			}
			return nil, fmt.Errorf("contact service: create contact: %w", err)
		}
		return &contact, nil
	default:
		return nil, fmt.Errorf("contact service: load contact: %w", err)
	}
}
