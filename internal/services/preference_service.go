package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/models"
)

// UpsertPreferenceInput carries the per-channel opt-in flags for a user.
type UpsertPreferenceInput struct {
	UserID       string
	EmailEnabled bool
	SMSEnabled   bool
	PushEnabled  bool
}

// PreferenceService manages per-user communication preferences.
type PreferenceService struct {
	db *gorm.DB
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(db *gorm.DB) (*PreferenceService, error) {
	if db == nil {
		return nil, errors.New("preference service: db is required")
	}
	return &PreferenceService{db: db}, nil
}

// Get returns the stored preference for a user. A user with no stored row is
// opted in on every channel.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*models.CommunicationPreference, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("preference service: user id is required")
	}

	var pref models.CommunicationPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &models.CommunicationPreference{
				UserID:       userID,
				EmailEnabled: true,
				SMSEnabled:   true,
				PushEnabled:  true,
			}, nil
		}
		return nil, fmt.Errorf("preference service: load preference: %w", err)
	}
	return &pref, nil
}

// Upsert creates or replaces the user's preference row.
func (s *PreferenceService) Upsert(ctx context.Context, input UpsertPreferenceInput) (*models.CommunicationPreference, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("preference service: user id is required")
	}

	var pref models.CommunicationPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"email_enabled": input.EmailEnabled,
			"sms_enabled":   input.SMSEnabled,
			"push_enabled":  input.PushEnabled,
		}
		if err := s.db.WithContext(ctx).Model(&pref).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("preference service: update preference: %w", err)
		}
		pref.EmailEnabled = input.EmailEnabled
		pref.SMSEnabled = input.SMSEnabled
		pref.PushEnabled = input.PushEnabled
		return &pref, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		pref = models.CommunicationPreference{
			UserID:       userID,
			EmailEnabled: input.EmailEnabled,
			SMSEnabled:   input.SMSEnabled,
			PushEnabled:  input.PushEnabled,
		}
		if err := s.db.WithContext(ctx).Create(&pref).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Lost a race with a concurrent upsert; apply as update.
				return s.Upsert(ctx, input)
			}
			return nil, fmt.Errorf("preference service: create preference: %w", err)
		}
		return &pref, nil
	default:
		return nil, fmt.Errorf("preference service: load preference: %w", err)
	}
}

// Allows reports whether delivery on the channel is permitted for the user.
func (s *PreferenceService) Allows(ctx context.Context, userID, channel string) (bool, error) {
	pref, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return pref.AllowsChannel(channel), nil
}
