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

// TemplateService resolves message templates for outbound channels.
type TemplateService struct {
	db *gorm.DB
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(db *gorm.DB) (*TemplateService, error) {
	if db == nil {
		return nil, errors.New("template service: db is required")
	}
	return &TemplateService{db: db}, nil
}

// FindActive returns the active template with the given name and channel.
// Inactive and missing templates both surface as ErrTemplateNotFound.
func (s *TemplateService) FindActive(ctx context.Context, name, channel string) (*models.MessageTemplate, error) {
	ctx = ensureContext(ctx)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("template service: name is required")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return nil, errors.New("template service: channel is required")
	}

	var tpl models.MessageTemplate
	err := s.db.WithContext(ctx).
		Where("name = ? AND channel = ? AND is_active = ?", name, channel, true).
		First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound.WithInternal(
				fmt.Errorf("template %q for channel %q not found or inactive", name, channel))
		}
		return nil, fmt.Errorf("template service: lookup template: %w", err)
	}

	return &tpl, nil
}

// Upsert creates the template or updates subject, body, and active flag of an
// existing (name, channel) pair.
func (s *TemplateService) Upsert(ctx context.Context, input models.MessageTemplate) (*models.MessageTemplate, error) {
	ctx = ensureContext(ctx)
	input.Name = strings.TrimSpace(input.Name)
	input.Channel = strings.TrimSpace(input.Channel)
	if input.Name == "" || input.Channel == "" {
		return nil, errors.New("template service: name and channel are required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, errors.New("template service: body is required")
	}

	var existing models.MessageTemplate
	err := s.db.WithContext(ctx).
		Where("name = ? AND channel = ?", input.Name, input.Channel).
		First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"subject":   input.Subject,
			"body":      input.Body,
			"is_active": input.IsActive,
		}
		if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("template service: update template: %w", err)
		}
		existing.Subject = input.Subject
		existing.Body = input.Body
		existing.IsActive = input.IsActive
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(&input).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.New("TEMPLATE_EXISTS", "template already exists", 409)
			}
			return nil, fmt.Errorf("template service: create template: %w", err)
		}
		return &input, nil
	default:
		return nil, fmt.Errorf("template service: lookup template: %w", err)
	}
}
