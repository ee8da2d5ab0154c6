package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/models"
	"github.com/hamzarao/carsaaz/internal/notifications"
	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Channels  []string       `json:"channels"`
	IsRead    bool           `json:"is_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	UserID       string
	DealershipID string
	BookingID    string
	CarID        string
	Type         string
	Title        string
	Message      string
	Data         map[string]any
	Channels     []string
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID string
	Limit  int
	Offset int
	Unread bool
}

// NotificationService owns the persisted in-app notification records.
type NotificationService struct {
	db  *gorm.DB
	hub *notifications.Hub
	now func() time.Time
}

// NewNotificationService constructs a NotificationService. The hub is optional;
// without one, realtime broadcasting is a no-op.
func NewNotificationService(db *gorm.DB, hub *notifications.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub, now: time.Now}, nil
}

// WithClock overrides the service clock. Intended for tests.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create inserts one notification record. The record always starts unread.
// Storage failures surface as ErrPersistence so dispatch callers can
// distinguish them from provider failures.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("notification user id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if !models.ValidNotificationType(notificationType) {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown notification type %q", notificationType))
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("notification title is required")
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, apperrors.NewBadRequest("notification message is required")
	}

	channels := normaliseChannels(input.Channels)
	if len(channels) == 0 {
		channels = []string{models.ChannelInApp}
	}

	record := models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		IsRead:  false,
	}

	data := mergeIdentifiers(input.Data, input.DealershipID, input.BookingID, input.CarID)
	if len(data) > 0 {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("notification service: marshal data: %w", err)
		}
		record.Data = datatypes.JSON(encoded)
	}

	encodedChannels, err := json.Marshal(channels)
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal channels: %w", err)
	}
	record.Channels = datatypes.JSON(encodedChannels)

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, apperrors.ErrPersistence.WithInternal(fmt.Errorf("create notification: %w", err))
	}

	dto := mapNotification(record)
	s.broadcast(userID, notifications.Event{
		Event:        notifications.EventCreated,
		Notification: &dto,
	})
	return &dto, nil
}

// ListForUser returns notifications for the supplied user ordered newest first.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if input.Unread {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, errors.New("notification service: user id is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// MarkRead sets the read flag and timestamp for a notification owned by the
// user. The first call is authoritative: repeating it leaves the original
// read_at untouched.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)

	var record models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	if record.IsRead {
		dto := mapNotification(record)
		return &dto, nil
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&record).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	record.IsRead = true
	record.ReadAt = &now
	dto := mapNotification(record)

	s.broadcast(userID, notifications.Event{
		Event:          notifications.EventRead,
		NotificationID: record.ID,
	})
	return &dto, nil
}

// MarkAllRead marks every unread notification for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("notification service: user id is required")
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}

	s.broadcast(userID, notifications.Event{Event: notifications.EventAllRead})
	return nil
}

// PruneRead deletes read notifications created before the cutoff. Returns the
// number of rows removed.
func (s *NotificationService) PruneRead(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: prune read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) broadcast(userID string, event notifications.Event) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(userID, event)
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        row.ID,
		UserID:    row.UserID,
		Type:      row.Type,
		Title:     row.Title,
		Message:   row.Message,
		Data:      decodeJSONMap(row.Data),
		Channels:  decodeJSONStrings(row.Channels),
		IsRead:    row.IsRead,
		ReadAt:    row.ReadAt,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func decodeJSONMap(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func decodeJSONStrings(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func mergeIdentifiers(data map[string]any, dealershipID, bookingID, carID string) map[string]any {
	if dealershipID == "" && bookingID == "" && carID == "" {
		return data
	}
	merged := make(map[string]any, len(data)+3)
	for k, v := range data {
		merged[k] = v
	}
	if dealershipID != "" {
		merged["dealership_id"] = dealershipID
	}
	if bookingID != "" {
		merged["booking_id"] = bookingID
	}
	if carID != "" {
		merged["car_id"] = carID
	}
	return merged
}
