package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamzarao/carsaaz/internal/database/testutil"
	"github.com/hamzarao/carsaaz/internal/models"
	"github.com/hamzarao/carsaaz/internal/notifications"
	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
)

func TestNotificationServiceCreateAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	user := models.User{ID: "user-123", Name: "Ali", Email: "ali@example.com", Password: "secret"}
	require.NoError(t, db.Create(&user).Error)

	hub := notifications.NewHub()
	svc, err := NewNotificationService(db, hub)
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{
		UserID:  user.ID,
		Type:    models.NotificationBookingRequest,
		Title:   "New booking request",
		Message: "Ahmed requested your Corolla",
		Data:    map[string]any{"car_model": "Corolla"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, dto.ID)
	require.Equal(t, models.NotificationBookingRequest, dto.Type)
	require.False(t, dto.IsRead)
	require.Nil(t, dto.ReadAt)
	require.Equal(t, []string{models.ChannelInApp}, dto.Channels)

	items, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, dto.ID, items[0].ID)
	require.Equal(t, "Corolla", items[0].Data["car_model"])
}

func TestNotificationServiceCreateValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = svc.Create(ctx, CreateNotificationInput{
		Type: models.NotificationBookingRequest, Title: "t", Message: "m",
	})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateNotificationInput{
		UserID: "user-1", Type: "not_a_kind", Title: "t", Message: "m",
	})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateNotificationInput{
		UserID: "user-1", Type: models.NotificationBookingRequest, Title: "  ", Message: "m",
	})
	require.Error(t, err)
}

func TestNotificationServiceChannelsDefaultAndNormalise(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{
		UserID:   "user-1",
		Type:     models.NotificationBookingConfirmed,
		Title:    "Confirmed",
		Message:  "All set",
		Channels: []string{"in_app", "email", "email", "carrier_pigeon"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{models.ChannelInApp, models.ChannelEmail}, dto.Channels)
}

func TestNotificationServiceListOrderAndUnreadFilter(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		dto, err := svc.Create(ctx, CreateNotificationInput{
			UserID:  "user-1",
			Type:    models.NotificationMessageReceived,
			Title:   "Message",
			Message: "You have a new message",
		})
		require.NoError(t, err)
		ids = append(ids, dto.ID)
		// Distinct created_at values so ordering is deterministic.
		require.NoError(t, db.Model(&models.Notification{}).
			Where("id = ?", dto.ID).
			Update("created_at", time.Date(2024, 6, 1, 10, i, 0, 0, time.UTC)).Error)
	}

	items, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, ids[2], items[0].ID)
	require.Equal(t, ids[0], items[2].ID)

	_, err = svc.MarkRead(ctx, "user-1", ids[1])
	require.NoError(t, err)

	unread, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: "user-1", Unread: true})
	require.NoError(t, err)
	require.Len(t, unread, 2)

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestNotificationServiceMarkReadFirstCallAuthoritative(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	svc.WithClock(func() time.Time { return current })

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{
		UserID:  "user-1",
		Type:    models.NotificationBookingConfirmed,
		Title:   "Confirmed",
		Message: "All set",
	})
	require.NoError(t, err)

	first, err := svc.MarkRead(ctx, "user-1", dto.ID)
	require.NoError(t, err)
	require.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)
	firstReadAt := *first.ReadAt

	// A later repeat call must not move read_at.
	current = current.Add(time.Hour)
	second, err := svc.MarkRead(ctx, "user-1", dto.ID)
	require.NoError(t, err)
	require.True(t, second.IsRead)
	require.NotNil(t, second.ReadAt)
	require.True(t, second.ReadAt.Equal(firstReadAt))
}

func TestNotificationServiceMarkReadScopedToOwner(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{
		UserID:  "user-1",
		Type:    models.NotificationBookingRequest,
		Title:   "New booking request",
		Message: "details",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, "someone-else", dto.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, CreateNotificationInput{
			UserID:  "user-1",
			Type:    models.NotificationCarAvailable,
			Title:   "Car available",
			Message: "A car you watched is back",
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllRead(ctx, "user-1"))

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationServicePruneRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	old, err := svc.Create(ctx, CreateNotificationInput{
		UserID:  "user-1",
		Type:    models.NotificationReviewReceived,
		Title:   "Review received",
		Message: "A customer reviewed you",
	})
	require.NoError(t, err)
	recent, err := svc.Create(ctx, CreateNotificationInput{
		UserID:  "user-1",
		Type:    models.NotificationReviewReceived,
		Title:   "Review received",
		Message: "Another review",
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, "user-1", old.ID)
	require.NoError(t, err)
	_, err = svc.MarkRead(ctx, "user-1", recent.ID)
	require.NoError(t, err)

	past := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.Notification{}).
		Where("id = ?", old.ID).Update("created_at", past).Error)

	removed, err := svc.PruneRead(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	items, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, recent.ID, items[0].ID)
}
