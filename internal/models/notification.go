package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification kinds understood by the platform.
const (
	NotificationBookingRequest   = "booking_request"
	NotificationBookingConfirmed = "booking_confirmed"
	NotificationBookingCancelled = "booking_cancelled"
	NotificationPaymentReceived  = "payment_received"
	NotificationCarAvailable     = "car_available"
	NotificationReviewReceived   = "review_received"
	NotificationMessageReceived  = "message_received"
	NotificationOfferExpired     = "offer_expired"
)

// Delivery channels for a notification.
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

var notificationTypes = map[string]struct{}{
	NotificationBookingRequest:   {},
	NotificationBookingConfirmed: {},
	NotificationBookingCancelled: {},
	NotificationPaymentReceived:  {},
	NotificationCarAvailable:     {},
	NotificationReviewReceived:   {},
	NotificationMessageReceived:  {},
	NotificationOfferExpired:     {},
}

// ValidNotificationType reports whether t is one of the enumerated kinds.
func ValidNotificationType(t string) bool {
	_, ok := notificationTypes[t]
	return ok
}

// Notification represents a persisted in-app notification for a user.
// Rows are immutable once stored except for the read/unread transition,
// which sets IsRead and ReadAt together.
type Notification struct {
	BaseModel

	UserID  string `gorm:"type:uuid;index;not null" json:"user_id"`
	Type    string `gorm:"type:varchar(64);not null" json:"type"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`

	Data     datatypes.JSON `json:"data"`
	Channels datatypes.JSON `json:"channels"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
