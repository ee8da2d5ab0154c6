package models

// CommunicationPreference records a user's channel opt-in state, one row per
// user (upsert semantics). Absent rows mean every channel is allowed. The
// in-app channel cannot be disabled.
type CommunicationPreference struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	// No column defaults here: gorm omits zero-valued fields carrying a
	// default tag from the INSERT, which would flip a created opt-out back
	// to true. Get synthesizes the all-enabled default for absent rows.
	EmailEnabled bool `json:"email_enabled"`
	SMSEnabled   bool `json:"sms_enabled"`
	PushEnabled  bool `json:"push_enabled"`
}

// AllowsChannel reports whether the preference permits delivery on channel.
// Unknown channels and the in-app channel are always allowed.
func (p CommunicationPreference) AllowsChannel(channel string) bool {
	switch channel {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelSMS:
		return p.SMSEnabled
	case ChannelPush:
		return p.PushEnabled
	default:
		return true
	}
}
