package models

// Template channels.
const (
	TemplateChannelEmail = "email"
	TemplateChannelSMS   = "sms"
)

// Well-known template names seeded at start-up.
const (
	TemplateBookingRequestDealership = "booking_request_dealership"
	TemplateBookingConfirmedCustomer = "booking_confirmed_customer"
)

// MessageTemplate is a named, channel-specific message skeleton containing
// {{variable}} placeholders. Email templates carry a subject; SMS templates
// use Body alone. Lookups always filter on IsActive.
type MessageTemplate struct {
	BaseModel

	Name    string `gorm:"type:varchar(128);not null;uniqueIndex:idx_template_name_channel" json:"name"`
	Channel string `gorm:"type:varchar(16);not null;uniqueIndex:idx_template_name_channel" json:"channel"`

	Subject string `gorm:"type:varchar(255)" json:"subject"`
	Body    string `gorm:"type:text;not null" json:"body"`

	// No default tag: a template created inactive must stay inactive.
	IsActive bool `gorm:"index" json:"is_active"`
}
