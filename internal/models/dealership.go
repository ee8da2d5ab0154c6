package models

// Dealership represents a registered car dealership.
type Dealership struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	City     string `gorm:"index" json:"city"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Contact *DealershipContact `gorm:"foreignKey:DealershipID" json:"contact,omitempty"`
	Cars    []Car              `gorm:"foreignKey:DealershipID" json:"cars,omitempty"`
}

// DealershipContact holds contact and operating-hours details, one row per
// dealership (upsert semantics). Read by the dispatcher to populate
// phone/address template variables; written through the contact service.
type DealershipContact struct {
	BaseModel

	DealershipID string `gorm:"type:uuid;uniqueIndex;not null" json:"dealership_id"`

	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
	Address  string `json:"address"`
	City     string `json:"city"`

	OpensAt  string `gorm:"type:varchar(8)" json:"opens_at"`
	ClosesAt string `gorm:"type:varchar(8)" json:"closes_at"`
}
