package models

import "time"

// Booking request lifecycle states.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingExpired   = "expired"
)

// BookingRequest records a customer's request to rent a car from a
// dealership. DealershipNotified marks that a notification fan-out was
// attempted for the request, not that every channel succeeded.
type BookingRequest struct {
	BaseModel

	CarID        string `gorm:"type:uuid;index;not null" json:"car_id"`
	CustomerID   string `gorm:"type:uuid;index;not null" json:"customer_id"`
	DealershipID string `gorm:"type:uuid;index;not null" json:"dealership_id"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Status string `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`

	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	SpecialRequests string `gorm:"type:text" json:"special_requests"`

	DealershipNotified bool `gorm:"default:false" json:"dealership_notified"`

	Car        *Car        `json:"car,omitempty"`
	Customer   *User       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Dealership *Dealership `json:"dealership,omitempty"`
}
