package models

// Car represents a rentable vehicle listed by a dealership.
type Car struct {
	BaseModel

	DealershipID string `gorm:"type:uuid;index;not null" json:"dealership_id"`

	Make        string  `gorm:"not null" json:"make"`
	Model       string  `gorm:"not null" json:"model"`
	Year        int     `json:"year"`
	PricePerDay float64 `json:"price_per_day"`
	IsAvailable bool    `gorm:"default:true;index" json:"is_available"`

	Dealership *Dealership `json:"dealership,omitempty"`
}
