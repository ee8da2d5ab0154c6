package database

import (
	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Dealership{},
		&models.DealershipContact{},
		&models.Car{},
		&models.BookingRequest{},
		&models.Notification{},
		&models.MessageTemplate{},
		&models.CommunicationPreference{},
	)
}

// SeedData inserts the default message templates. Existing rows are left
// untouched so operators can edit templates after first boot.
func SeedData(db *gorm.DB) error {
	templates := []models.MessageTemplate{
		{
			Name:    models.TemplateBookingRequestDealership,
			Channel: models.TemplateChannelEmail,
			Subject: "New booking request for {{car_make}} {{car_model}}",
			Body: "<h2>New booking request</h2>" +
				"<p>{{customer_name}} has requested the {{car_make}} {{car_model}} " +
				"from {{start_date}} to {{end_date}}.</p>" +
				"<p>Phone: {{customer_phone}}<br>Email: {{customer_email}}</p>" +
				"<p>Special requests: {{special_requests}}</p>",
			IsActive: true,
		},
		{
			Name:    models.TemplateBookingRequestDealership,
			Channel: models.TemplateChannelSMS,
			Body: "CarSaaz: new booking request for {{car_make}} {{car_model}} " +
				"({{start_date}} to {{end_date}}) from {{customer_name}}, {{customer_phone}}.",
			IsActive: true,
		},
		{
			Name:    models.TemplateBookingConfirmedCustomer,
			Channel: models.TemplateChannelEmail,
			Subject: "Your booking for {{car_make}} {{car_model}} is confirmed",
			Body: "<h2>Booking confirmed</h2>" +
				"<p>{{dealership_name}} has confirmed your {{car_make}} {{car_model}} " +
				"from {{start_date}} to {{end_date}}.</p>" +
				"<p>Pickup: {{pickup_address}}<br>Phone: {{pickup_phone}}</p>",
			IsActive: true,
		},
		{
			Name:    models.TemplateBookingConfirmedCustomer,
			Channel: models.TemplateChannelSMS,
			Body: "CarSaaz: {{dealership_name}} confirmed your {{car_make}} {{car_model}} " +
				"({{start_date}} to {{end_date}}). Pickup: {{pickup_address}}, {{pickup_phone}}.",
			IsActive: true,
		},
	}

	for _, tpl := range templates {
		err := db.Where(models.MessageTemplate{Name: tpl.Name, Channel: tpl.Channel}).
			Attrs(tpl).
			FirstOrCreate(&models.MessageTemplate{}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
