package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/models"
	"github.com/hamzarao/carsaaz/internal/templates"
	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/logger"
	"github.com/hamzarao/carsaaz/pkg/mail"
	"github.com/hamzarao/carsaaz/pkg/metrics"
	"github.com/hamzarao/carsaaz/pkg/sms"
)

// Channel attempt outcomes recorded in a dispatch report.
const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// ChannelResult records the outcome of one channel attempt for one recipient.
type ChannelResult struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

// RecipientResult groups the per-channel outcomes for one recipient.
type RecipientResult struct {
	UserID   string          `json:"user_id"`
	Channels []ChannelResult `json:"channels"`
}

// DispatchReport summarises one fan-out run. Errors aggregates every caught
// per-recipient failure; it is informational and never aborts the run.
type DispatchReport struct {
	Event      string            `json:"event"`
	Recipients []RecipientResult `json:"recipients"`
	Errors     error             `json:"-"`
}

// Failed counts channel attempts that ended in failure across all recipients.
func (r *DispatchReport) Failed() int {
	count := 0
	for _, recipient := range r.Recipients {
		for _, ch := range recipient.Channels {
			if ch.Status == StatusFailed {
				count++
			}
		}
	}
	return count
}

// Sent counts channel attempts that succeeded across all recipients.
func (r *DispatchReport) Sent() int {
	count := 0
	for _, recipient := range r.Recipients {
		for _, ch := range recipient.Channels {
			if ch.Status == StatusSent {
				count++
			}
		}
	}
	return count
}

// DispatchService orchestrates multi-channel notification fan-out for booking
// lifecycle events. The in-app record is always attempted first; email and SMS
// follow, each fault-isolated per recipient and per channel.
type DispatchService struct {
	db            *gorm.DB
	notifications *NotificationService
	tpls          *TemplateService
	prefs         *PreferenceService
	mailer        mail.Mailer
	sender        sms.Sender
	log           *zap.Logger
}

// NewDispatchService constructs a DispatchService.
func NewDispatchService(
	db *gorm.DB,
	notificationSvc *NotificationService,
	templateSvc *TemplateService,
	preferenceSvc *PreferenceService,
	mailer mail.Mailer,
	sender sms.Sender,
) (*DispatchService, error) {
	if db == nil {
		return nil, errors.New("dispatch service: db is required")
	}
	if notificationSvc == nil {
		return nil, errors.New("dispatch service: notification service is required")
	}
	if templateSvc == nil {
		return nil, errors.New("dispatch service: template service is required")
	}
	if preferenceSvc == nil {
		return nil, errors.New("dispatch service: preference service is required")
	}
	if mailer == nil {
		return nil, errors.New("dispatch service: mailer is required")
	}
	if sender == nil {
		return nil, errors.New("dispatch service: sms sender is required")
	}

	return &DispatchService{
		db:            db,
		notifications: notificationSvc,
		tpls:          templateSvc,
		prefs:         preferenceSvc,
		mailer:        mailer,
		sender:        sender,
		log:           logger.WithModule("dispatch"),
	}, nil
}

// SendEmail resolves the named active email template, renders it with the
// supplied variables, and delivers through the configured provider.
func (s *DispatchService) SendEmail(ctx context.Context, to, templateName string, vars map[string]any) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(to) == "" {
		return errors.New("dispatch service: email recipient is required")
	}

	tpl, err := s.tpls.FindActive(ctx, templateName, models.TemplateChannelEmail)
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:      to,
		Subject: templates.Render(tpl.Subject, vars),
		HTML:    templates.Render(tpl.Body, vars),
	}
	return s.mailer.Send(ctx, msg)
}

// SendSMS resolves the named active SMS template, renders its body, and
// delivers through the configured provider.
func (s *DispatchService) SendSMS(ctx context.Context, to, templateName string, vars map[string]any) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(to) == "" {
		return errors.New("dispatch service: sms recipient is required")
	}

	tpl, err := s.tpls.FindActive(ctx, templateName, models.TemplateChannelSMS)
	if err != nil {
		return err
	}

	return s.sender.Send(ctx, to, templates.Render(tpl.Body, vars))
}

// NotifyDealershipOfBookingRequest fans a new booking request out to every
// dealer user of the dealership. Each dealer gets one in-app record, an email
// when they have an address, and an SMS to the dealership contact phone.
// Failures are isolated per dealer and per channel; only a missing booking
// aborts the whole call.
func (s *DispatchService) NotifyDealershipOfBookingRequest(ctx context.Context, bookingID string) (*DispatchReport, error) {
	ctx = ensureContext(ctx)

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		metrics.Dispatches.WithLabelValues(models.NotificationBookingRequest, "error").Inc()
		return nil, err
	}

	contact := s.loadContact(ctx, booking.DealershipID)

	var dealers []models.User
	if err := s.db.WithContext(ctx).
		Where("role = ? AND dealership_id = ?", models.RoleDealer, booking.DealershipID).
		Find(&dealers).Error; err != nil {
		metrics.Dispatches.WithLabelValues(models.NotificationBookingRequest, "error").Inc()
		return nil, fmt.Errorf("dispatch service: load dealer users: %w", err)
	}

	report := &DispatchReport{Event: models.NotificationBookingRequest}

	if len(dealers) == 0 {
		s.log.Info("no dealer users for dealership, skipping fan-out",
			zap.String("booking_id", booking.ID),
			zap.String("dealership_id", booking.DealershipID))
	}

	vars := s.bookingVars(booking, contact)
	title := "New booking request"
	message := fmt.Sprintf("%s requested %s %s from %s to %s",
		vars["customer_name"], vars["car_make"], vars["car_model"],
		vars["start_date"], vars["end_date"])

	for _, dealer := range dealers {
		result := RecipientResult{UserID: dealer.ID}

		_, err := s.notifications.Create(ctx, CreateNotificationInput{
			UserID:       dealer.ID,
			DealershipID: booking.DealershipID,
			BookingID:    booking.ID,
			CarID:        booking.CarID,
			Type:         models.NotificationBookingRequest,
			Title:        title,
			Message:      message,
			Data:         vars,
			Channels:     []string{models.ChannelInApp, models.ChannelEmail, models.ChannelSMS},
		})
		result.Channels = append(result.Channels, s.recordAttempt(models.ChannelInApp, err))
		if err != nil {
			report.Errors = multierr.Append(report.Errors, err)
			report.Recipients = append(report.Recipients, result)
			s.log.Error("in-app record failed, skipping dealer",
				zap.String("dealer_id", dealer.ID),
				zap.String("booking_id", booking.ID),
				zap.Error(err))
			continue
		}

		emailResult := s.attemptEmail(ctx, dealer.ID, dealer.Email, models.TemplateBookingRequestDealership, vars)
		result.Channels = append(result.Channels, emailResult)
		if emailResult.Status == StatusFailed {
			report.Errors = multierr.Append(report.Errors, errors.New(emailResult.Detail))
		}

		smsTo := ""
		if contact != nil {
			smsTo = contact.Phone
		}
		smsResult := s.attemptSMS(ctx, dealer.ID, smsTo, models.TemplateBookingRequestDealership, vars)
		result.Channels = append(result.Channels, smsResult)
		if smsResult.Status == StatusFailed {
			report.Errors = multierr.Append(report.Errors, errors.New(smsResult.Detail))
		}

		report.Recipients = append(report.Recipients, result)
	}

	// The flag records that fan-out was attempted, not that delivery succeeded.
	if err := s.db.WithContext(ctx).
		Model(&models.BookingRequest{}).
		Where("id = ?", booking.ID).
		Update("dealership_notified", true).Error; err != nil {
		s.log.Error("failed to flag booking as notified",
			zap.String("booking_id", booking.ID), zap.Error(err))
		report.Errors = multierr.Append(report.Errors, err)
	}

	metrics.Dispatches.WithLabelValues(models.NotificationBookingRequest, dispatchResult(report)).Inc()
	return report, nil
}

// NotifyCustomerOfBookingConfirmation notifies the booking's customer that a
// dealer confirmed their request: one in-app record, then email and SMS when
// the customer has the respective contact details.
func (s *DispatchService) NotifyCustomerOfBookingConfirmation(ctx context.Context, bookingID string) (*DispatchReport, error) {
	ctx = ensureContext(ctx)

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		metrics.Dispatches.WithLabelValues(models.NotificationBookingConfirmed, "error").Inc()
		return nil, err
	}

	contact := s.loadContact(ctx, booking.DealershipID)
	vars := s.bookingVars(booking, contact)

	report := &DispatchReport{Event: models.NotificationBookingConfirmed}
	result := RecipientResult{UserID: booking.CustomerID}

	title := "Booking confirmed"
	message := fmt.Sprintf("Your booking for %s %s from %s to %s is confirmed",
		vars["car_make"], vars["car_model"], vars["start_date"], vars["end_date"])

	_, err = s.notifications.Create(ctx, CreateNotificationInput{
		UserID:       booking.CustomerID,
		DealershipID: booking.DealershipID,
		BookingID:    booking.ID,
		CarID:        booking.CarID,
		Type:         models.NotificationBookingConfirmed,
		Title:        title,
		Message:      message,
		Data:         vars,
		Channels:     []string{models.ChannelInApp, models.ChannelEmail, models.ChannelSMS},
	})
	result.Channels = append(result.Channels, s.recordAttempt(models.ChannelInApp, err))
	if err != nil {
		report.Errors = multierr.Append(report.Errors, err)
		report.Recipients = append(report.Recipients, result)
		metrics.Dispatches.WithLabelValues(models.NotificationBookingConfirmed, dispatchResult(report)).Inc()
		return report, nil
	}

	email := booking.CustomerEmail
	if email == "" && booking.Customer != nil {
		email = booking.Customer.Email
	}
	emailResult := s.attemptEmail(ctx, booking.CustomerID, email, models.TemplateBookingConfirmedCustomer, vars)
	result.Channels = append(result.Channels, emailResult)
	if emailResult.Status == StatusFailed {
		report.Errors = multierr.Append(report.Errors, errors.New(emailResult.Detail))
	}

	phone := booking.CustomerPhone
	if phone == "" && booking.Customer != nil {
		phone = booking.Customer.Phone
	}
	smsResult := s.attemptSMS(ctx, booking.CustomerID, phone, models.TemplateBookingConfirmedCustomer, vars)
	result.Channels = append(result.Channels, smsResult)
	if smsResult.Status == StatusFailed {
		report.Errors = multierr.Append(report.Errors, errors.New(smsResult.Detail))
	}

	report.Recipients = append(report.Recipients, result)
	metrics.Dispatches.WithLabelValues(models.NotificationBookingConfirmed, dispatchResult(report)).Inc()
	return report, nil
}

// NotifyOfferExpired records an in-app notification telling the customer that
// their pending booking request lapsed. In-app only; expiry is not urgent
// enough to page external channels.
func (s *DispatchService) NotifyOfferExpired(ctx context.Context, booking *models.BookingRequest) error {
	ctx = ensureContext(ctx)
	if booking == nil {
		return errors.New("dispatch service: booking is required")
	}

	carDesc := "your requested car"
	if booking.Car != nil {
		carDesc = fmt.Sprintf("%s %s", booking.Car.Make, booking.Car.Model)
	}

	_, err := s.notifications.Create(ctx, CreateNotificationInput{
		UserID:       booking.CustomerID,
		DealershipID: booking.DealershipID,
		BookingID:    booking.ID,
		CarID:        booking.CarID,
		Type:         models.NotificationOfferExpired,
		Title:        "Booking request expired",
		Message:      fmt.Sprintf("Your booking request for %s expired without a dealer response", carDesc),
		Channels:     []string{models.ChannelInApp},
	})
	if err != nil {
		metrics.Dispatches.WithLabelValues(models.NotificationOfferExpired, "error").Inc()
		return err
	}

	metrics.Dispatches.WithLabelValues(models.NotificationOfferExpired, "ok").Inc()
	return nil
}

func (s *DispatchService) loadBooking(ctx context.Context, bookingID string) (*models.BookingRequest, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, apperrors.NewBadRequest("booking id is required")
	}

	var booking models.BookingRequest
	err := s.db.WithContext(ctx).
		Preload("Car").
		Preload("Customer").
		Preload("Dealership").
		First(&booking, "id = ?", bookingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithInternal(fmt.Errorf("booking %s not found", bookingID))
		}
		return nil, fmt.Errorf("dispatch service: load booking: %w", err)
	}
	return &booking, nil
}

// loadContact treats a missing contact row as non-fatal; the SMS step simply
// has no destination number.
func (s *DispatchService) loadContact(ctx context.Context, dealershipID string) *models.DealershipContact {
	var contact models.DealershipContact
	err := s.db.WithContext(ctx).Where("dealership_id = ?", dealershipID).First(&contact).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("failed to load dealership contact",
				zap.String("dealership_id", dealershipID), zap.Error(err))
		}
		return nil
	}
	return &contact
}

func (s *DispatchService) bookingVars(booking *models.BookingRequest, contact *models.DealershipContact) map[string]any {
	vars := map[string]any{
		"start_date":       booking.StartDate.Format("02 Jan 2006"),
		"end_date":         booking.EndDate.Format("02 Jan 2006"),
		"customer_phone":   defaultIfEmpty(booking.CustomerPhone, "Not provided"),
		"customer_email":   defaultIfEmpty(booking.CustomerEmail, "Not provided"),
		"special_requests": defaultIfEmpty(booking.SpecialRequests, "None"),
	}

	if booking.Car != nil {
		vars["car_make"] = booking.Car.Make
		vars["car_model"] = booking.Car.Model
		vars["car_year"] = booking.Car.Year
		vars["price_per_day"] = booking.Car.PricePerDay
	}
	if booking.Customer != nil {
		vars["customer_name"] = booking.Customer.Name
		if booking.CustomerPhone == "" {
			vars["customer_phone"] = defaultIfEmpty(booking.Customer.Phone, "Not provided")
		}
		if booking.CustomerEmail == "" {
			vars["customer_email"] = defaultIfEmpty(booking.Customer.Email, "Not provided")
		}
	}
	if booking.Dealership != nil {
		vars["dealership_name"] = booking.Dealership.Name
	}
	if contact != nil {
		vars["pickup_phone"] = contact.Phone
		vars["pickup_address"] = joinNonEmpty(", ", contact.Address, contact.City)
	}
	return vars
}

// attemptEmail runs the email step for one recipient: skipped when there is no
// address or the user opted out, failed on template or provider errors.
func (s *DispatchService) attemptEmail(ctx context.Context, userID, to, templateName string, vars map[string]any) ChannelResult {
	if strings.TrimSpace(to) == "" {
		metrics.ChannelAttempts.WithLabelValues(models.ChannelEmail, StatusSkipped).Inc()
		return ChannelResult{Channel: models.ChannelEmail, Status: StatusSkipped, Detail: "no email address"}
	}

	allowed, err := s.prefs.Allows(ctx, userID, models.ChannelEmail)
	if err != nil {
		s.log.Warn("preference lookup failed, defaulting to send",
			zap.String("user_id", userID), zap.Error(err))
		allowed = true
	}
	if !allowed {
		metrics.ChannelAttempts.WithLabelValues(models.ChannelEmail, StatusSkipped).Inc()
		return ChannelResult{Channel: models.ChannelEmail, Status: StatusSkipped, Detail: "user opted out"}
	}

	if err := s.SendEmail(ctx, to, templateName, vars); err != nil {
		metrics.ChannelAttempts.WithLabelValues(models.ChannelEmail, StatusFailed).Inc()
		s.log.Error("email delivery failed",
			zap.String("user_id", userID),
			zap.String("template", templateName),
			zap.Error(err))
		return ChannelResult{Channel: models.ChannelEmail, Status: StatusFailed, Detail: err.Error()}
	}

	metrics.ChannelAttempts.WithLabelValues(models.ChannelEmail, StatusSent).Inc()
	return ChannelResult{Channel: models.ChannelEmail, Status: StatusSent}
}

// attemptSMS mirrors attemptEmail for the SMS channel.
func (s *DispatchService) attemptSMS(ctx context.Context, userID, to, templateName string, vars map[string]any) ChannelResult {
	if strings.TrimSpace(to) == "" {
		metrics.ChannelAttempts.WithLabelValues(models.ChannelSMS, StatusSkipped).Inc()
		return ChannelResult{Channel: models.ChannelSMS, Status: StatusSkipped, Detail: "no phone number"}
	}

	allowed, err := s.prefs.Allows(ctx, userID, models.ChannelSMS)
	if err != nil {
		s.log.Warn("preference lookup failed, defaulting to send",
			zap.String("user_id", userID), zap.Error(err))
		allowed = true
	}
	if !allowed {
		metrics.ChannelAttempts.WithLabelValues(models.ChannelSMS, StatusSkipped).Inc()
		return ChannelResult{Channel: models.ChannelSMS, Status: StatusSkipped, Detail: "user opted out"}
	}

	if err := s.SendSMS(ctx, to, templateName, vars); err != nil {
		metrics.ChannelAttempts.WithLabelValues(models.ChannelSMS, StatusFailed).Inc()
		s.log.Error("sms delivery failed",
			zap.String("user_id", userID),
			zap.String("template", templateName),
			zap.Error(err))
		return ChannelResult{Channel: models.ChannelSMS, Status: StatusFailed, Detail: err.Error()}
	}

	metrics.ChannelAttempts.WithLabelValues(models.ChannelSMS, StatusSent).Inc()
	return ChannelResult{Channel: models.ChannelSMS, Status: StatusSent}
}

func (s *DispatchService) recordAttempt(channel string, err error) ChannelResult {
	if err != nil {
		metrics.ChannelAttempts.WithLabelValues(channel, StatusFailed).Inc()
		return ChannelResult{Channel: channel, Status: StatusFailed, Detail: err.Error()}
	}
	metrics.ChannelAttempts.WithLabelValues(channel, StatusSent).Inc()
	return ChannelResult{Channel: channel, Status: StatusSent}
}

func dispatchResult(report *DispatchReport) string {
	if report.Failed() > 0 {
		return "partial"
	}
	return "ok"
}
