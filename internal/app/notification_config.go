package app

import (
	"github.com/hamzarao/carsaaz/pkg/mail"
	"github.com/hamzarao/carsaaz/pkg/sms"
)

// MailSettings converts EmailProviderConfig to the mail package representation.
func (c NotificationConfig) MailSettings() mail.Settings {
	return mail.Settings{
		APIKey:  c.Email.APIKey,
		From:    c.Email.From,
		BaseURL: c.Email.BaseURL,
		Timeout: c.Email.Timeout,
	}
}

// SMSSettings converts SMSProviderConfig to the sms package representation.
func (c NotificationConfig) SMSSettings() sms.Settings {
	return sms.Settings{
		AccountSID: c.SMS.AccountSID,
		AuthToken:  c.SMS.AuthToken,
		FromNumber: c.SMS.FromNumber,
		BaseURL:    c.SMS.BaseURL,
		Timeout:    c.SMS.Timeout,
	}
}
