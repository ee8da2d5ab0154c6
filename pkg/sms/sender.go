package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/logger"
)

const defaultBaseURL = "https://api.twilio.com"

// Sender defines behaviour for sending SMS messages.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Settings capture the runtime configuration required by the Twilio sender.
// Missing credentials switch the sender into log-only mode: rendered
// messages are logged instead of sent, and Send returns nil.
type Settings struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
	Timeout    time.Duration
}

type twilioSender struct {
	cfg    Settings
	client *http.Client
	log    *zap.Logger
}

// NewTwilioSender validates the settings and constructs a Sender backed by
// the Twilio Messages API.
func NewTwilioSender(cfg Settings) (Sender, error) {
	if cfg.credentialed() && strings.TrimSpace(cfg.FromNumber) == "" {
		return nil, errors.New("sms: from number is required when credentials are configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &twilioSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger.WithModule("sms"),
	}, nil
}

func (c Settings) credentialed() bool {
	return strings.TrimSpace(c.AccountSID) != "" && strings.TrimSpace(c.AuthToken) != ""
}

func (s *twilioSender) Send(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("sms: recipient number is required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("sms: message body is required")
	}

	if !s.cfg.credentialed() {
		s.log.Info("sms delivery disabled; logging rendered message",
			zap.String("to", to),
			zap.Int("body_bytes", len(body)),
		)
		return nil
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.ErrDelivery.WithInternal(fmt.Errorf("twilio: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.ErrDelivery.WithInternal(
			fmt.Errorf("twilio: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	return nil
}
