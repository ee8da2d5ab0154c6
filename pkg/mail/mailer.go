package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
	"github.com/hamzarao/carsaaz/pkg/logger"
)

const defaultBaseURL = "https://api.resend.com"

// Message represents an outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer defines behaviour for sending email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Settings capture the runtime configuration required by the Resend mailer.
// An empty APIKey switches the mailer into log-only mode: rendered messages
// are logged instead of sent, and Send returns nil.
type Settings struct {
	APIKey  string
	From    string
	BaseURL string
	Timeout time.Duration
}

type resendMailer struct {
	cfg    Settings
	client *http.Client
	log    *zap.Logger
}

// NewResendMailer validates the settings and constructs a Mailer backed by
// the Resend HTTP API.
func NewResendMailer(cfg Settings) (Mailer, error) {
	if strings.TrimSpace(cfg.APIKey) != "" && strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail: from address is required when an api key is configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &resendMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger.WithModule("mail"),
	}, nil
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *resendMailer) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return errors.New("mail: recipient address is required")
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("mail: invalid recipient address %q: %w", to, err)
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = m.cfg.From
	}

	if strings.TrimSpace(m.cfg.APIKey) == "" {
		m.log.Info("email delivery disabled; logging rendered message",
			zap.String("to", to),
			zap.String("subject", msg.Subject),
			zap.Int("body_bytes", len(msg.HTML)),
		)
		return nil
	}

	payload, err := json.Marshal(resendRequest{
		From:    from,
		To:      []string{to},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("mail: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("mail: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return apperrors.ErrDelivery.WithInternal(fmt.Errorf("resend: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return apperrors.ErrDelivery.WithInternal(
			fmt.Errorf("resend: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return nil
}
