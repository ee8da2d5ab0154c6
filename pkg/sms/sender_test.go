package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/hamzarao/carsaaz/pkg/errors"
)

func TestNewTwilioSenderValidatesConfig(t *testing.T) {
	_, err := NewTwilioSender(Settings{AccountSID: "AC123", AuthToken: "token"})
	if err == nil || !strings.Contains(err.Error(), "from number is required") {
		t.Fatalf("expected from-number validation error, got %v", err)
	}

	sender, err := NewTwilioSender(Settings{})
	if err != nil {
		t.Fatalf("expected credential-free configuration to succeed: %v", err)
	}
	if sender == nil {
		t.Fatal("expected sender to be returned")
	}
}

func TestTwilioSenderLogOnlyWithoutCredentials(t *testing.T) {
	sender, err := NewTwilioSender(Settings{})
	if err != nil {
		t.Fatalf("unexpected error creating sender: %v", err)
	}

	if err := sender.Send(context.Background(), "+923001234567", "New booking request"); err != nil {
		t.Fatalf("expected log-only send to succeed, got %v", err)
	}
}

func TestTwilioSenderRequiresRecipientAndBody(t *testing.T) {
	sender, err := NewTwilioSender(Settings{})
	if err != nil {
		t.Fatalf("unexpected error creating sender: %v", err)
	}

	if err := sender.Send(context.Background(), " ", "body"); err == nil {
		t.Fatal("expected missing recipient error")
	}
	if err := sender.Send(context.Background(), "+923001234567", ""); err == nil {
		t.Fatal("expected missing body error")
	}
}

func TestTwilioSenderPostsFormToProvider(t *testing.T) {
	var gotPath, gotUser, gotPass, gotTo, gotFrom, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender, err := NewTwilioSender(Settings{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15005550006",
		BaseURL:    server.URL,
	})
	if err != nil {
		t.Fatalf("unexpected error creating sender: %v", err)
	}

	if err := sender.Send(context.Background(), "+923001234567", "Corolla requested"); err != nil {
		t.Fatalf("expected send to succeed, got %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC123/Messages.json" {
		t.Fatalf("unexpected request path: %q", gotPath)
	}
	if gotUser != "AC123" || gotPass != "secret" {
		t.Fatalf("unexpected basic auth: %s:%s", gotUser, gotPass)
	}
	if gotTo != "+923001234567" || gotFrom != "+15005550006" {
		t.Fatalf("unexpected to/from: %s/%s", gotTo, gotFrom)
	}
	if gotBody != "Corolla requested" {
		t.Fatalf("unexpected body: %q", gotBody)
	}
}

func TestTwilioSenderSurfacesProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"queue unavailable"}`))
	}))
	defer server.Close()

	sender, err := NewTwilioSender(Settings{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15005550006",
		BaseURL:    server.URL,
	})
	if err != nil {
		t.Fatalf("unexpected error creating sender: %v", err)
	}

	err = sender.Send(context.Background(), "+923001234567", "body")
	if !errors.Is(err, apperrors.ErrDelivery) {
		t.Fatalf("expected ErrDelivery, got %v", err)
	}
	if !strings.Contains(err.Error(), "queue unavailable") {
		t.Fatalf("expected provider body in error detail, got %v", err)
	}
}
