package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/app"
	iauth "github.com/hamzarao/carsaaz/internal/auth"
	testutil "github.com/hamzarao/carsaaz/internal/database/testutil"
	"github.com/hamzarao/carsaaz/internal/notifications"
	"github.com/hamzarao/carsaaz/internal/services"
	"github.com/hamzarao/carsaaz/pkg/mail"
	"github.com/hamzarao/carsaaz/pkg/sms"
)

func newTestRouter(t *testing.T, db *gorm.DB, cfg *app.Config) *gin.Engine {
	t.Helper()

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "test", AccessTokenTTL: 15 * time.Minute})
	if err != nil {
		t.Fatalf("jwt service: %v", err)
	}

	hub := notifications.NewHub()
	mailer, err := mail.NewResendMailer(mail.Settings{})
	if err != nil {
		t.Fatalf("mailer: %v", err)
	}
	sender, err := sms.NewTwilioSender(sms.Settings{})
	if err != nil {
		t.Fatalf("sms sender: %v", err)
	}

	authSvc, err := services.NewAuthService(db, jwtSvc)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	bookingSvc, err := services.NewBookingService(db)
	if err != nil {
		t.Fatalf("booking service: %v", err)
	}
	contactSvc, err := services.NewContactService(db)
	if err != nil {
		t.Fatalf("contact service: %v", err)
	}
	notificationSvc, err := services.NewNotificationService(db, hub)
	if err != nil {
		t.Fatalf("notification service: %v", err)
	}
	templateSvc, err := services.NewTemplateService(db)
	if err != nil {
		t.Fatalf("template service: %v", err)
	}
	preferenceSvc, err := services.NewPreferenceService(db)
	if err != nil {
		t.Fatalf("preference service: %v", err)
	}
	dispatchSvc, err := services.NewDispatchService(db, notificationSvc, templateSvc, preferenceSvc, mailer, sender)
	if err != nil {
		t.Fatalf("dispatch service: %v", err)
	}

	router, err := NewRouter(db, jwtSvc, cfg, Services{
		Auth:          authSvc,
		Bookings:      bookingSvc,
		Contacts:      contactSvc,
		Dispatch:      dispatchSvc,
		Notifications: notificationSvc,
		Preferences:   preferenceSvc,
	}, hub)
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	return router
}

func TestRouterPublicAndProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	cfg := &app.Config{}
	router := newTestRouter(t, db, cfg)

	// Health should be public
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200 for /health, got %d", w.Code)
	}

	// Protected endpoints without a token should be 401
	for _, path := range []string{"/api/auth/me", "/api/notifications", "/api/preferences"} {
		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)
		if w.Code != 401 {
			t.Fatalf("expected 401 for %s without token, got %d", path, w.Code)
		}
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	cfg := &app.Config{}
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	router := newTestRouter(t, db, cfg)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("expected 200 for /metrics, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("expected prometheus output, got %q", w.Body.String()[:min(len(w.Body.String()), 200)])
	}
}

func TestRouterUnknownRouteReturnsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	router := newTestRouter(t, db, &app.Config{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/nope", nil)
	router.ServeHTTP(w, req)
	if w.Code != 404 {
		t.Fatalf("expected 404 for unknown route, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON not-found body, got content type %q", ct)
	}
}
