package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/app"
	iauth "github.com/hamzarao/carsaaz/internal/auth"
	"github.com/hamzarao/carsaaz/internal/handlers"
	"github.com/hamzarao/carsaaz/internal/middleware"
	"github.com/hamzarao/carsaaz/internal/models"
	"github.com/hamzarao/carsaaz/internal/notifications"
	"github.com/hamzarao/carsaaz/internal/services"
)

// Services bundles the constructed service layer the router wires handlers to.
type Services struct {
	Auth          *services.AuthService
	Bookings      *services.BookingService
	Contacts      *services.ContactService
	Dispatch      *services.DispatchService
	Notifications *services.NotificationService
	Preferences   *services.PreferenceService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svcs Services, hub *notifications.Hub) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	r.GET("/health", handlers.Health())
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler, err := handlers.NewAuthHandler(svcs.Auth)
	if err != nil {
		return nil, err
	}
	notificationHandler, err := handlers.NewNotificationHandler(svcs.Notifications, hub, jwt)
	if err != nil {
		return nil, err
	}
	bookingHandler, err := handlers.NewBookingHandler(svcs.Bookings, svcs.Dispatch)
	if err != nil {
		return nil, err
	}
	contactHandler, err := handlers.NewContactHandler(svcs.Contacts)
	if err != nil {
		return nil, err
	}
	preferenceHandler, err := handlers.NewPreferenceHandler(svcs.Preferences)
	if err != nil {
		return nil, err
	}

	// Public auth routes
	r.POST("/api/auth/login", authHandler.Login)

	// The websocket stream authenticates via query token, outside the
	// header-based auth middleware.
	r.GET("/api/notifications/stream", notificationHandler.Stream)

	requireAuth := middleware.Auth(jwt)
	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	notificationsGroup := api.Group("/notifications")
	{
		notificationsGroup.GET("", notificationHandler.List)
		notificationsGroup.GET("/unread-count", notificationHandler.UnreadCount)
		notificationsGroup.POST("/read-all", notificationHandler.MarkAllRead)
		notificationsGroup.POST("/:id/read", notificationHandler.MarkRead)
	}

	bookings := api.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole(models.RoleCustomer), bookingHandler.Create)
		bookings.GET("/:id", bookingHandler.Get)
		bookings.POST("/:id/confirm", middleware.RequireRole(models.RoleDealer), bookingHandler.Confirm)
	}

	dealerships := api.Group("/dealerships")
	{
		dealerships.GET("/:id/contact", contactHandler.Get)
		dealerships.PUT("/:id/contact", middleware.RequireRole(models.RoleDealer), contactHandler.Upsert)
	}

	preferences := api.Group("/preferences")
	{
		preferences.GET("", preferenceHandler.Get)
		preferences.PUT("", preferenceHandler.Upsert)
	}

	return r, nil
}
