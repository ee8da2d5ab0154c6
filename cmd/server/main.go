package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hamzarao/carsaaz/internal/api"
	"github.com/hamzarao/carsaaz/internal/app"
	"github.com/hamzarao/carsaaz/internal/app/maintenance"
	iauth "github.com/hamzarao/carsaaz/internal/auth"
	"github.com/hamzarao/carsaaz/internal/database"
	"github.com/hamzarao/carsaaz/internal/notifications"
	"github.com/hamzarao/carsaaz/internal/services"
	"github.com/hamzarao/carsaaz/pkg/logger"
	"github.com/hamzarao/carsaaz/pkg/mail"
	"github.com/hamzarao/carsaaz/pkg/sms"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("carsaaz-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if err := ensureSecretsPresent(cfg); err != nil {
		return err
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	mailer, err := mail.NewResendMailer(cfg.Notifications.MailSettings())
	if err != nil {
		return fmt.Errorf("initialise mailer: %w", err)
	}
	sender, err := sms.NewTwilioSender(cfg.Notifications.SMSSettings())
	if err != nil {
		return fmt.Errorf("initialise sms sender: %w", err)
	}

	hub := notifications.NewHub()

	svcs, err := buildServices(db, jwtService, hub, mailer, sender)
	if err != nil {
		return err
	}

	sweeperOpts := []maintenance.Option{}
	if cfg.Maintenance.OfferTTL > 0 {
		sweeperOpts = append(sweeperOpts, maintenance.WithOfferTTL(cfg.Maintenance.OfferTTL))
	}
	if cfg.Maintenance.NotificationRetention > 0 {
		sweeperOpts = append(sweeperOpts, maintenance.WithNotificationRetention(cfg.Maintenance.NotificationRetention))
	}

	sweeper := maintenance.NewSweeper(svcs.Bookings, svcs.Dispatch, svcs.Notifications, sweeperOpts...)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		<-sweeper.Stop().Done()
	}()

	router, err := api.NewRouter(db, jwtService, cfg, svcs, hub)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func buildServices(
	db *gorm.DB,
	jwtService *iauth.JWTService,
	hub *notifications.Hub,
	mailer mail.Mailer,
	sender sms.Sender,
) (api.Services, error) {
	authSvc, err := services.NewAuthService(db, jwtService)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise auth service: %w", err)
	}

	bookingSvc, err := services.NewBookingService(db)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise booking service: %w", err)
	}

	contactSvc, err := services.NewContactService(db)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise contact service: %w", err)
	}

	notificationSvc, err := services.NewNotificationService(db, hub)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise notification service: %w", err)
	}

	templateSvc, err := services.NewTemplateService(db)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise template service: %w", err)
	}

	preferenceSvc, err := services.NewPreferenceService(db)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise preference service: %w", err)
	}

	dispatchSvc, err := services.NewDispatchService(db, notificationSvc, templateSvc, preferenceSvc, mailer, sender)
	if err != nil {
		return api.Services{}, fmt.Errorf("initialise dispatch service: %w", err)
	}

	return api.Services{
		Auth:          authSvc,
		Bookings:      bookingSvc,
		Contacts:      contactSvc,
		Dispatch:      dispatchSvc,
		Notifications: notificationSvc,
		Preferences:   preferenceSvc,
	}, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Auth.JWT.Secret = strings.TrimSpace(cfg.Auth.JWT.Secret)
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	return nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = cfg.Database.Postgres.Password
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = cfg.Database.MySQL.Password
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("database close skipped", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}
}
