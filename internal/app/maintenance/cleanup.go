package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamzarao/carsaaz/internal/services"
	"github.com/hamzarao/carsaaz/pkg/logger"
)

const (
	defaultOfferTTL              = 48 * time.Hour
	defaultNotificationRetention = 90 * 24 * time.Hour
	defaultExpirySpec            = "@hourly"
	defaultPruneSpec             = "@daily"
)

// Sweeper runs background maintenance: expiring stale pending booking
// requests and pruning old read notifications.
type Sweeper struct {
	bookings      *services.BookingService
	dispatch      *services.DispatchService
	notifications *services.NotificationService

	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	offerTTL  time.Duration
	retention time.Duration

	expirySchedule string
	pruneSchedule  string
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for cutoff comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOfferTTL adjusts how long a pending booking request stays open before
// it is expired.
func WithOfferTTL(ttl time.Duration) Option {
	return func(s *Sweeper) {
		if ttl > 0 {
			s.offerTTL = ttl
		}
	}
}

// WithNotificationRetention adjusts how long read notifications are kept.
func WithNotificationRetention(retention time.Duration) Option {
	return func(s *Sweeper) {
		if retention > 0 {
			s.retention = retention
		}
	}
}

// WithExpirySchedule overrides the cron schedule for the booking expiry sweep.
func WithExpirySchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.expirySchedule = spec
		}
	}
}

// WithPruneSchedule overrides the cron schedule for notification pruning.
func WithPruneSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.pruneSchedule = spec
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults.
func NewSweeper(
	bookings *services.BookingService,
	dispatch *services.DispatchService,
	notifications *services.NotificationService,
	opts ...Option,
) *Sweeper {
	sweeper := &Sweeper{
		bookings:       bookings,
		dispatch:       dispatch,
		notifications:  notifications,
		now:            time.Now,
		offerTTL:       defaultOfferTTL,
		retention:      defaultNotificationRetention,
		expirySchedule: defaultExpirySpec,
		pruneSchedule:  defaultPruneSpec,
		log:            logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return sweeper
}

// Start registers the sweep jobs with the cron scheduler and launches it.
func (s *Sweeper) Start() error {
	if s.bookings != nil {
		if _, err := s.cron.AddFunc(s.expirySchedule, func() {
			if err := s.expireStaleBookings(context.Background()); err != nil {
				s.log.Warn("booking expiry sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if s.notifications != nil {
		if _, err := s.cron.AddFunc(s.pruneSchedule, func() {
			if err := s.pruneNotifications(context.Background()); err != nil {
				s.log.Warn("notification pruning failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes both sweeps sequentially. Used in tests and during
// graceful shutdown.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.bookings != nil {
		errs = multierr.Append(errs, s.expireStaleBookings(ctx))
	}
	if s.notifications != nil {
		errs = multierr.Append(errs, s.pruneNotifications(ctx))
	}
	return errs
}

func (s *Sweeper) expireStaleBookings(ctx context.Context) error {
	cutoff := s.now().Add(-s.offerTTL)
	expired, err := s.bookings.ExpirePendingOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	s.log.Info("expired stale booking requests", zap.Int("count", len(expired)))

	if s.dispatch == nil {
		return nil
	}

	var errs error
	for i := range expired {
		if err := s.dispatch.NotifyOfferExpired(ctx, &expired[i]); err != nil {
			s.log.Warn("offer expiry notification failed",
				zap.String("booking_id", expired[i].ID), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (s *Sweeper) pruneNotifications(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)
	removed, err := s.notifications.PruneRead(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("pruned read notifications", zap.Int64("count", removed))
	}
	return nil
}
