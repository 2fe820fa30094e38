// Command server runs the facility reservation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/facility-reservation/internal/availability"
	"github.com/iliyamo/facility-reservation/internal/booking"
	"github.com/iliyamo/facility-reservation/internal/config"
	"github.com/iliyamo/facility-reservation/internal/handler"
	"github.com/iliyamo/facility-reservation/internal/hold"
	"github.com/iliyamo/facility-reservation/internal/mail"
	"github.com/iliyamo/facility-reservation/internal/metrics"
	"github.com/iliyamo/facility-reservation/internal/middleware"
	"github.com/iliyamo/facility-reservation/internal/pricing"
	"github.com/iliyamo/facility-reservation/internal/queue"
	"github.com/iliyamo/facility-reservation/internal/repository"
	"github.com/iliyamo/facility-reservation/internal/router"
	"github.com/iliyamo/facility-reservation/internal/scheduler"
	"github.com/iliyamo/facility-reservation/internal/service"
)

const shutdownTimeout = 15 * time.Second

func setupLogger(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DefaultContextLogger = &log.Logger
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("server terminated with error")
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	cmsCfg, err := config.LoadCMSConfig()
	if err != nil {
		return err
	}
	pricingCfg, err := config.LoadPricingConfig()
	if err != nil {
		return err
	}
	transport, err := config.LoadMailTransport()
	if err != nil {
		return err
	}
	smtpCfg := config.LoadSMTPConfig()
	brokerCfg := config.LoadBrokerConfig()
	schedCfg := config.LoadSchedulerConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("facility_reservation")

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}
	holds := hold.NewManager(holdStore(cfg.HoldBackend, rdb), cfg.HoldTTL, nil)

	cms := repository.NewCMSClient(cmsCfg.BaseURL, cmsCfg.Token, cmsCfg.Timeout).WithObserver(m.CMSRequest)
	facilities := repository.NewFacilityRepo(cms)
	bookings := repository.NewBookingRepo(cms)
	uploads := repository.NewUploadRepo(cms)

	sender, err := newSender(ctx, transport, smtpCfg, cfg.PublicBaseURL)
	if err != nil {
		return err
	}
	direct := service.NewDirectNotifier(sender, m)
	defer direct.Wait()

	var notifier service.Notifier = direct
	var publisher *queue.Publisher
	if brokerCfg.URL != "" {
		publisher = queue.NewPublisher(brokerCfg.URL, brokerCfg.Queue)
		defer publisher.Close()
		notifier = service.NewQueueNotifier(publisher, direct)
	}
	notifications := service.NewNotifications(notifier, smtpCfg.AdminEmail)

	validator := booking.NewValidator(booking.General, cfg.Location)
	resolver := availability.DefaultResolver()
	engine := pricing.NewEngine(pricingCfg.ConsumableRates)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.RequestID(), middleware.AccessLog(m), middleware.Recover())

	router.RegisterRoutes(e, m)
	router.RegisterPublic(e, router.Public{
		Availability: handler.NewAvailabilityHandler(facilities, bookings, holds, resolver, m),
		Bookings: handler.NewBookingHandler(handler.BookingHandler{
			Facilities:  facilities,
			Bookings:    bookings,
			Uploads:     uploads,
			Holds:       holds,
			Resolver:    resolver,
			Validator:   validator,
			Pricing:     engine,
			Numbers:     booking.NewNumberGenerator(bookings, nil),
			Notify:      notifications,
			Cache:       cache,
			Metrics:     m,
			PhoneRegion: cfg.PhoneRegion,
		}),
		Pricing: handler.NewPricingHandler(facilities, engine),
	}, middleware.RateLimit(config.LoadRateLimitConfig(), rdb), cache)
	router.RegisterAdmin(e,
		handler.NewAdminHandler(facilities, bookings, notifications, cache),
		handler.NewNotificationHandler(notifications),
		cfg.AdminJWTSecret,
	)
	if cfg.AdminJWTSecret == "" {
		log.Warn().Msg("ADMIN_JWT_SECRET is empty: admin endpoints are open")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("holds", cfg.HoldBackend).Msg("listening")
		if err := e.Start(addr); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if publisher != nil && brokerCfg.ConsumerEnabled {
		g.Go(func() error {
			err := queue.StartNotificationConsumer(ctx, brokerCfg.URL, brokerCfg.Queue, direct.Deliver)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if schedCfg.Enabled {
		sched, err := newScheduler(cfg, schedCfg, holds, bookings, facilities, notifications)
		if err != nil {
			return err
		}
		sched.Start()
		g.Go(func() error {
			<-ctx.Done()
			return sched.Stop()
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down server")
		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func holdStore(backend string, rdb *redis.Client) hold.Store {
	if backend == "redis" {
		if rdb != nil {
			return hold.NewRedisStore(rdb, "hold")
		}
		log.Warn().Msg("HOLD_BACKEND=redis but redis is unavailable: using in-process holds")
	}
	return hold.NewMemoryStore()
}

func newSender(ctx context.Context, transport string, smtpCfg config.SMTPConfig, publicBaseURL string) (service.Sender, error) {
	if transport == config.MailSES {
		ses, err := mail.NewSESSender(ctx, config.LoadSESConfig(), smtpCfg.From, publicBaseURL)
		if err != nil {
			return nil, err
		}
		return ses, nil
	}
	if !smtpCfg.Enabled() {
		log.Warn().Msg("SMTP_HOST is empty: e-mails are logged, not sent")
	}
	return mail.NewSender(smtpCfg, publicBaseURL), nil
}

func newScheduler(
	cfg config.Config,
	schedCfg config.SchedulerConfig,
	holds *hold.Manager,
	bookings *repository.BookingRepo,
	facilities *repository.FacilityRepo,
	notify *service.Notifications,
) (*scheduler.Service, error) {
	sched, err := scheduler.New(cfg.Location)
	if err != nil {
		return nil, err
	}
	if err := scheduler.RegisterHoldSweep(sched, holds, schedCfg.HoldSweepEvery); err != nil {
		return nil, err
	}
	if schedCfg.ReminderCron != "" {
		reminders := &scheduler.PaymentReminders{Bookings: bookings, Facilities: facilities, Notify: notify}
		if err := scheduler.RegisterPaymentReminders(sched, reminders, schedCfg.ReminderCron); err != nil {
			return nil, err
		}
	}
	return sched, nil
}
