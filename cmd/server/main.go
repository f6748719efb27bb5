package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/summit-hub/booking-api/internal/cache"
	"github.com/summit-hub/booking-api/internal/config"
	"github.com/summit-hub/booking-api/internal/database"
	"github.com/summit-hub/booking-api/internal/handler"
	"github.com/summit-hub/booking-api/internal/logging"
	"github.com/summit-hub/booking-api/internal/middleware"
	"github.com/summit-hub/booking-api/internal/notify"
	"github.com/summit-hub/booking-api/internal/queue"
	"github.com/summit-hub/booking-api/internal/repository"
	"github.com/summit-hub/booking-api/internal/router"
	"github.com/summit-hub/booking-api/internal/scheduler"
	"github.com/summit-hub/booking-api/internal/service"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New("summit-hub", cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DSN())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	stations := repository.NewStationRepo(db)
	bookings := repository.NewBookingRepo(db)
	admin := repository.NewAdminRepo(db)
	analytics := repository.NewAnalyticsRepo(db)

	if err := service.Bootstrap(ctx, stations, users, service.BootstrapConfig{
		Email:      cfg.AdminEmail,
		Password:   cfg.AdminPassword,
		Name:       cfg.AdminName,
		BcryptCost: cfg.BcryptCost,
	}, logger); err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable: rate limits, caches and CSRF tokens are per process")
	} else {
		defer rdb.Close()
	}
	userLoader := cache.NewUserLoader(users, cache.NewUserCache(rdb, cfg.UserCacheTTL))
	csrf := cache.NewTokenStore(rdb, cfg.CSRFTTL)

	var notifier notify.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	var events service.EventPublisher = queue.Discard{}
	publisherDone := make(chan struct{})
	if cfg.RabbitURL != "" {
		pub := queue.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue, logger)
		defer pub.Close()
		// requests only enqueue; a slow or absent broker never delays a response
		async := queue.NewAsync(pub, 1024, 3*time.Second, logger)
		events = async
		go func() {
			async.Run(ctx)
			close(publisherDone)
		}()

		activity, closer, err := queue.OpenActivityLog(cfg.ActivityLog)
		if err != nil {
			logger.Fatalf("activity log: %v", err)
		}
		defer closer.Close()
		go func() {
			h := queue.NotifyingHandler(activity, notifier, logger)
			if err := queue.Consume(ctx, cfg.RabbitURL, cfg.RabbitQueue, h, logger); err != nil && ctx.Err() == nil {
				logger.Errorf("booking-consumer stopped: %v", err)
			}
		}()
	} else {
		logger.Info("RABBITMQ_URL not set: booking events disabled")
		close(publisherDone)
	}

	bookingSvc := service.NewBookingService(bookings, users, events, logger)
	stationSvc := service.NewStationService(stations, bookings)
	adminSvc := service.NewAdminService(admin, bookingSvc, analytics, logger).
		WithStationCache(middleware.NewRoutePurger(cfg.Cache, rdb, router.StationListPath))
	authSvc := service.NewAuthService(users, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})

	sched := scheduler.New(logger)
	reminder := service.NewReminder(bookings, notifier, logger)
	if err := sched.Add("booking-reminders", cfg.ReminderCron, cfg.ReminderTimeout, func(ctx context.Context) error {
		_, err := reminder.Run(ctx)
		return err
	}); err != nil {
		logger.Fatalf("scheduler: %v", err)
	}
	sched.Start()

	e := newServer(logger)
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})

	api := e.Group("/api")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))
	}
	guards := router.Guards{JWTSecret: cfg.JWTSecret, Users: userLoader, CSRF: csrf}
	router.RegisterAuth(api, handler.NewAuthHandler(authSvc, csrf), guards)
	router.RegisterBookings(api, handler.NewBookingHandler(bookingSvc, stationSvc), handler.NewStationHandler(stationSvc),
		guards, middleware.NewRedisCache(cfg.Cache, rdb))
	router.RegisterAdmin(api, handler.NewAdminHandler(adminSvc), guards)

	go func() {
		addr := ":" + cfg.Port
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	sched.Stop(shutdownCtx)
	select {
	case <-publisherDone:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown: undelivered booking events dropped")
	}
}

func newServer(logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	return e
}
