package main // Entry point package

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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/happycoon/coffee-table-reservation/internal/booking"
	"github.com/happycoon/coffee-table-reservation/internal/config"
	"github.com/happycoon/coffee-table-reservation/internal/database"
	"github.com/happycoon/coffee-table-reservation/internal/handler"
	"github.com/happycoon/coffee-table-reservation/internal/lock"
	"github.com/happycoon/coffee-table-reservation/internal/logging"
	"github.com/happycoon/coffee-table-reservation/internal/metrics"
	"github.com/happycoon/coffee-table-reservation/internal/middleware"
	"github.com/happycoon/coffee-table-reservation/internal/queue"
	"github.com/happycoon/coffee-table-reservation/internal/repository"
	"github.com/happycoon/coffee-table-reservation/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	zerolog.DefaultContextLogger = &log
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("connect database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	bookingCfg := config.LoadBookingConfig()
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	var locker lock.Locker = lock.NewLocal()
	if rdb != nil {
		locker = lock.NewRedis(rdb, bookingCfg.LockPrefix, bookingCfg.LockTTL, bookingCfg.LockPoll)
		log.Info().Msg("redis available: distributed booking lock, shared rate limit and table cache enabled")
	} else {
		log.Warn().Msg("redis unavailable: using in-process lock and rate limiter, table cache disabled")
	}

	queueCfg := config.LoadQueueConfig()
	var events queue.Publisher = queue.NopPublisher{}
	if queueCfg.Enabled {
		events = queue.NewAMQPPublisher(queueCfg.URL, queueCfg.Queue)
	}
	if queueCfg.ConsumerEnabled {
		go func() {
			if err := queue.StartConsumer(ctx, queueCfg, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("audit consumer stopped")
			}
		}()
	}

	users := repository.NewUserRepo(db)
	svc := booking.NewService(booking.Deps{
		DB:       db,
		Tables:   repository.NewTableRepo(db),
		Bookings: repository.NewBookingRepo(db),
		Locker:   locker,
		Events:   events,
		Rules: booking.Rules{
			MinDuration: bookingCfg.MinDuration,
			MaxDuration: bookingCfg.MaxDuration,
			OpenHour:    bookingCfg.OpenHour,
			CloseHour:   bookingCfg.CloseHour,
		},
		Clock:  booking.ShopClock(bookingCfg.Location),
		Retry:  database.RetryPolicy{Attempts: cfg.DBRetryAttempts, Backoff: cfg.DBRetryBackoff},
		Logger: &log,
	})

	cacheCfg := config.LoadCacheConfig()
	invalidate := func(ctx context.Context) {
		if err := middleware.InvalidateRoute(ctx, rdb, cacheCfg, "/v1/tables"); err != nil {
			log.Warn().Err(err).Msg("invalidate table cache")
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover(), middleware.RequestLogger(log), middleware.Metrics())

	guard := router.Guard{
		JWTSecret: cfg.JWTSecret,
		Users:     users,
		Limit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	}
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db)), guard)
	router.RegisterTables(e, handler.NewTableHandler(svc, invalidate), guard, cacheMiddleware(cacheCfg, rdb, log))
	router.RegisterBookings(e, handler.NewBookingHandler(svc), guard)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("db", string(dialect)).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}

func cacheMiddleware(cfg config.CacheConfig, rdb *redis.Client, log zerolog.Logger) echo.MiddlewareFunc {
	if rdb == nil || !cfg.Enabled {
		return nil
	}
	return middleware.NewRedisCache(cfg, rdb, log)
}
