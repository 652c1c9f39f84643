package cli

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/coworking-booking/internal/config"
	"github.com/iliyamo/coworking-booking/internal/database"
	"github.com/iliyamo/coworking-booking/internal/handler"
	"github.com/iliyamo/coworking-booking/internal/lock"
	"github.com/iliyamo/coworking-booking/internal/middleware"
	"github.com/iliyamo/coworking-booking/internal/queue"
	"github.com/iliyamo/coworking-booking/internal/repository"
	"github.com/iliyamo/coworking-booking/internal/router"
	"github.com/iliyamo/coworking-booking/internal/service"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log.SetLevel(parseLevel(cfg.LogLevel))

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			db, err := database.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if migrateUp {
				applied, err := database.Migrate(ctx, db)
				if err != nil {
					return err
				}
				if len(applied) > 0 {
					log.Infof("applied migrations %v", applied)
				}
			}

			e, cleanup := newServer(ctx, cfg, db)
			defer cleanup()
			return run(ctx, e, ":"+cfg.Port)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	return cmd
}

// newServer wires repositories, services, handlers and middleware into
// an Echo instance.  Redis and RabbitMQ are optional: without them the
// cache, rate limiter and lock are disabled and events are dropped.
func newServer(ctx context.Context, cfg config.Config, db *sql.DB) (*echo.Echo, func()) {

	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()
	lockCfg := config.LoadLockConfig()
	eventsCfg := config.LoadEventsConfig()

	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable: cache, rate limiting and booking lock disabled")
	}

	var publisher service.EventPublisher = queue.Discard{}
	closers := []func() error{}
	if eventsCfg.Enabled {
		p := queue.NewPublisher(eventsCfg.URL)
		publisher = p
		closers = append(closers, p.Close)
	}
	if rdb != nil {
		closers = append(closers, rdb.Close)
	}
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	resources := repository.NewResourceRepo(db)
	bookings := repository.NewBookingRepo(db)

	bookingSvc := service.NewBookingService(resources, bookings,
		service.WithLocker(lock.New(lockCfg, rdb)),
		service.WithPublisher(publisher),
	)
	resourceSvc := service.NewResourceService(resources)

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(parseLevel(cfg.LogLevel))
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.NewTokenBucket(rlCfg, rdb))

	bookingH := handler.NewBookingHandler(bookingSvc, cfg.RequestTimeout)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterResources(e,
		handler.NewResourceHandler(resourceSvc, bookingSvc, cfg.RequestTimeout),
		cfg.JWTSecret,
		middleware.NewRedisCache(cacheCfg, rdb),
		middleware.InvalidateOnWrite(cacheCfg, rdb),
	)
	router.RegisterBookings(e, bookingH, handler.NewStaffBookingHandler(bookingH), cfg.JWTSecret,
		middleware.InvalidateOnWrite(cacheCfg, rdb),
		middleware.NewBookingThrottle(rlCfg, rdb),
	)
	return e, cleanup
}

// run starts e and shuts it down gracefully when ctx is cancelled.
func run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
