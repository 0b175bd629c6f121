package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/jewelry-storefront/internal/addressbook"
	"github.com/iliyamo/jewelry-storefront/internal/config"
	"github.com/iliyamo/jewelry-storefront/internal/database"
	"github.com/iliyamo/jewelry-storefront/internal/gateway"
	"github.com/iliyamo/jewelry-storefront/internal/handler"
	"github.com/iliyamo/jewelry-storefront/internal/middleware"
	"github.com/iliyamo/jewelry-storefront/internal/model"
	"github.com/iliyamo/jewelry-storefront/internal/queue"
	"github.com/iliyamo/jewelry-storefront/internal/repository"
	"github.com/iliyamo/jewelry-storefront/internal/router"
	"github.com/iliyamo/jewelry-storefront/internal/service"
	"github.com/iliyamo/jewelry-storefront/internal/session"
	"github.com/iliyamo/jewelry-storefront/internal/shop"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// Redis serves the login rate limiter and, with STATE_BACKEND=redis, the
	// persisted session.  NewRedisClient returns nil when it is unreachable.
	rdb := config.NewRedisClient(cfg.Redis, logger)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	state, closeState, err := openState(ctx, cfg, rdb, logger)
	if err != nil {
		return err
	}
	defer closeState()

	gw := gateway.New(gateway.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		State:   state,
		Logger:  logger,
	})

	sess := session.New(gw, state, logger)
	if err := sess.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	var publisher shop.OrderPublisher
	if cfg.EventsEnabled {
		publisher = service.NewOrderPublisher(cfg.RabbitURL, logger)
	}
	store := shop.New(shop.Options{Backend: gw, Identity: sess, Publisher: publisher, Logger: logger})
	store.LoadProducts(ctx)
	if store.Degraded() {
		logger.Warn("catalog served from the built-in fallback", zap.String("api", cfg.APIBaseURL))
	}

	book := addressbook.New(gw, sess, logger)
	sess.OnSignInRequired(func(_ context.Context, reason session.Reason) {
		if reason == session.ReasonRegistered {
			return
		}
		book.Reset()
		store.ForgetOrders()
	})
	sess.OnAuthenticated(func(ctx context.Context, u model.User) {
		store.ForgetOrders()
		book.Reset()
		if _, err := book.Load(ctx); err != nil {
			logger.Warn("address book load failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	})

	if cfg.OrderLogConsumer {
		consumer := &queue.OrderLogConsumer{URL: cfg.RabbitURL, Path: cfg.OrderLogPath, Log: logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("order log consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))

	router.RegisterRoutes(e, router.Handlers{
		Health:     handler.Health(store),
		Session:    handler.NewSessionHandler(sess),
		Catalog:    handler.NewCatalogHandler(store),
		Cart:       handler.NewCartHandler(store),
		Orders:     handler.NewOrderHandler(store),
		Addresses:  handler.NewAddressHandler(book),
		Admin:      handler.NewAdminHandler(store),
		Identity:   sess,
		LoginLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, logger),
	})

	addr := ":" + cfg.Port
	logger.Info("listening",
		zap.String("addr", addr),
		zap.String("env", cfg.Env),
		zap.String("state", cfg.StateBackend),
		zap.Bool("signed_in", sess.Authenticated()))

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openState picks where the session token and user snapshot persist.
func openState(ctx context.Context, cfg config.Config, rdb *redis.Client, logger *zap.Logger) (repository.StateStore, func(), error) {
	switch cfg.StateBackend {
	case config.StateRedis:
		if rdb == nil {
			return nil, nil, errors.New("STATE_BACKEND=redis but redis is unreachable")
		}
		return repository.NewRedisStateStore(rdb, cfg.StatePrefix), func() {}, nil
	case config.StateMySQL:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		st := repository.NewMySQLStateStore(db, cfg.StatePrefix)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return st, closeDB(db, logger), nil
	}
	return repository.NewMemoryStateStore(), func() {}, nil
}

func closeDB(db *sql.DB, logger *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database", zap.Error(err))
		}
	}
}
