// Command smartsprint serves the SmartSprint authentication and user API.
//
// @title                       SmartSprint API
// @version                     1.0
// @description                 Authentication and role-based access control for the SmartSprint project tracker.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/smartsprint/smartsprint/internal/api"
	"github.com/smartsprint/smartsprint/internal/api/handler"
	"github.com/smartsprint/smartsprint/internal/core/ports"
	"github.com/smartsprint/smartsprint/internal/core/service"
	"github.com/smartsprint/smartsprint/internal/infrastructure/config"
	mongostore "github.com/smartsprint/smartsprint/internal/infrastructure/db/mongo"
	redisstore "github.com/smartsprint/smartsprint/internal/infrastructure/db/redis"
	"github.com/smartsprint/smartsprint/internal/infrastructure/db/sqlite"
	"github.com/smartsprint/smartsprint/internal/infrastructure/queue"
	"github.com/smartsprint/smartsprint/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// store bundles the credential store and audit sink of one backend.
type store struct {
	users interface {
		ports.UserRepository
		Ping(ctx context.Context) error
	}
	audit ports.AuditRepository
	close func(ctx context.Context) error
}

func main() {
	cfg := config.MustLoad(context.Background())

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "smartsprint",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("smartsprint stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := st.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("store close failed")
		}
	}()

	readiness := map[string]handler.Checker{"store": st.users.Ping}

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:   cfg.Auth.JWTSecret,
		Lifetime: cfg.Auth.TokenLifetime,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, cfg.Audit.QueueSize, st.audit, log)
	dispatcher.Start(ctx)
	defer dispatcher.Close()

	authOpts := []service.AuthOption{service.WithAuditRecorder(dispatcher)}
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			PoolSize:  cfg.Redis.PoolSize,
			Timeout:   cfg.Redis.Timeout,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		throttle := redisstore.NewLoginThrottle(rdb, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginLockout)
		authOpts = append(authOpts, service.WithLoginThrottle(throttle))
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttle enabled")
	}

	created, err := service.EnsureAdminUser(ctx, st.users, hasher, service.AdminSeed{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	}, log)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("email", cfg.Admin.Email).Msg("seed admin created")
	}

	router := api.NewRouter(api.Deps{
		Log:            log,
		Auth:           service.NewAuthService(st.users, hasher, tokens, log, authOpts...),
		Users:          service.NewUserService(st.users, hasher, dispatcher, log),
		Tokens:         tokens,
		Store:          st.users,
		Readiness:      readiness,
		MetricsEnabled: cfg.MetricsEnabled,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("server shutting down")
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	// Drain queued audit events before the store goes away.
	dispatcher.Close()
	log.Info().Msg("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Store.SQLitePath})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Store.SQLitePath).Msg("sqlite store opened")
		return &store{
			users: sqlite.NewUserRepository(db),
			audit: sqlite.NewAuditRepository(db),
			close: func(context.Context) error { return db.Close() },
		}, nil

	case config.DriverMongo:
		ms, err := mongostore.Open(ctx, mongostore.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
			Timeout:     cfg.Mongo.Timeout,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store connected")
		return &store{users: ms.Users, audit: ms.Audit, close: ms.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
