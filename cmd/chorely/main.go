package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/firebaseapp"
	"github.com/dukerupert/chorely/internal/identity"
	"github.com/dukerupert/chorely/internal/logging"
	"github.com/dukerupert/chorely/internal/server"
	"github.com/dukerupert/chorely/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("chorely exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	resolver, closeResolver, err := newResolver(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeResolver()

	srv := server.New(db, resolver, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()
	defer close(stopCleanup)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("chorely listening", "addr", httpServer.Addr, "identity_provider", cfg.IdentityProvider)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// newResolver picks the identity backend and wraps it with the Redis token
// cache when one is configured.
func newResolver(ctx context.Context, cfg config.Config, db *sql.DB, logger *slog.Logger) (identity.Resolver, func(), error) {
	var resolver identity.Resolver
	switch cfg.IdentityProvider {
	case config.ProviderLocal:
		resolver = identity.NewLocalResolver(cfg.JWTSecret, store.NewUserStore(db))
	default:
		app, err := firebaseapp.New(ctx, cfg.Firebase)
		if err != nil {
			return nil, nil, err
		}
		fr, err := identity.NewFirebaseResolver(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		resolver = fr
	}

	if cfg.RedisAddr == "" {
		return resolver, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, token cache will fall through", "addr", cfg.RedisAddr, "error", err)
	}
	cached := identity.NewCachedResolver(resolver, client, cfg.TokenCacheTTL, logger.With("component", "token_cache"))
	return cached, func() { client.Close() }, nil
}
