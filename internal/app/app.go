// Package app wires shared infrastructure used by the api and worker binaries.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewValidator builds the request validator shared by HTTP handlers.
func NewValidator() *validator.Validate {
	return validator.New()
}

// RunMigrations applies pending database migrations from the given source directory.
func RunMigrations(databaseURL, sourcePath string) error {
	m, err := migrate.New(fmt.Sprintf("file://%s", sourcePath), databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// NewGlobalRateLimiter builds a Redis-backed fixed window limiter applied to all traffic.
func NewGlobalRateLimiter(rdb *redis.Client, period time.Duration, limit int64) (func(http.Handler) http.Handler, error) {
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "mandi:ratelimit:global",
	})
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	instance := limiter.New(store, limiter.Rate{Period: period, Limit: limit})
	middleware := limiterstdlib.NewMiddleware(instance)
	return middleware.Handler, nil
}
