package internal

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// GetPool returns a connection pool to the PostgreSQL database configured by
// the standard environment variables (DATABASE_URL, or PGHOST/PGPORT/PGUSER/
// PGPASSWORD/PGDATABASE).
func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// MustGetPoolOrSkip returns a PostgreSQL connection pool for integration
// tests, skipping the test when no server is reachable. The pool is closed
// when the test completes.
func MustGetPoolOrSkip(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := GetPool(context.Background())
	if err != nil {
		t.Skipf("skipping: PostgreSQL not available: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// MustGetRedisOrSkip returns a Redis client for integration tests, skipping
// the test when no server is reachable. The client is closed when the test
// completes.
func MustGetRedisOrSkip(t *testing.T) *redis.Client {
	t.Helper()
	opts := &redis.Options{Addr: getEnvOrDefault("REDIS_ADDR", "localhost:6379")}
	if url := os.Getenv("REDIS_URL"); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			t.Fatalf("invalid REDIS_URL: %v", err)
		}
		opts = parsed
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("skipping: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// ConnString builds a PostgreSQL connection string from the environment.
func ConnString() string {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr
	}

	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "postgres")
	password := getEnvOrDefault("PGPASSWORD", "postgres")
	database := getEnvOrDefault("PGDATABASE", "postgres")

	if password != "" {
		return fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			user, password, host, port, database,
		)
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=disable",
		user, host, port, database,
	)
}

// getEnvOrDefault retrieves an environment variable or returns a default
// value if the variable is not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
