package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs the sink
// migration against it.
func setupTestDatabase(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("fraudpipe_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := runTestMigration(connStr); err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to run migration: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
	return pool, cleanup
}

func runTestMigration(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	migrationPath := filepath.Join("..", "..", "migrations", "001_processed_transactions.up.sql")
	migrationSQL, err := os.ReadFile(migrationPath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

func TestPostgresSinkPersist(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPostgresSinkFromPool(pool, "processed_transactions")

	rec := scoredRecord(t, "evt-pg-001", "no", "50")
	rec.BillingCity = "Seattle"
	rec.PaymentCurrency = "USD"
	require.NoError(t, s.Persist(ctx, rec))

	var fraud, fraudScore, price, city string
	err := pool.QueryRow(ctx,
		`SELECT fraud, fraud_score, order_price::text, billing_city
		 FROM processed_transactions WHERE event_id = $1`, "evt-pg-001").
		Scan(&fraud, &fraudScore, &price, &city)
	require.NoError(t, err)

	assert.Equal(t, "no", fraud)
	assert.Equal(t, "50", fraudScore)
	assert.Equal(t, "19.99", price, "numeric column must keep the exact decimal")
	assert.Equal(t, "Seattle", city)
}

func TestPostgresSinkUpsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPostgresSinkFromPool(pool, "processed_transactions")

	require.NoError(t, s.Persist(ctx, scoredRecord(t, "evt-pg-002", "no", "50")))
	require.NoError(t, s.Persist(ctx, scoredRecord(t, "evt-pg-002", "yes", "420")))

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM processed_transactions WHERE event_id = $1`, "evt-pg-002").
		Scan(&count))
	assert.Equal(t, 1, count, "re-processing must not duplicate the row")

	var fraud, fraudScore string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT fraud, fraud_score FROM processed_transactions WHERE event_id = $1`, "evt-pg-002").
		Scan(&fraud, &fraudScore))
	assert.Equal(t, "yes", fraud)
	assert.Equal(t, "420", fraudScore)
}

func TestPostgresSinkDistinctEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	s := NewPostgresSinkFromPool(pool, "processed_transactions")

	require.NoError(t, s.Persist(ctx, scoredRecord(t, "evt-pg-010", "no", "50")))
	require.NoError(t, s.Persist(ctx, scoredRecord(t, "evt-pg-011", "yes", "873")))

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM processed_transactions`).Scan(&count))
	assert.Equal(t, 2, count)
}
