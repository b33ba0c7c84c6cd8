package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/lumenpay-systems/fraudpipe/internal/classifier"
	"github.com/lumenpay-systems/fraudpipe/internal/config"
	"github.com/lumenpay-systems/fraudpipe/internal/dimension"
	"github.com/lumenpay-systems/fraudpipe/internal/inference"
	"github.com/lumenpay-systems/fraudpipe/internal/logging"
	"github.com/lumenpay-systems/fraudpipe/internal/processor"
	"github.com/lumenpay-systems/fraudpipe/internal/sink"
)

// buildLogger constructs the process logger from config and installs it as
// the default.
func buildLogger(cfg *config.Config) *logging.Logger {
	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)
	return log
}

// newRedisClient parses the configured Redis URL into a client.
func newRedisClient(cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// buildProcessor wires the pipeline's external handles from config. The
// returned cleanup releases connections and must be called on shutdown.
// Config validation must already have passed: a missing handle here is a
// bug, not a runtime condition.
func buildProcessor(ctx context.Context, cfg *config.Config, log *logging.Logger) (*processor.Processor, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	rdb, err := newRedisClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, func() { _ = rdb.Close() })

	if err := rdb.Ping(ctx).Err(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	resolvers := dimension.NewRedisSet(rdb,
		cfg.Dimensions.CityTable,
		cfg.Dimensions.StateTable,
		cfg.Dimensions.UserAgentTable,
		cfg.Dimensions.ProductCategoryTable,
		cfg.Dimensions.PaymentCurrencyTable,
		cfg.Dimensions.MerchantTable,
	)

	var resultSink sink.Sink
	if cfg.Sink.DatabaseURL != "" {
		if cfg.Sink.Migrate {
			if err := runMigrations(cfg.Sink.DatabaseURL); err != nil {
				cleanup()
				return nil, nil, err
			}
		}
		pg, err := sink.NewPostgresSink(ctx, cfg.Sink.DatabaseURL, cfg.Sink.Table)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		cleanups = append(cleanups, pg.Close)
		resultSink = pg
	} else {
		log.Warn("no database configured, persisting to memory sink")
		resultSink = sink.NewMemorySink()
	}

	deps := processor.Deps{
		Resolvers:  resolvers,
		Scorer:     inference.New(cfg.Inference.Endpoint, cfg.Inference.Timeout),
		Sink:       resultSink,
		Classifier: classifier.New(cfg.Classifier.Threshold),
		Logger:     log,
	}

	if cfg.OpenSearch.Enabled {
		indexer, err := sink.NewOpenSearchIndexer(sink.OpenSearchConfig{
			URL:      cfg.OpenSearch.URL,
			Username: cfg.OpenSearch.Username,
			Password: cfg.OpenSearch.Password,
			Index:    cfg.OpenSearch.Index,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opensearch indexer: %w", err)
		}
		deps.Indexer = indexer
	}

	p, err := processor.New(deps)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return p, cleanup, nil
}

func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
