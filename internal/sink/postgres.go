package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// PostgresSink persists scored records to the processed-transactions table.
// The event id is the primary key; conflicting writes upsert so re-processed
// batches converge on the last write.
type PostgresSink struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSink connects a pool and verifies it with a ping.
func NewPostgresSink(ctx context.Context, connString, table string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresSink{pool: pool, table: table}, nil
}

// NewPostgresSinkFromPool wraps an existing pool (used by tests).
func NewPostgresSinkFromPool(pool *pgxpool.Pool, table string) *PostgresSink {
	return &PostgresSink{pool: pool, table: table}
}

// Close releases the connection pool.
func (s *PostgresSink) Close() { s.pool.Close() }

// Persist upserts rec by event_id.
func (s *PostgresSink) Persist(ctx context.Context, rec *models.ScoredRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s (
            event_id, event_timestamp, label_name, entity_type, entity_id,
            card_bin, billing_city, billing_state, billing_zip,
            billing_latitude, billing_longitude, billing_country,
            customer_job, ip_address, user_agent, product_category,
            order_price, payment_currency, merchant, fraud, fraud_score
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        ON CONFLICT (event_id) DO UPDATE SET
            event_timestamp = EXCLUDED.event_timestamp,
            label_name = EXCLUDED.label_name,
            entity_type = EXCLUDED.entity_type,
            entity_id = EXCLUDED.entity_id,
            card_bin = EXCLUDED.card_bin,
            billing_city = EXCLUDED.billing_city,
            billing_state = EXCLUDED.billing_state,
            billing_zip = EXCLUDED.billing_zip,
            billing_latitude = EXCLUDED.billing_latitude,
            billing_longitude = EXCLUDED.billing_longitude,
            billing_country = EXCLUDED.billing_country,
            customer_job = EXCLUDED.customer_job,
            ip_address = EXCLUDED.ip_address,
            user_agent = EXCLUDED.user_agent,
            product_category = EXCLUDED.product_category,
            order_price = EXCLUDED.order_price,
            payment_currency = EXCLUDED.payment_currency,
            merchant = EXCLUDED.merchant,
            fraud = EXCLUDED.fraud,
            fraud_score = EXCLUDED.fraud_score,
            processed_at = now()`, s.table)

	_, err := s.pool.Exec(ctx, q,
		rec.EventID, rec.EventTimestamp, rec.LabelName, rec.EntityType, rec.EntityID,
		rec.CardBIN, rec.BillingCity, rec.BillingState, rec.BillingZip,
		rec.BillingLatitude, rec.BillingLongitude, rec.BillingCountry,
		rec.CustomerJob, rec.IPAddress, rec.UserAgent, rec.ProductCategory,
		rec.OrderPrice.String(), rec.PaymentCurrency, rec.Merchant, rec.Fraud, rec.FraudScore,
	)
	if err != nil {
		return &SinkError{EventID: rec.EventID, Err: err}
	}
	return nil
}
