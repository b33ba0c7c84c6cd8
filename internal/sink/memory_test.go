package sink

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

func scoredRecord(t *testing.T, eventID, fraud, score string) *models.ScoredRecord {
	t.Helper()
	price, err := decimal.NewFromString("19.99")
	require.NoError(t, err)
	return models.NewScoredRecord(&models.Transaction{
		EventID:    eventID,
		EntityID:   "7470-4861-2252-7534",
		OrderPrice: price,
	}, fraud, score)
}

func TestMemorySinkPersistAndGet(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, scoredRecord(t, "evt-001", "no", "50")))

	rec, ok := s.Get("evt-001")
	require.True(t, ok)
	assert.Equal(t, "no", rec.Fraud)
	assert.Equal(t, "50", rec.FraudScore)
	assert.Equal(t, "19.99", rec.OrderPrice.String())

	_, ok = s.Get("evt-unknown")
	assert.False(t, ok)
}

func TestMemorySinkUpsert(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, scoredRecord(t, "evt-001", "no", "50")))
	require.NoError(t, s.Persist(ctx, scoredRecord(t, "evt-001", "yes", "420")))

	assert.Equal(t, 1, s.Len())
	rec, ok := s.Get("evt-001")
	require.True(t, ok)
	assert.Equal(t, "yes", rec.Fraud)
	assert.Equal(t, "420", rec.FraudScore)
}

func TestMemorySinkCopiesRecord(t *testing.T) {
	s := NewMemorySink()
	ctx := context.Background()

	rec := scoredRecord(t, "evt-001", "no", "50")
	require.NoError(t, s.Persist(ctx, rec))

	rec.Fraud = "yes"

	stored, ok := s.Get("evt-001")
	require.True(t, ok)
	assert.Equal(t, "no", stored.Fraud, "stored record must not alias the caller's value")
}
