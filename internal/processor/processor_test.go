package processor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenpay-systems/fraudpipe/internal/classifier"
	"github.com/lumenpay-systems/fraudpipe/internal/dimension"
	"github.com/lumenpay-systems/fraudpipe/internal/feature"
	"github.com/lumenpay-systems/fraudpipe/internal/models"
	"github.com/lumenpay-systems/fraudpipe/internal/sink"
)

// mapResolver is a Resolver over a fixed map.
type mapResolver map[string]string

func (m mapResolver) Resolve(_ context.Context, key string) (string, bool, error) {
	code, ok := m[key]
	return code, ok, nil
}

func testResolvers() *dimension.Set {
	return &dimension.Set{
		City:            mapResolver{"Seattle": "17", "Portland": "12"},
		State:           mapResolver{"WA": "3", "OR": "4"},
		UserAgent:       mapResolver{"Mozilla/5.0": "2"},
		ProductCategory: mapResolver{"electronics": "5"},
		PaymentCurrency: mapResolver{"USD": "1"},
		Merchant:        mapResolver{"acme_retail": "9"},
	}
}

// scriptedScorer returns scores in sequence and records every payload line.
type scriptedScorer struct {
	scores []float64
	err    error
	lines  []string
}

func (s *scriptedScorer) Score(_ context.Context, payload feature.Payload) (float64, error) {
	s.lines = append(s.lines, payload.CSVLine())
	if s.err != nil {
		return 0, s.err
	}
	score := s.scores[0]
	if len(s.scores) > 1 {
		s.scores = s.scores[1:]
	}
	return score, nil
}

// failingSink rejects every write.
type failingSink struct{}

func (failingSink) Persist(context.Context, *models.ScoredRecord) error {
	return &sink.SinkError{EventID: "x", Err: fmt.Errorf("connection reset")}
}

func entry(t *testing.T, overrides map[string]string) models.BatchEntry {
	t.Helper()
	payload := map[string]string{
		"event_timestamp":   "2024-06-01T12:00:00Z",
		"label_name":        "fraud_label",
		"event_id":          "evt-001",
		"entity_type":       "customer",
		"entity_id":         "7470-4861-2252-7534",
		"card_bin":          "423451",
		"billing_city":      "Seattle",
		"billing_state":     "WA",
		"billing_zip":       "98101",
		"billing_latitude":  "47.6062",
		"billing_longitude": "-122.3321",
		"billing_country":   "US",
		"customer_job":      "Engineer",
		"ip_address":        "10.0.0.1",
		"user_agent":        "Mozilla/5.0",
		"product_category":  "electronics",
		"order_price":       "19.99",
		"payment_currency":  "USD",
		"merchant":          "acme_retail",
	}
	for k, v := range overrides {
		payload[k] = v
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return models.BatchEntry{Value: base64.StdEncoding.EncodeToString(raw)}
}

func newTestProcessor(t *testing.T, scorer *scriptedScorer, s sink.Sink) *Processor {
	t.Helper()
	p, err := New(Deps{
		Resolvers:  testResolvers(),
		Scorer:     scorer,
		Sink:       s,
		Classifier: classifier.New(classifier.DefaultThreshold),
	})
	require.NoError(t, err)
	return p
}

func TestNewRequiresHandles(t *testing.T) {
	scorer := &scriptedScorer{scores: []float64{0}}
	mem := sink.NewMemorySink()

	_, err := New(Deps{Scorer: scorer, Sink: mem})
	assert.Error(t, err)

	_, err = New(Deps{Resolvers: testResolvers(), Sink: mem})
	assert.Error(t, err)

	_, err = New(Deps{Resolvers: testResolvers(), Scorer: scorer})
	assert.Error(t, err)
}

func TestProcessBatchEndToEnd(t *testing.T) {
	// Three records: one scores below threshold, one has an unknown city,
	// one scores above threshold. The miss must neither call the model nor
	// write to the sink, and must not disturb its neighbors.
	scorer := &scriptedScorer{scores: []float64{0.05, 0.42}}
	mem := sink.NewMemorySink()
	p := newTestProcessor(t, scorer, mem)

	batch := &models.Batch{Records: map[string][]models.BatchEntry{
		"shard-0": {
			entry(t, map[string]string{"event_id": "evt-001"}),
			entry(t, map[string]string{"event_id": "evt-002", "billing_city": "Atlantis"}),
			entry(t, map[string]string{"event_id": "evt-003"}),
		},
	}}

	summary := p.ProcessBatch(context.Background(), batch)

	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 2, summary.Persisted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, map[SkipReason]int{SkipDimensionMiss: 1}, summary.ByReason)

	assert.Len(t, scorer.lines, 2, "the missed record must not reach inference")
	assert.Equal(t, 2, mem.Len())

	rec1, ok := mem.Get("evt-001")
	require.True(t, ok)
	assert.Equal(t, "no", rec1.Fraud)
	assert.Equal(t, "50", rec1.FraudScore)

	_, ok = mem.Get("evt-002")
	assert.False(t, ok, "the missed record must not be persisted")

	rec3, ok := mem.Get("evt-003")
	require.True(t, ok)
	assert.Equal(t, "yes", rec3.Fraud)
	assert.Equal(t, "420", rec3.FraudScore)
}

func TestProcessBatchDecodeFailureIsolation(t *testing.T) {
	scorer := &scriptedScorer{scores: []float64{0.2}}
	mem := sink.NewMemorySink()
	p := newTestProcessor(t, scorer, mem)

	batch := &models.Batch{Records: map[string][]models.BatchEntry{
		"shard-0": {
			{Value: "%%% not base64 %%%"},
			entry(t, map[string]string{"event_id": "evt-010"}),
		},
	}}

	summary := p.ProcessBatch(context.Background(), batch)

	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 1, summary.Persisted)
	assert.Equal(t, map[SkipReason]int{SkipDecodeError: 1}, summary.ByReason)
	assert.Equal(t, 1, mem.Len())
}

func TestProcessBatchInferenceFailureIsolation(t *testing.T) {
	scorer := &scriptedScorer{err: fmt.Errorf("endpoint timeout")}
	mem := sink.NewMemorySink()
	p := newTestProcessor(t, scorer, mem)

	batch := &models.Batch{Records: map[string][]models.BatchEntry{
		"shard-0": {
			entry(t, map[string]string{"event_id": "evt-020"}),
			entry(t, map[string]string{"event_id": "evt-021"}),
		},
	}}

	summary := p.ProcessBatch(context.Background(), batch)

	assert.Equal(t, 2, summary.Records)
	assert.Equal(t, 0, summary.Persisted)
	assert.Equal(t, map[SkipReason]int{SkipInferenceError: 2}, summary.ByReason)
	assert.Len(t, scorer.lines, 2, "each record gets its own attempt")
	assert.Equal(t, 0, mem.Len())
}

func TestProcessBatchSinkFailureIsolation(t *testing.T) {
	scorer := &scriptedScorer{scores: []float64{0.3}}
	p := newTestProcessor(t, scorer, failingSink{})

	batch := &models.Batch{Records: map[string][]models.BatchEntry{
		"shard-0": {
			entry(t, map[string]string{"event_id": "evt-030"}),
			entry(t, map[string]string{"event_id": "evt-031"}),
		},
	}}

	summary := p.ProcessBatch(context.Background(), batch)

	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, map[SkipReason]int{SkipSinkError: 2}, summary.ByReason)
}

func TestProcessBatchRedeliveryIdempotence(t *testing.T) {
	scorer := &scriptedScorer{scores: []float64{0.05, 0.05}}
	mem := sink.NewMemorySink()
	p := newTestProcessor(t, scorer, mem)

	batch := &models.Batch{Records: map[string][]models.BatchEntry{
		"shard-0": {entry(t, map[string]string{"event_id": "evt-040"})},
	}}

	p.ProcessBatch(context.Background(), batch)
	p.ProcessBatch(context.Background(), batch)

	assert.Equal(t, 1, mem.Len(), "re-delivered batch upserts, not duplicates")
}

func TestProcessBatchExactPricePropagation(t *testing.T) {
	scorer := &scriptedScorer{scores: []float64{0.05}}
	mem := sink.NewMemorySink()
	p := newTestProcessor(t, scorer, mem)

	batch := &models.Batch{Records: map[string][]models.BatchEntry{
		"shard-0": {entry(t, map[string]string{"event_id": "evt-050", "order_price": "19.99"})},
	}}

	p.ProcessBatch(context.Background(), batch)

	require.Len(t, scorer.lines, 1)
	assert.Contains(t, scorer.lines[0], ",19.99,", "model input carries the exact decimal")

	rec, ok := mem.Get("evt-050")
	require.True(t, ok)
	assert.Equal(t, "19.99", rec.OrderPrice.String())
}

func TestProcessBatchPassthroughFields(t *testing.T) {
	scorer := &scriptedScorer{scores: []float64{0.9}}
	mem := sink.NewMemorySink()
	p := newTestProcessor(t, scorer, mem)

	batch := &models.Batch{Records: map[string][]models.BatchEntry{
		"shard-0": {entry(t, map[string]string{"event_id": "evt-060"})},
	}}
	p.ProcessBatch(context.Background(), batch)

	rec, ok := mem.Get("evt-060")
	require.True(t, ok)

	// The persisted record keeps the raw entity id; only the feature
	// payload uses the cleaned form.
	assert.Equal(t, "7470-4861-2252-7534", rec.EntityID)
	assert.Equal(t, "US", rec.BillingCountry)
	assert.Equal(t, "Engineer", rec.CustomerJob)
	assert.Equal(t, "10.0.0.1", rec.IPAddress)
	assert.Equal(t, "fraud_label", rec.LabelName)
	assert.Equal(t, "customer", rec.EntityType)
}
