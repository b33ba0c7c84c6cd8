// Package processor orchestrates the per-record scoring pipeline over an
// incoming batch.
package processor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lumenpay-systems/fraudpipe/internal/classifier"
	"github.com/lumenpay-systems/fraudpipe/internal/decoder"
	"github.com/lumenpay-systems/fraudpipe/internal/dimension"
	"github.com/lumenpay-systems/fraudpipe/internal/feature"
	"github.com/lumenpay-systems/fraudpipe/internal/inference"
	"github.com/lumenpay-systems/fraudpipe/internal/logging"
	"github.com/lumenpay-systems/fraudpipe/internal/metrics"
	"github.com/lumenpay-systems/fraudpipe/internal/models"
	"github.com/lumenpay-systems/fraudpipe/internal/sink"
)

// State names the stages a record moves through. Every record ends in
// StateDone or StateSkipped.
type State string

const (
	StateDecoding    State = "decoding"
	StateResolving   State = "resolving"
	StateEncoding    State = "encoding"
	StateScoring     State = "scoring"
	StateClassifying State = "classifying"
	StatePersisting  State = "persisting"
	StateDone        State = "done"
	StateSkipped     State = "skipped"
)

// SkipReason enumerates why a record was skipped. Reasons are record-local:
// none of them aborts the batch.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipDecodeError    SkipReason = "decode_error"
	SkipDimensionMiss  SkipReason = "dimension_miss"
	SkipLookupError    SkipReason = "lookup_error"
	SkipEncodeError    SkipReason = "encode_error"
	SkipInferenceError SkipReason = "inference_error"
	SkipSinkError      SkipReason = "sink_error"
)

// RecordResult is the explicit outcome of one record, replacing skip-via-
// continue control flow with an enumerable, testable value.
type RecordResult struct {
	Partition string
	Index     int
	EventID   string
	State     State
	Reason    SkipReason
	Err       error
	Record    *models.ScoredRecord
}

// Summary aggregates a batch run.
type Summary struct {
	Records   int
	Persisted int
	Skipped   int
	ByReason  map[SkipReason]int
	Results   []RecordResult
}

// Indexer optionally mirrors persisted records into a search index.
// Index failures are logged but never fail the record; the keyed store is
// the system of record.
type Indexer interface {
	Index(ctx context.Context, rec *models.ScoredRecord) error
}

// Deps are the explicitly constructed dependencies of a Processor. The six
// resolver handles, the scorer, and the sink are process-wide and reused
// across batches.
type Deps struct {
	Resolvers  *dimension.Set
	Scorer     inference.Scorer
	Sink       sink.Sink
	Classifier *classifier.Classifier
	Indexer    Indexer // optional
	Logger     *logging.Logger
}

// Processor iterates a batch sequentially, applying per-record failure
// isolation. Records are processed one at a time in delivery order; there
// is no retry loop and no cross-record state.
type Processor struct {
	resolvers *dimension.Set
	scorer    inference.Scorer
	sink      sink.Sink
	clf       *classifier.Classifier
	indexer   Indexer
	log       *logging.Logger
}

// New validates that every required external handle is present. A missing
// handle is a configuration error discovered at startup: no record could
// succeed, so construction fails instead of producing per-record errors.
func New(deps Deps) (*Processor, error) {
	if deps.Resolvers == nil {
		return nil, fmt.Errorf("processor: dimension resolvers are required")
	}
	if deps.Scorer == nil {
		return nil, fmt.Errorf("processor: inference scorer is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("processor: result sink is required")
	}
	if deps.Classifier == nil {
		deps.Classifier = classifier.New(classifier.DefaultThreshold)
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Processor{
		resolvers: deps.Resolvers,
		scorer:    deps.Scorer,
		sink:      deps.Sink,
		clf:       deps.Classifier,
		indexer:   deps.Indexer,
		log:       deps.Logger,
	}, nil
}

// ProcessBatch runs every entry of the batch to completion. The batch always
// completes: individual record failures are recorded in the summary and the
// next record proceeds.
func (p *Processor) ProcessBatch(ctx context.Context, batch *models.Batch) *Summary {
	summary := &Summary{ByReason: make(map[SkipReason]int)}

	// Repeated keys within a batch are common, so lookups memoize for the
	// duration of this batch. Correctness does not depend on the cache.
	resolvers := p.resolvers.Memoize()

	partitions := make([]string, 0, len(batch.Records))
	for partition := range batch.Records {
		partitions = append(partitions, partition)
	}
	sort.Strings(partitions)

	for _, partition := range partitions {
		for i, entry := range batch.Records[partition] {
			res := p.processRecord(ctx, resolvers, partition, i, entry)
			summary.Records++
			summary.Results = append(summary.Results, res)

			if res.State == StateDone {
				summary.Persisted++
				metrics.RecordsTotal.WithLabelValues("persisted").Inc()
			} else {
				summary.Skipped++
				summary.ByReason[res.Reason]++
				metrics.RecordsTotal.WithLabelValues(string(res.Reason)).Inc()
			}
		}
	}

	metrics.BatchesTotal.Inc()
	p.log.InfoContext(ctx, "batch complete",
		"records", summary.Records,
		"persisted", summary.Persisted,
		"skipped", summary.Skipped,
	)
	return summary
}

func (p *Processor) processRecord(ctx context.Context, resolvers *dimension.Set, partition string, index int, entry models.BatchEntry) RecordResult {
	res := RecordResult{Partition: partition, Index: index, State: StateDecoding}

	tx, err := decoder.Decode(entry)
	if err != nil {
		p.log.WarnContext(ctx, "record skipped: decode failed",
			logging.Partition(partition), "index", index, logging.Error(err))
		return res.skip(SkipDecodeError, err)
	}
	res.EventID = tx.EventID

	res.State = StateResolving
	codes, miss, err := resolvers.ResolveAll(ctx, tx)
	if err != nil {
		p.log.ErrorContext(ctx, "record skipped: dimension lookup failed",
			logging.EventID(tx.EventID), logging.Error(err))
		return res.skip(SkipLookupError, err)
	}
	if miss != nil {
		metrics.DimensionMisses.WithLabelValues(string(miss.Table)).Inc()
		p.log.InfoContext(ctx, "record skipped: dimension value not found",
			logging.EventID(tx.EventID), logging.Table(string(miss.Table)), logging.Key(miss.Key))
		return res.skip(SkipDimensionMiss, nil)
	}

	res.State = StateEncoding
	payload, err := feature.Encode(tx, codes)
	if err != nil {
		// Unreachable when ResolveAll succeeded; kept as a hard guard on
		// the encoding contract.
		p.log.ErrorContext(ctx, "record skipped: feature encoding refused",
			logging.EventID(tx.EventID), logging.Error(err))
		return res.skip(SkipEncodeError, err)
	}

	res.State = StateScoring
	start := time.Now()
	score, err := p.scorer.Score(ctx, payload)
	metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InferenceErrors.Inc()
		p.log.ErrorContext(ctx, "record skipped: inference call failed",
			logging.EventID(tx.EventID), logging.Error(err))
		return res.skip(SkipInferenceError, err)
	}

	res.State = StateClassifying
	label := p.clf.Classify(score)
	record := models.NewScoredRecord(tx, label, classifier.ScaledScore(score))

	res.State = StatePersisting
	if err := p.sink.Persist(ctx, record); err != nil {
		metrics.SinkErrors.Inc()
		p.log.ErrorContext(ctx, "record skipped: persist failed",
			logging.EventID(tx.EventID), logging.Error(err))
		return res.skip(SkipSinkError, err)
	}
	metrics.FraudLabels.WithLabelValues(label).Inc()

	if p.indexer != nil {
		if err := p.indexer.Index(ctx, record); err != nil {
			p.log.WarnContext(ctx, "investigation index write failed",
				logging.EventID(tx.EventID), logging.Error(err))
		}
	}

	p.log.DebugContext(ctx, "record persisted",
		logging.EventID(tx.EventID), logging.Score(score), logging.Fraud(label))

	res.State = StateDone
	res.Record = record
	return res
}

func (r RecordResult) skip(reason SkipReason, err error) RecordResult {
	r.State = StateSkipped
	r.Reason = reason
	r.Err = err
	return r
}
