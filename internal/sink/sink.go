// Package sink persists enriched, labeled records to the durable keyed store.
package sink

import (
	"context"
	"fmt"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// Sink writes one ScoredRecord keyed by its event id. Writes are upserts:
// re-delivery of the same batch produces the same logical record, which is
// how at-least-once upstream semantics stay safe without a deduplication
// layer in the core.
type Sink interface {
	Persist(ctx context.Context, rec *models.ScoredRecord) error
}

// SinkError reports a failed persist. It is record-local: the orchestrator
// logs it and continues with the next record.
type SinkError struct {
	EventID string
	Err     error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("persist event %s: %v", e.EventID, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
