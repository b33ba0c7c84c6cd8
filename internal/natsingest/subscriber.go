// Package natsingest delivers batches to the pipeline from a NATS subject.
// It is a thin adapter: the processor itself is transport-agnostic.
package natsingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lumenpay-systems/fraudpipe/internal/logging"
	"github.com/lumenpay-systems/fraudpipe/internal/models"
	"github.com/lumenpay-systems/fraudpipe/internal/processor"
)

// Connect dials the NATS server with unlimited reconnects.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// Subscriber consumes batch messages and runs them through the processor.
type Subscriber struct {
	conn      *nats.Conn
	subject   string
	processor *processor.Processor
	log       *logging.Logger
	sub       *nats.Subscription
}

// NewSubscriber creates a subscriber on the given subject.
func NewSubscriber(conn *nats.Conn, subject string, p *processor.Processor, log *logging.Logger) *Subscriber {
	return &Subscriber{
		conn:      conn,
		subject:   subject,
		processor: p,
		log:       log,
	}
}

// Start subscribes to the batch subject. A malformed message is logged and
// dropped; the upstream re-delivers at least once, and the sink's upsert
// semantics make re-processing safe.
func (s *Subscriber) Start() error {
	sub, err := s.conn.Subscribe(s.subject, s.handleMessage)
	if err != nil {
		return err
	}
	s.sub = sub
	s.log.Info("subscribed to batch subject", "subject", s.subject)
	return nil
}

// Stop unsubscribes from the batch subject.
func (s *Subscriber) Stop() error {
	if s.sub != nil {
		return s.sub.Unsubscribe()
	}
	return nil
}

func (s *Subscriber) handleMessage(msg *nats.Msg) {
	var batch models.Batch
	if err := json.Unmarshal(msg.Data, &batch); err != nil {
		s.log.Error("dropping malformed batch message", logging.Error(err))
		return
	}

	summary := s.processor.ProcessBatch(context.Background(), &batch)
	s.log.Info("batch from messaging processed",
		"subject", msg.Subject,
		"records", summary.Records,
		"persisted", summary.Persisted,
		"skipped", summary.Skipped,
	)
}
