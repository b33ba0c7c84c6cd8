package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// OpenSearchIndexer mirrors scored records into a search index so analysts
// can investigate labeled transactions. It is an optional secondary sink:
// the keyed store in Postgres remains the system of record, and index
// failures never fail the record.
type OpenSearchIndexer struct {
	client *opensearch.Client
	index  string
}

// OpenSearchConfig holds connection settings for the investigation index.
type OpenSearchConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

// NewOpenSearchIndexer creates an indexer for the configured index.
func NewOpenSearchIndexer(cfg OpenSearchConfig) (*OpenSearchIndexer, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}
	return &OpenSearchIndexer{client: client, index: cfg.Index}, nil
}

// Index writes rec as a document keyed by event id. Indexing the same event
// twice overwrites the document.
func (i *OpenSearchIndexer) Index(ctx context.Context, rec *models.ScoredRecord) error {
	req := opensearchapi.IndexRequest{
		Index:      i.index,
		DocumentID: rec.EventID,
		Body:       opensearchutil.NewJSONReader(rec),
	}

	resp, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index event %s: %w", rec.EventID, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return fmt.Errorf("index event %s: status %s", rec.EventID, strings.TrimSpace(resp.Status()))
	}
	return nil
}
