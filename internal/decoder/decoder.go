// Package decoder turns opaque batch entries into typed transactions.
package decoder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// DecodeError reports a malformed envelope or payload. It is record-local:
// the orchestrator skips the offending entry and continues the batch.
type DecodeError struct {
	Stage string // "envelope" or "payload"
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode unwraps the base64 transport envelope and unmarshals the JSON
// payload into a Transaction. Numeric fields are decoded with exact decimal
// semantics; no value passes through a binary float on the way in.
func Decode(entry models.BatchEntry) (*models.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(entry.Value)
	if err != nil {
		return nil, &DecodeError{Stage: "envelope", Err: err}
	}

	var tx models.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, &DecodeError{Stage: "payload", Err: err}
	}

	tx.CleanEntityID = stripPunctuation(tx.EntityID)
	return &tx, nil
}

// stripPunctuation removes separator punctuation from an entity id so the
// cleaned form is safe to embed in the comma-joined feature payload.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
