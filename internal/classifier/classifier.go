// Package classifier thresholds a continuous risk score into the binary
// fraud label.
package classifier

import (
	"math"
	"strconv"
)

// Labels stored on the persisted record.
const (
	LabelFraud    = "yes"
	LabelNotFraud = "no"
)

// DefaultThreshold is the decision boundary used when none is configured.
const DefaultThreshold = 0.1

// Classifier applies a fixed decision threshold: scores strictly below the
// threshold classify as not-fraud, scores at or above as fraud. The
// threshold is a tunable configuration value, not a hidden constant.
type Classifier struct {
	threshold float64
}

// New creates a Classifier with the given threshold.
func New(threshold float64) *Classifier {
	return &Classifier{threshold: threshold}
}

// Threshold returns the configured decision boundary.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify maps a risk score to "yes" or "no".
func (c *Classifier) Classify(score float64) string {
	if score < c.threshold {
		return LabelNotFraud
	}
	return LabelFraud
}

// ScaledScore renders the stored fraud_score: the raw score scaled by 1000
// and rounded to an integer-valued string.
func ScaledScore(score float64) string {
	return strconv.Itoa(int(math.Round(score * 1000)))
}
