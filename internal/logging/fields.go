package logging

import "log/slog"

// Common field names so every stage logs the offending record the same way.
const (
	FieldEventID   = "event_id"
	FieldPartition = "partition"
	FieldTable     = "table"
	FieldKey       = "key"
	FieldScore     = "score"
	FieldFraud     = "fraud"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// EventID returns a slog attribute for the record's event id.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// Partition returns a slog attribute for the batch partition.
func Partition(p string) slog.Attr {
	return slog.String(FieldPartition, p)
}

// Table returns a slog attribute for a dimension table name.
func Table(t string) slog.Attr {
	return slog.String(FieldTable, t)
}

// Key returns a slog attribute for a raw lookup key.
func Key(k string) slog.Attr {
	return slog.String(FieldKey, k)
}

// Score returns a slog attribute for a risk score.
func Score(s float64) slog.Attr {
	return slog.Float64(FieldScore, s)
}

// Fraud returns a slog attribute for the classification label.
func Fraud(label string) slog.Attr {
	return slog.String(FieldFraud, label)
}

// Error returns a slog attribute for an error message.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Duration returns a slog attribute for elapsed milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}
