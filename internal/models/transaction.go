package models

import (
	"github.com/shopspring/decimal"
)

// Batch is the externally delivered collection of encoded transaction entries.
// Partition identifiers map to ordered sequences of entries; processing order
// within a partition follows delivery order.
type Batch struct {
	Records map[string][]BatchEntry `json:"records"`
}

// BatchEntry holds one base64-encoded JSON transaction payload.
type BatchEntry struct {
	Value string `json:"value"`
}

// EntryCount returns the total number of entries across all partitions.
func (b *Batch) EntryCount() int {
	n := 0
	for _, entries := range b.Records {
		n += len(entries)
	}
	return n
}

// Transaction is a decoded raw transaction event. Fields are never mutated
// after decode; enrichment derives a new ScoredRecord instead.
//
// OrderPrice carries exact decimal semantics: the value feeds the scoring
// model and is persisted verbatim, so binary-float rounding is not acceptable.
// Latitude and longitude are kept as the raw strings the upstream delivered;
// they are concatenated into the feature payload without numeric validation.
type Transaction struct {
	EventTimestamp   string          `json:"event_timestamp"`
	LabelName        string          `json:"label_name"`
	EventID          string          `json:"event_id"`
	EntityType       string          `json:"entity_type"`
	EntityID         string          `json:"entity_id"`
	CardBIN          string          `json:"card_bin"`
	BillingCity      string          `json:"billing_city"`
	BillingState     string          `json:"billing_state"`
	BillingZip       string          `json:"billing_zip"`
	BillingLatitude  string          `json:"billing_latitude"`
	BillingLongitude string          `json:"billing_longitude"`
	BillingCountry   string          `json:"billing_country"`
	CustomerJob      string          `json:"customer_job"`
	IPAddress        string          `json:"ip_address"`
	UserAgent        string          `json:"user_agent"`
	ProductCategory  string          `json:"product_category"`
	OrderPrice       decimal.Decimal `json:"order_price"`
	PaymentCurrency  string          `json:"payment_currency"`
	Merchant         string          `json:"merchant"`

	// CleanEntityID is EntityID with punctuation stripped, populated by the
	// decoder. Only this form is used downstream of decode.
	CleanEntityID string `json:"-"`
}

// DimensionCodes holds the six model-ready codes resolved from the reference
// dimension tables. All six are required before feature encoding.
type DimensionCodes struct {
	City            string
	State           string
	UserAgent       string
	ProductCategory string
	PaymentCurrency string
	Merchant        string
}

// ScoredRecord is the enriched, labeled record persisted by the sink.
// The natural key is EventID; re-processing the same event upserts.
type ScoredRecord struct {
	EventTimestamp   string          `json:"event_timestamp"`
	LabelName        string          `json:"label_name"`
	EventID          string          `json:"event_id"`
	EntityType       string          `json:"entity_type"`
	EntityID         string          `json:"entity_id"`
	CardBIN          string          `json:"card_bin"`
	BillingCity      string          `json:"billing_city"`
	BillingState     string          `json:"billing_state"`
	BillingZip       string          `json:"billing_zip"`
	BillingLatitude  string          `json:"billing_latitude"`
	BillingLongitude string          `json:"billing_longitude"`
	BillingCountry   string          `json:"billing_country"`
	CustomerJob      string          `json:"customer_job"`
	IPAddress        string          `json:"ip_address"`
	UserAgent        string          `json:"user_agent"`
	ProductCategory  string          `json:"product_category"`
	OrderPrice       decimal.Decimal `json:"order_price"`
	PaymentCurrency  string          `json:"payment_currency"`
	Merchant         string          `json:"merchant"`
	Fraud            string          `json:"fraud"`
	FraudScore       string          `json:"fraud_score"`
}

// NewScoredRecord derives the persisted record from the original transaction
// plus the classification outcome. Passthrough fields keep their raw values,
// including the unstripped entity id.
func NewScoredRecord(tx *Transaction, fraud, fraudScore string) *ScoredRecord {
	return &ScoredRecord{
		EventTimestamp:   tx.EventTimestamp,
		LabelName:        tx.LabelName,
		EventID:          tx.EventID,
		EntityType:       tx.EntityType,
		EntityID:         tx.EntityID,
		CardBIN:          tx.CardBIN,
		BillingCity:      tx.BillingCity,
		BillingState:     tx.BillingState,
		BillingZip:       tx.BillingZip,
		BillingLatitude:  tx.BillingLatitude,
		BillingLongitude: tx.BillingLongitude,
		BillingCountry:   tx.BillingCountry,
		CustomerJob:      tx.CustomerJob,
		IPAddress:        tx.IPAddress,
		UserAgent:        tx.UserAgent,
		ProductCategory:  tx.ProductCategory,
		OrderPrice:       tx.OrderPrice,
		PaymentCurrency:  tx.PaymentCurrency,
		Merchant:         tx.Merchant,
		Fraud:            fraud,
		FraudScore:       fraudScore,
	}
}
