// Package feature assembles the fixed-order payload submitted to the
// scoring model.
package feature

import (
	"fmt"
	"strings"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// ReferenceDate is the fixed date tuple terminating every payload. It is
// part of the contract with the deployed model and changes only with model
// retraining.
const ReferenceDate = "2022, 11, 25"

// Payload is the ordered sequence of scalar values for one transaction.
// Field order is a contract with the external model: the type system cannot
// catch a reordering, so the order is pinned by a golden test instead.
type Payload struct {
	values []string
}

// Values returns the ordered field values.
func (p Payload) Values() []string {
	out := make([]string, len(p.values))
	copy(out, p.values)
	return out
}

// CSVLine serializes the payload as the comma-joined text line the scoring
// endpoint consumes.
func (p Payload) CSVLine() string {
	return strings.Join(p.values, ",")
}

// builder appends fields in declaration order and records which required
// fields were absent, so encoding fails loudly instead of emitting a
// malformed line.
type builder struct {
	values  []string
	missing []string
}

func (b *builder) required(name, value string) {
	if value == "" {
		b.missing = append(b.missing, name)
	}
	b.values = append(b.values, value)
}

func (b *builder) passthrough(value string) {
	b.values = append(b.values, value)
}

// Encode produces the ordered payload from a decoded transaction and its six
// resolved dimension codes. All codes are required; a missing one refuses
// the whole encoding, which is how a single dimension miss invalidates the
// record.
func Encode(tx *models.Transaction, codes *models.DimensionCodes) (Payload, error) {
	if tx == nil {
		return Payload{}, fmt.Errorf("encode: nil transaction")
	}
	if codes == nil {
		return Payload{}, fmt.Errorf("encode: nil dimension codes")
	}

	b := &builder{}
	b.required("entity_id", tx.CleanEntityID)
	b.required("card_bin", tx.CardBIN)
	b.required("city_code", codes.City)
	b.required("state_code", codes.State)
	b.required("billing_zip", tx.BillingZip)
	b.passthrough(tx.BillingLatitude)
	b.passthrough(tx.BillingLongitude)
	b.required("user_agent_code", codes.UserAgent)
	b.required("product_category_code", codes.ProductCategory)
	b.required("order_price", tx.OrderPrice.String())
	b.required("payment_currency_code", codes.PaymentCurrency)
	b.required("merchant_code", codes.Merchant)
	b.passthrough(ReferenceDate)

	if len(b.missing) > 0 {
		return Payload{}, fmt.Errorf("encode: missing required fields: %s", strings.Join(b.missing, ", "))
	}
	return Payload{values: b.values}, nil
}
