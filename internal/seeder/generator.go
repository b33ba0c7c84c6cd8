// Package seeder generates synthetic transactions and reference dimension
// data for local runs and demos.
package seeder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// Fixed categorical vocabularies. Codes are assigned by position so a
// seeded dimension table and a generated transaction always agree.
var (
	cities = []string{
		"Seattle", "Portland", "San Francisco", "Los Angeles", "Denver",
		"Austin", "Chicago", "Boston", "New York", "Miami",
	}
	states = []string{"WA", "OR", "CA", "CO", "TX", "IL", "MA", "NY", "FL"}

	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"Mozilla/5.0 (X11; Linux x86_64)",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
		"Mozilla/5.0 (Linux; Android 14)",
	}
	productCategories = []string{
		"electronics", "clothing", "groceries", "home_goods", "jewelry",
		"gift_cards", "travel", "digital_goods",
	}
	paymentCurrencies = []string{"USD", "EUR", "GBP", "CAD", "AUD"}

	merchants = []string{
		"acme_retail", "northwind_traders", "globex_market", "initech_store",
		"umbrella_shop", "stark_outfitters",
	}
)

// Generator produces synthetic raw transaction batches.
type Generator struct {
	faker *gofakeit.Faker

	// UnknownCityRate is the fraction of generated transactions given a
	// city absent from the dimension table, to exercise the skip path.
	UnknownCityRate float64
}

// New creates a Generator with a deterministic seed (0 means random).
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Dimensions returns the six reference tables as key-to-code maps, keyed by
// the logical table kind.
func (g *Generator) Dimensions() map[string]map[string]string {
	return map[string]map[string]string{
		"city":             codesFor(cities),
		"state":            codesFor(states),
		"user_agent":       codesFor(userAgents),
		"product_category": codesFor(productCategories),
		"payment_currency": codesFor(paymentCurrencies),
		"merchant":         codesFor(merchants),
	}
}

func codesFor(values []string) map[string]string {
	m := make(map[string]string, len(values))
	for i, v := range values {
		m[v] = strconv.Itoa(i + 1)
	}
	return m
}

// Transaction generates one raw payload in the upstream's wire shape. All
// values are strings, matching what the streaming source delivers.
func (g *Generator) Transaction() map[string]string {
	city := g.faker.RandomString(cities)
	if g.UnknownCityRate > 0 && g.faker.Float64Range(0, 1) < g.UnknownCityRate {
		city = g.faker.City() + " Heights"
	}

	return map[string]string{
		"event_timestamp":   g.faker.DateRange(time.Now().AddDate(0, 0, -30), time.Now()).UTC().Format("2006-01-02T15:04:05Z"),
		"label_name":        "fraud_label",
		"event_id":          uuid.NewString(),
		"entity_type":       "customer",
		"entity_id":         fmt.Sprintf("%04d-%04d-%04d", g.faker.Number(0, 9999), g.faker.Number(0, 9999), g.faker.Number(0, 9999)),
		"card_bin":          strconv.Itoa(g.faker.Number(400000, 499999)),
		"billing_city":      city,
		"billing_state":     g.faker.RandomString(states),
		"billing_zip":       g.faker.Zip(),
		"billing_latitude":  fmt.Sprintf("%.4f", g.faker.Latitude()),
		"billing_longitude": fmt.Sprintf("%.4f", g.faker.Longitude()),
		"billing_country":   "US",
		"customer_job":      g.faker.JobTitle(),
		"ip_address":        g.faker.IPv4Address(),
		"user_agent":        g.faker.RandomString(userAgents),
		"product_category":  g.faker.RandomString(productCategories),
		"order_price":       fmt.Sprintf("%.2f", g.faker.Price(1, 500)),
		"payment_currency":  g.faker.RandomString(paymentCurrencies),
		"merchant":          g.faker.RandomString(merchants),
	}
}

// Batch generates a batch of encoded entries spread over the given number
// of partitions.
func (g *Generator) Batch(partitions, perPartition int) (*models.Batch, error) {
	if partitions < 1 {
		partitions = 1
	}

	batch := &models.Batch{Records: make(map[string][]models.BatchEntry, partitions)}
	for p := 0; p < partitions; p++ {
		key := fmt.Sprintf("shardId-%012d", p)
		entries := make([]models.BatchEntry, 0, perPartition)
		for i := 0; i < perPartition; i++ {
			payload, err := json.Marshal(g.Transaction())
			if err != nil {
				return nil, fmt.Errorf("marshal transaction: %w", err)
			}
			entries = append(entries, models.BatchEntry{
				Value: base64.StdEncoding.EncodeToString(payload),
			})
		}
		batch.Records[key] = entries
	}
	return batch, nil
}
