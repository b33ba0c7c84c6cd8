package seeder

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lumenpay-systems/fraudpipe/internal/config"
)

// SeedDimensions writes the generator's six reference tables into Redis
// under the configured table names. Existing entries for the same keys are
// overwritten; other entries are left alone.
func SeedDimensions(ctx context.Context, client *redis.Client, tables config.DimensionsConfig, dims map[string]map[string]string) error {
	names := map[string]string{
		"city":             tables.CityTable,
		"state":            tables.StateTable,
		"user_agent":       tables.UserAgentTable,
		"product_category": tables.ProductCategoryTable,
		"payment_currency": tables.PaymentCurrencyTable,
		"merchant":         tables.MerchantTable,
	}

	for kind, entries := range dims {
		table, ok := names[kind]
		if !ok || table == "" {
			return fmt.Errorf("no table configured for dimension %q", kind)
		}

		fields := make([]interface{}, 0, len(entries)*2)
		for key, code := range entries {
			fields = append(fields, key, code)
		}
		if err := client.HSet(ctx, table, fields...).Err(); err != nil {
			return fmt.Errorf("seed %s: %w", table, err)
		}
	}
	return nil
}
