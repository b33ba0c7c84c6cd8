package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenpay-systems/fraudpipe/internal/seeder"
)

var (
	seedPartitions      int
	seedPerPartition    int
	seedOut             string
	seedRandSeed        int64
	seedUnknownCityRate float64
	seedSkipRedis       bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed dimension tables and generate a synthetic batch",
	Long: `Writes the reference dimension tables into Redis and emits a synthetic
batch of encoded transactions for testing the pipeline end to end.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedPartitions, "partitions", 2, "number of batch partitions")
	seedCmd.Flags().IntVar(&seedPerPartition, "per-partition", 25, "transactions per partition")
	seedCmd.Flags().StringVar(&seedOut, "out", "batch.json", "output file for the generated batch")
	seedCmd.Flags().Int64Var(&seedRandSeed, "rand-seed", 0, "deterministic generator seed (0 = random)")
	seedCmd.Flags().Float64Var(&seedUnknownCityRate, "unknown-city-rate", 0, "fraction of transactions with an unresolvable city")
	seedCmd.Flags().BoolVar(&seedSkipRedis, "skip-redis", false, "generate the batch without seeding Redis")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gen := seeder.New(seedRandSeed)
	gen.UnknownCityRate = seedUnknownCityRate

	ctx := context.Background()
	if !seedSkipRedis {
		// Seeding only touches Redis, so the sink and endpoint handles are
		// not required here.
		rdb, err := newRedisClient(cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()

		if err := seeder.SeedDimensions(ctx, rdb, cfg.Dimensions, gen.Dimensions()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "dimension tables seeded")
	}

	batch, err := gen.Batch(seedPartitions, seedPerPartition)
	if err != nil {
		return err
	}

	f, err := os.Create(seedOut)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(batch); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d transactions to %s\n", batch.EntryCount(), seedOut)
	return nil
}
