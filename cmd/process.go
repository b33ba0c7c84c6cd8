package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

var processFile string

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single batch from a file",
	Long: `Reads one batch structure (partition identifiers mapping to base64
entries) from a JSON file or stdin, runs it through the pipeline, and
prints the summary.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processFile, "file", "-", "batch JSON file, or - for stdin")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if processFile != "" && processFile != "-" {
		f, err := os.Open(processFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var batch models.Batch
	if err := json.NewDecoder(in).Decode(&batch); err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}

	log := buildLogger(cfg)
	ctx := context.Background()

	proc, cleanup, err := buildProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	summary := proc.ProcessBatch(ctx, &batch)

	out := map[string]interface{}{
		"records":   summary.Records,
		"persisted": summary.Persisted,
		"skipped":   summary.Skipped,
	}
	if len(summary.ByReason) > 0 {
		out["by_reason"] = summary.ByReason
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
