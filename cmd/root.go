package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lumenpay-systems/fraudpipe/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fraudpipe",
	Short: "Fraud scoring pipeline",
	Long: `fraudpipe ingests batches of raw transaction events, resolves their
categorical attributes against reference dimension tables, scores them
against a remote model, and persists the labeled records.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML; also $FRAUDPIPE_CONFIG)")
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
