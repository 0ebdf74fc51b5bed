package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openrx/rxlink/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rxlink",
	Short: "Drug pricing / NDC directory linkage pipeline",
	Long:  "Links the NDC-keyed drug pricing dataset against the FDA NDC directory and publishes chunked JSON artifacts for substring search.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
