package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roles-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "roles-cli",
	Short: "Buying-role resolution for CRM deals",
	Long:  "Resolves a buying role and confidence for every deal contact by fusing CRM fields, conversation attendance, cross-deal history, enrichment attributes, and activity patterns.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if ws, _ := cmd.Flags().GetString("workspace"); ws != "" {
			cfg.Workspace.ID = ws
		}

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
	rootCmd.PersistentFlags().String("workspace", "", "workspace ID (overrides config)")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
