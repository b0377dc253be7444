package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roles-cli/internal/report"
	"github.com/sells-group/roles-cli/internal/resolver"
)

var (
	resolveDealID        string
	resolveIncludeClosed bool
	resolveOutput        string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run the role-resolution chain for a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("resolve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		engine := resolver.New(st, cfg.Engine)
		result, err := engine.Resolve(ctx, cfg.Workspace.ID, resolver.Options{
			DealID:             resolveDealID,
			IncludeClosedDeals: resolveIncludeClosed,
		})
		if err != nil {
			return eris.Wrap(err, "resolver run")
		}

		zap.L().Info("resolution complete",
			zap.String("workspace", cfg.Workspace.ID),
			zap.Int("assignments_written", result.TotalWritten()),
			zap.Int("fully_threaded_deals", result.Coverage.FullyThreadedDeals),
		)

		if resolveOutput != "" {
			if err := report.WriteXLSX(resolveOutput, result); err != nil {
				return err
			}
			zap.L().Info("report exported", zap.String("path", resolveOutput))
			return nil
		}
		return report.WriteYAML(os.Stdout, result)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDealID, "deal", "", "restrict the run to one deal ID")
	resolveCmd.Flags().BoolVar(&resolveIncludeClosed, "include-closed", false, "include closed deals")
	resolveCmd.Flags().StringVar(&resolveOutput, "output", "", "write the report as XLSX to this path instead of YAML on stdout")
	rootCmd.AddCommand(resolveCmd)
}
