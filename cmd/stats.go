package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roles-cli/internal/stats"
	"github.com/sells-group/roles-cli/internal/store"
)

var statsIncludeClosed bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print coverage statistics without resolving",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("stats"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		agg := stats.NewAggregator(st, cfg.Engine.Stats)
		summary, err := agg.Compute(ctx, cfg.Workspace.ID, store.DealFilter{IncludeClosed: statsIncludeClosed})
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(summary)
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsIncludeClosed, "include-closed", false, "include closed deals")
	rootCmd.AddCommand(statsCmd)
}
