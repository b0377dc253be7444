package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/roles-cli/internal/store"
)

var (
	exportPath   string
	exportDealID string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export role assignments as a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.ListAssignments(ctx, cfg.Workspace.ID, store.AssignmentFilter{DealID: exportDealID})
		if err != nil {
			return eris.Wrap(err, "list assignments")
		}

		f := xlsx.NewFile()
		sheet, err := f.AddSheet("Assignments")
		if err != nil {
			return eris.Wrap(err, "add sheet")
		}
		header := sheet.AddRow()
		for _, h := range []string{"Deal", "Contact", "Role", "Confidence", "Source", "Role Source", "Updated"} {
			header.AddCell().SetString(h)
		}
		for _, a := range rows {
			row := sheet.AddRow()
			row.AddCell().SetString(a.DealID)
			row.AddCell().SetString(a.ContactID)
			row.AddCell().SetString(string(a.BuyingRole))
			row.AddCell().SetFloat(a.RoleConfidence)
			row.AddCell().SetString(a.Source)
			row.AddCell().SetString(a.RoleSource)
			row.AddCell().SetString(a.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
		}
		if err := f.Save(exportPath); err != nil {
			return eris.Wrapf(err, "save %s", exportPath)
		}

		zap.L().Info("assignments exported",
			zap.String("path", exportPath),
			zap.Int("rows", len(rows)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPath, "out", "assignments.xlsx", "output XLSX path")
	exportCmd.Flags().StringVar(&exportDealID, "deal", "", "restrict the export to one deal ID")
	rootCmd.AddCommand(exportCmd)
}
