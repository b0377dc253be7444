// Package report renders resolver run reports for operators.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roles-cli/internal/model"
)

// WriteYAML renders the run report as YAML.
func WriteYAML(w io.Writer, r *model.RunReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "report: encode yaml")
	}
	return eris.Wrap(enc.Close(), "report: close encoder")
}

// WriteXLSX writes the report's aggregates as a spreadsheet with one sheet
// per section.
func WriteXLSX(path string, r *model.RunReport) error {
	f := xlsx.NewFile()

	if err := addStageSheet(f, r.Stages); err != nil {
		return err
	}
	if err := addCountSheet(f, "Roles", "Role", roleCounts(r.RoleDistribution)); err != nil {
		return err
	}
	if err := addCountSheet(f, "Sources", "Source", sortedCounts(r.SourceBreakdown)); err != nil {
		return err
	}
	if err := addCoverageSheet(f, r.Coverage); err != nil {
		return err
	}

	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func addStageSheet(f *xlsx.File, stages []model.StageReport) error {
	sheet, err := f.AddSheet("Stages")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	header := sheet.AddRow()
	for _, h := range []string{"Stage", "Candidates", "Written", "Gated", "Skipped", "Duration (ms)"} {
		header.AddCell().SetString(h)
	}
	for _, s := range stages {
		row := sheet.AddRow()
		row.AddCell().SetString(s.Name)
		row.AddCell().SetInt(s.Candidates)
		row.AddCell().SetInt(s.Written)
		row.AddCell().SetInt(s.Gated)
		row.AddCell().SetInt(s.Skipped)
		row.AddCell().SetInt64(s.DurationMS)
	}
	return nil
}

type countRow struct {
	key   string
	count int
}

// roleCounts orders the distribution by the canonical taxonomy order so
// sheets from different runs line up.
func roleCounts(dist map[model.Role]int) []countRow {
	var rows []countRow
	for _, role := range model.CanonicalRoles {
		if n, ok := dist[role]; ok {
			rows = append(rows, countRow{key: string(role), count: n})
		}
	}
	return rows
}

func sortedCounts(m map[string]int) []countRow {
	rows := make([]countRow, 0, len(m))
	for k, n := range m {
		rows = append(rows, countRow{key: k, count: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })
	return rows
}

func addCountSheet(f *xlsx.File, name, keyHeader string, rows []countRow) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	header := sheet.AddRow()
	header.AddCell().SetString(keyHeader)
	header.AddCell().SetString("Count")
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.key)
		row.AddCell().SetInt(r.count)
	}
	return nil
}

func addCoverageSheet(f *xlsx.File, cov model.CoverageStats) error {
	sheet, err := f.AddSheet("Coverage")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}
	add := func(label string, value string) {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		row.AddCell().SetString(value)
	}
	add("Total deals", fmt.Sprintf("%d", cov.TotalDeals))
	add("Deals without contacts", fmt.Sprintf("%d", cov.DealsNoContacts))
	add("Deals without a resolved role", fmt.Sprintf("%d", cov.DealsNoResolvedRole))
	add("Deals with a champion", fmt.Sprintf("%d", cov.DealsWithChampion))
	add("Deals with an economic buyer", fmt.Sprintf("%d", cov.DealsWithEconomicBuyer))
	add("Fully threaded deals", fmt.Sprintf("%d", cov.FullyThreadedDeals))
	add("Avg contacts per deal", fmt.Sprintf("%.2f", cov.AvgContactsPerDeal))
	add("Avg resolved roles per deal", fmt.Sprintf("%.2f", cov.AvgResolvedPerDeal))
	return nil
}
