package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	commentsSheet = "Comments"
	statsSheet    = "Statistics"
)

func renderExcel(w io.Writer, d *Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", commentsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	header := tableHeader(d)
	if err := f.SetSheetRow(commentsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(commentsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	row := 2
	for _, g := range d.Groups {
		for _, c := range g.Comments {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := tableRow(d, g.Label, c)
			if err := f.SetSheetRow(commentsSheet, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	if d.Stats != nil {
		if _, err := f.NewSheet(statsSheet); err != nil {
			return fmt.Errorf("create statistics sheet: %w", err)
		}
		rows := [][]any{
			{"Metric", "Value"},
			{"Total comments", d.Stats.Total},
			{"Replies", d.Stats.Replies},
			{"Attachments", d.Stats.Attachments},
			{"Resolved %", d.Stats.ResolvedPct},
		}
		for _, c := range d.Stats.Statuses {
			rows = append(rows, []any{"Status: " + titleLabel(c.Label), c.N})
		}
		for _, c := range d.Stats.Priorities {
			rows = append(rows, []any{"Priority: " + titleLabel(c.Label), c.N})
		}
		for i, r := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(statsSheet, cell, &r); err != nil {
				return fmt.Errorf("write statistics: %w", err)
			}
		}
		if err := f.SetRowStyle(statsSheet, 1, 1, bold); err != nil {
			return fmt.Errorf("style statistics: %w", err)
		}
	}

	return f.Write(w)
}
