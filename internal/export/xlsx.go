package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"helix/internal/domain"
)

const sheetName = "Batch"

// WriteXLSX writes the report as a single-sheet workbook with a bold,
// frozen header row.
func WriteXLSX(out io.Writer, batches ...*domain.BatchResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	row := 2
	for _, b := range batches {
		for i := range b.Outcomes {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := xlsxRow(b, &b.Outcomes[i])
			if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "D", 26); err != nil {
		return err
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// xlsxRow keeps numeric columns numeric so spreadsheets can sum them.
func xlsxRow(b *domain.BatchResult, o *domain.FileOutcome) []interface{} {
	row := outcomeToRow(b, o)
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	out[4] = o.Size
	out[10] = o.Duration.Milliseconds()
	return out
}
