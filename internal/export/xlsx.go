// Package export renders stored patients as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Skufu/hearttriage/internal/triage"
)

const sheetName = "Patients"

// Header lists the exported columns in order.
func Header() []string {
	header := []string{"ID", "Timestamp"}
	for _, f := range triage.Fields() {
		header = append(header, f.Name)
	}
	return append(header,
		"Risk Level", "Risk Label",
		"P(Low)", "P(Medium)", "P(High)",
		"Risk Factors",
	)
}

// WritePatients writes one row per result, in store order, to w.
func WritePatients(w io.Writer, results []triage.PredictionResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	header := Header()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("convert column number: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "B", 22); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheetName, lastCol, lastCol, 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		row := patientRow(r)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func patientRow(r triage.PredictionResult) []any {
	row := []any{r.ID, r.Timestamp.Format(time.RFC3339)}
	for _, f := range triage.Fields() {
		v, _ := r.Record.Value(f.Name)
		row = append(row, v)
	}
	row = append(row, int(r.Tier), r.Tier.Label())
	for i := 0; i < 3; i++ {
		if i < len(r.Probability) {
			row = append(row, r.Probability[i])
		} else {
			row = append(row, nil)
		}
	}
	return append(row, strings.Join(r.Explanation.RiskFactors, "; "))
}
