package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"
)

// XLSX renders every worksheet as a text table, in workbook order.
type XLSX struct{}

func (XLSX) Extract(ctx context.Context, content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		sb.WriteString("\n\nSheet Name: ")
		sb.WriteString(sheet)
		sb.WriteString("\n")
		sb.WriteString(renderTable(compact(rows)))
	}
	return sb.String(), nil
}

// CSV renders a comma-separated file as a single text table.
type CSV struct{}

func (CSV) Extract(_ context.Context, content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parsing csv: %w", err)
	}
	return renderTable(compact(rows)), nil
}

// compact pads ragged rows to a common width and drops rows and columns in
// which every cell is blank.
func compact(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	keepCol := make([]bool, width)
	var kept [][]string
	for _, row := range rows {
		blank := true
		for i, cell := range row {
			if strings.TrimSpace(cell) != "" {
				blank = false
				keepCol[i] = true
			}
		}
		if blank {
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		kept = append(kept, padded)
	}

	out := make([][]string, 0, len(kept))
	for _, row := range kept {
		var r []string
		for i, cell := range row {
			if keepCol[i] {
				r = append(r, strings.TrimSpace(cell))
			}
		}
		out = append(out, r)
	}
	return out
}

// renderTable writes rows as an aligned table, treating the first row as
// the header.
func renderTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeader(rows[0])
	table.AppendBulk(rows[1:])
	table.Render()
	return buf.String()
}
