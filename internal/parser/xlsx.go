package parser

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"document-qa/internal/models"
)

// parseXLSX renders the first sheet as an aligned text table. The first
// non-blank row is the header; a sheet without data rows below it is empty.
func parseXLSX(data []byte) ([]models.TextSegment, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", models.ErrMalformedFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", models.ErrEmptySheet)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", models.ErrMalformedFile, err)
	}

	var kept [][]string
	for _, row := range rows {
		if !isBlankRow(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) < 2 {
		return nil, fmt.Errorf("%w: sheet %q has no data rows", models.ErrEmptySheet, sheets[0])
	}

	text, err := renderTable(kept)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtractionIO, err)
	}
	return []models.TextSegment{{
		Content: text,
		Source:  models.SourceExcel,
	}}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if !isBlank(cell) {
			return false
		}
	}
	return true
}

func renderTable(rows [][]string) (string, error) {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		cells := make([]string, width)
		for i := range cells {
			if i < len(row) {
				cells[i] = strings.TrimSpace(strings.ReplaceAll(row[i], "\n", " "))
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n"), nil
}
