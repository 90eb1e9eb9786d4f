package normalize

import (
	"github.com/finsight-cl/finsight/internal/core/domain"
)

const (
	// matrixScanRows bounds the header hunt; financial statements put their
	// period row near the top.
	matrixScanRows = 10
	// minLabelLen filters out stray markers when hunting for a row label.
	minLabelLen = 4
)

type periodColumn struct {
	col  int
	date string
}

// parseMatrix attempts the matrix-statement layout: period dates in the first
// rows, labeled line-item rows underneath. It returns nil when the layout
// does not apply so the flat parse can run.
func parseMatrix(sheet Sheet) []domain.LineItem {
	periods, headerDepth := findPeriodColumns(sheet)
	if len(periods) == 0 {
		return nil
	}

	var items []domain.LineItem
	for r := headerDepth + 1; r < len(sheet.Rows); r++ {
		row := sheet.Rows[r]
		for _, p := range periods {
			if p.col >= len(row) {
				continue
			}
			amount, ok := parseAmountCell(row[p.col])
			if !ok || amount == 0 {
				continue
			}
			items = append(items, domain.LineItem{
				Date:        p.date,
				Description: rowLabel(row, p.col),
				Category:    defaultCategory,
				Amount:      amount,
			})
		}
	}
	return items
}

// findPeriodColumns scans the first matrixScanRows rows for date cells. The
// first date found in a column fixes that column's period; item rows start
// below the deepest header row.
func findPeriodColumns(sheet Sheet) ([]periodColumn, int) {
	var periods []periodColumn
	claimed := make(map[int]bool)
	headerDepth := -1

	limit := len(sheet.Rows)
	if limit > matrixScanRows {
		limit = matrixScanRows
	}
	for r := 0; r < limit; r++ {
		for c, cell := range sheet.Rows[r] {
			if claimed[c] {
				continue
			}
			date, ok := parseCellDate(cell)
			if !ok {
				continue
			}
			claimed[c] = true
			periods = append(periods, periodColumn{col: c, date: date.Format(isoDate)})
			if r > headerDepth {
				headerDepth = r
			}
		}
	}
	return periods, headerDepth
}

// rowLabel finds the nearest non-empty text cell strictly to the left of col.
// Numeric and date cells are amounts for other periods, not labels.
func rowLabel(row []Cell, col int) string {
	for c := col - 1; c >= 0; c-- {
		cell := row[c]
		if cell.HasTime {
			continue
		}
		text := cell.trimmed()
		if len([]rune(text)) < minLabelLen {
			continue
		}
		if _, numeric := parseAmount(text); numeric {
			continue
		}
		if _, isDate := parseCellDate(cell); isDate {
			continue
		}
		return text
	}
	return defaultDescription
}
