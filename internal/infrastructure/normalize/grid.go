package normalize

import (
	"strings"
	"time"
)

// Cell is one tabular cell. Sources that know a cell is date-typed set Time
// and HasTime; everything else arrives as display text.
type Cell struct {
	Text    string
	Time    time.Time
	HasTime bool
}

func TextCell(text string) Cell {
	return Cell{Text: text}
}

func DateCell(t time.Time) Cell {
	return Cell{Time: t, HasTime: true}
}

func (c Cell) trimmed() string {
	return strings.TrimSpace(c.Text)
}

func (c Cell) empty() bool {
	return !c.HasTime && c.trimmed() == ""
}

// Sheet is a raw tabular sheet as read from a source file.
type Sheet struct {
	Rows [][]Cell
}

// FromStrings builds a Sheet from plain string rows (csv, excelize GetRows).
func FromStrings(rows [][]string) Sheet {
	out := Sheet{Rows: make([][]Cell, len(rows))}
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, text := range row {
			cells[c] = TextCell(text)
		}
		out.Rows[r] = cells
	}
	return out
}

func rowEmpty(row []Cell) bool {
	for _, cell := range row {
		if !cell.empty() {
			return false
		}
	}
	return true
}
