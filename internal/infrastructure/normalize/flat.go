package normalize

import (
	"errors"
	"strings"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

const (
	roleDate        = "date"
	roleCategory    = "category"
	roleDescription = "description"
	roleAmount      = "amount"
)

// roleKeywords maps header substrings to semantic roles, checked in this
// order per column. Keywords cover Spanish-language ledgers alongside the
// English defaults.
var roleKeywords = []struct {
	role string
	keys []string
}{
	{roleDate, []string{"fecha", "date"}},
	{roleCategory, []string{"cat", "rubro"}},
	{roleDescription, []string{"desc", "detalle", "item"}},
	{roleAmount, []string{"monto", "valor", "amount", "neto"}},
}

// parseFlat handles the transaction-ledger layout: a header row followed by
// one row per transaction. The amount column is the only mandatory mapping;
// every other role degrades to a safe default per row.
func parseFlat(sheet Sheet, opts Options) ([]domain.LineItem, error) {
	if len(sheet.Rows) == 0 {
		return nil, domain.WrapError(domain.ErrNormalization, "flat parse", errors.New("empty sheet"))
	}

	cols := mapColumns(sheet.Rows[0])
	if _, ok := cols[roleAmount]; !ok {
		return nil, domain.WrapError(domain.ErrNormalization, "flat parse", errors.New("amount column not found"))
	}

	today := opts.Now().Format(isoDate)
	items := make([]domain.LineItem, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		if rowEmpty(row) {
			continue
		}
		items = append(items, flatItem(row, cols, today))
	}
	return items, nil
}

// mapColumns assigns semantic roles by lowercase substring match. Scanning
// columns in order, the first match per role wins and a column takes at most
// one role.
func mapColumns(header []Cell) map[string]int {
	cols := make(map[string]int, len(roleKeywords))
	for c, cell := range header {
		name := strings.ToLower(cell.trimmed())
		if name == "" {
			continue
		}
		for _, rk := range roleKeywords {
			if !containsAny(name, rk.keys) {
				continue
			}
			if _, mapped := cols[rk.role]; !mapped {
				cols[rk.role] = c
			}
			break
		}
	}
	return cols
}

func flatItem(row []Cell, cols map[string]int, today string) domain.LineItem {
	item := domain.LineItem{
		Date:        today,
		Description: defaultDescription,
		Category:    defaultCategory,
	}

	if cell, ok := roleCell(row, cols, roleDate); ok {
		if date, parsed := parseCellDate(cell); parsed {
			item.Date = date.Format(isoDate)
		}
	}
	if cell, ok := roleCell(row, cols, roleDescription); ok && cell.trimmed() != "" {
		item.Description = cell.trimmed()
	}
	if cell, ok := roleCell(row, cols, roleCategory); ok && cell.trimmed() != "" {
		item.Category = cell.trimmed()
	}
	if cell, ok := roleCell(row, cols, roleAmount); ok {
		// Unparseable amounts default to zero, never abort the row.
		if amount, parsed := parseAmountCell(cell); parsed {
			item.Amount = amount
		}
	}
	return item
}

func roleCell(row []Cell, cols map[string]int, role string) (Cell, bool) {
	c, ok := cols[role]
	if !ok || c >= len(row) {
		return Cell{}, false
	}
	return row[c], true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
