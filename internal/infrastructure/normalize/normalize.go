// Package normalize converts raw tabular sheets into the canonical financial
// schema. Two layouts are attempted in order: a matrix statement (dates as
// column headers, labeled rows) and a flat transaction list (one row per
// dated amount). The first layout that yields data wins.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

const (
	DefaultCurrency = "CLP"

	defaultCategory    = "General"
	defaultDescription = "Unknown"
	isoDate            = "2006-01-02"
)

// dateFormats in priority order; the first that parses a header cell wins.
var dateFormats = []string{
	"02/Jan/2006",
	"02/01/2006",
	"Jan/2006",
	"2006-01-02",
}

type Options struct {
	// Currency stamped on the document. Defaults to DefaultCurrency.
	Currency string
	// Now supplies the clock for the period placeholder and date fallbacks.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Currency == "" {
		o.Currency = DefaultCurrency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Normalize converts sheet into the canonical schema. The matrix layout is
// preferred whenever it yields at least one line item; otherwise the flat
// layout runs and its amount-column requirement is the only hard failure.
func Normalize(sheet Sheet, opts Options) (*domain.NormalizedDocument, error) {
	opts = opts.withDefaults()

	doc := &domain.NormalizedDocument{
		// Period detection is a known placeholder: current calendar year.
		FinancialPeriod: strconv.Itoa(opts.Now().Year()),
		Currency:        opts.Currency,
	}

	if items := parseMatrix(sheet); len(items) > 0 {
		doc.Items = items
		return doc, nil
	}

	items, err := parseFlat(sheet, opts)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return doc, nil
}

// parseCellDate resolves a cell to a date. Native date-typed cells are
// accepted directly; text cells go through dateFormats in priority order.
func parseCellDate(cell Cell) (time.Time, bool) {
	if cell.HasTime {
		return cell.Time, true
	}
	text := cell.trimmed()
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// thousandsDots matches Chilean/European thousand grouping without a
// decimal comma, e.g. "2.500" or "-1.250.000".
var thousandsDots = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

// parseAmount parses a numeric string tolerating Chilean/European formatting.
// A decimal comma marks dots as thousands separators ("1.000,50"); dot-only
// values are treated as thousands grouping when they have that shape and as
// machine decimals ("1000.5") otherwise.
func parseAmount(s string) (float64, bool) {
	s = strings.NewReplacer("$", "", " ", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if thousandsDots.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseAmountCell(cell Cell) (float64, bool) {
	if cell.HasTime {
		return 0, false
	}
	return parseAmount(cell.Text)
}
