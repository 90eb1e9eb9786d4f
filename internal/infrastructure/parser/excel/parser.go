// Package excel converts spreadsheet files (.xlsx, .csv) into the
// canonical financial schema via the heuristic normalizer.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/infrastructure/normalize"
)

type Parser struct {
	opts normalize.Options
}

func New(opts normalize.Options) *Parser {
	return &Parser{opts: opts}
}

func (p *Parser) Parse(ctx context.Context, filePath string) (*domain.NormalizedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sheet normalize.Sheet
	var err error
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		sheet, err = readCSV(filePath)
	default:
		sheet, err = readWorkbook(filePath)
	}
	if err != nil {
		return nil, err
	}

	return normalize.Normalize(sheet, p.opts)
}

// readWorkbook loads the first sheet that has any rows. Workbooks from
// accounting exports often carry empty cover sheets before the data.
func readWorkbook(filePath string) (normalize.Sheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return normalize.Sheet{}, domain.WrapError(domain.ErrNormalization, "open workbook", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(rows) > 0 {
			return normalize.FromStrings(rows), nil
		}
	}
	return normalize.Sheet{}, domain.WrapError(domain.ErrNormalization, "open workbook",
		fmt.Errorf("no sheet with data in %s", filepath.Base(filePath)))
}

func readCSV(filePath string) (normalize.Sheet, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return normalize.Sheet{}, domain.WrapError(domain.ErrNormalization, "open csv", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return normalize.Sheet{}, domain.WrapError(domain.ErrNormalization, "read csv", err)
	}
	return normalize.FromStrings(rows), nil
}
