// Package pdf is a partial source parser. It validates that the input
// is a readable PDF and reports how much of it could be inspected, but
// table extraction from PDFs is not built yet.
package pdf

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// Parse never returns a document. A readable PDF yields
// domain.ErrNotImplemented so the pipeline can record the
// NOT_IMPLEMENTED outcome instead of a failure.
func (p *Parser) Parse(ctx context.Context, filePath string) (*domain.NormalizedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrNormalization, "open pdf", err)
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages == 0 {
		return nil, domain.WrapError(domain.ErrNormalization, "open pdf", fmt.Errorf("document has no pages"))
	}

	return nil, domain.WrapError(domain.ErrNotImplemented, "parse pdf",
		fmt.Errorf("table extraction pending for %d page document", pages))
}
