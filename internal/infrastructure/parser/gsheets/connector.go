// Package gsheets is the Google Sheets connector. Credential and URL
// validation are in place, the Sheets API call itself is not built yet.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

const urlPrefix = "https://docs.google.com/spreadsheets/"

type Connector struct {
	credentialsPath string
}

// New reads the service account path from credentialsPath, falling back
// to the GOOGLE_APPLICATION_CREDENTIALS environment variable.
func New(credentialsPath string) *Connector {
	if credentialsPath == "" {
		credentialsPath = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	return &Connector{credentialsPath: credentialsPath}
}

func (c *Connector) Fetch(ctx context.Context, sheetURL string) (*domain.NormalizedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(sheetURL, urlPrefix) {
		return nil, domain.WrapError(domain.ErrNormalization, "fetch sheet",
			fmt.Errorf("not a google sheets url: %s", sheetURL))
	}
	if c.credentialsPath == "" {
		return nil, domain.WrapError(domain.ErrNotImplemented, "fetch sheet",
			errors.New("service account credentials not configured, set GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if _, err := os.Stat(c.credentialsPath); err != nil {
		return nil, domain.WrapError(domain.ErrNormalization, "fetch sheet",
			fmt.Errorf("credentials file: %w", err))
	}

	return nil, domain.WrapError(domain.ErrNotImplemented, "fetch sheet",
		errors.New("sheets api integration pending"))
}
