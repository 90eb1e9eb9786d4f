// Command sheets validates Google Sheets connectivity for a spreadsheet
// URL. The connector is partial: it checks credentials and the URL but
// does not fetch data yet.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/infrastructure/parser/gsheets"
)

func main() {
	var (
		sheetURL = flag.String("url", "", "google sheets document url")
		creds    = flag.String("credentials", "", "service account json path (defaults to GOOGLE_APPLICATION_CREDENTIALS)")
	)
	flag.Parse()

	if *sheetURL == "" {
		fail(fmt.Errorf("flag -url is required"))
	}

	connector := gsheets.New(*creds)
	_, err := connector.Fetch(context.Background(), *sheetURL)
	if errors.Is(err, domain.ErrNotImplemented) {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
			"outcome": string(domain.OutcomeNotImplemented),
			"detail":  err.Error(),
		})
		return
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
	os.Exit(1)
}
