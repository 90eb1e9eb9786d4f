// Command normalize converts one spreadsheet into the canonical
// financial schema and prints it as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/finsight-cl/finsight/internal/config"
	"github.com/finsight-cl/finsight/internal/infrastructure/normalize"
	excelparser "github.com/finsight-cl/finsight/internal/infrastructure/parser/excel"
)

func main() {
	input := flag.String("input", "", "path to the .xlsx or .csv file")
	flag.Parse()

	if *input == "" {
		fail(fmt.Errorf("flag -input is required"))
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	parser := excelparser.New(normalize.Options{Currency: cfg.DefaultCurrency})
	doc, err := parser.Parse(context.Background(), *input)
	if err != nil {
		fail(err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		fail(err)
	}
}

func fail(err error) {
	_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
	os.Exit(1)
}
