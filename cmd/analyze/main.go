// Command analyze computes KPIs and improvement insights from a
// normalized document JSON file. Use "-" to read from stdin.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/core/usecase"
)

func main() {
	input := flag.String("input", "-", "path to a normalized document JSON file, or - for stdin")
	flag.Parse()

	raw, err := readInput(*input)
	if err != nil {
		fail(err)
	}

	var doc domain.NormalizedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		fail(fmt.Errorf("decode normalized document: %w", err))
	}

	result := usecase.NewAnalyzer().Analyze(&doc)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fail(err)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func fail(err error) {
	_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
	os.Exit(1)
}
