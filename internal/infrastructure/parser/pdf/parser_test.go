package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

func TestParseRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := New().Parse(context.Background(), path)
	if !errors.Is(err, domain.ErrNormalization) {
		t.Fatalf("expected ErrNormalization, got %v", err)
	}
	if errors.Is(err, domain.ErrNotImplemented) {
		t.Fatal("unreadable input must not report the partial-implementation outcome")
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := New().Parse(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	if !errors.Is(err, domain.ErrNormalization) {
		t.Fatalf("expected ErrNormalization, got %v", err)
	}
}

func TestParseHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Parse(ctx, "ledger.pdf")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
