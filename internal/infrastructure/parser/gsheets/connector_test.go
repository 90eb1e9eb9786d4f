package gsheets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/finsight-cl/finsight/internal/core/domain"
)

const sheetURL = "https://docs.google.com/spreadsheets/d/abc123/edit"

func TestFetchRejectsForeignURL(t *testing.T) {
	c := New("ignored.json")
	_, err := c.Fetch(context.Background(), "https://example.com/sheet")
	if !errors.Is(err, domain.ErrNormalization) {
		t.Fatalf("expected ErrNormalization, got %v", err)
	}
}

func TestFetchWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	c := New("")
	_, err := c.Fetch(context.Background(), sheetURL)
	if !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

func TestFetchWithCredentialsStillPending(t *testing.T) {
	creds := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(creds, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write creds: %v", err)
	}

	c := New(creds)
	_, err := c.Fetch(context.Background(), sheetURL)
	if !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}
