package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/finsight-cl/finsight/internal/core/domain"
	"github.com/finsight-cl/finsight/internal/infrastructure/normalize"
)

func testOptions() normalize.Options {
	return normalize.Options{
		Currency: "CLP",
		Now:      func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) },
	}
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", axis, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestParseWorkbookFlatLedger(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Fecha", "Descripcion", "Monto"},
		{"31/Jan/2024", "Venta mensual", "1000"},
		{"28/Feb/2024", "Arriendo oficina", "-250"},
	})

	doc, err := New(testOptions()).Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("items = %d", len(doc.Items))
	}
	if doc.Items[0].Date != "2024-01-31" {
		t.Fatalf("date = %s", doc.Items[0].Date)
	}
	if doc.Items[1].Amount != -250 {
		t.Fatalf("amount = %v", doc.Items[1].Amount)
	}
	if doc.Currency != "CLP" {
		t.Fatalf("currency = %s", doc.Currency)
	}
}

func TestParseCSVLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	csv := "fecha,detalle,valor\n31/01/2024,Venta,1.000\n28/02/2024,Costo insumos,-400\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	doc, err := New(testOptions()).Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("items = %d", len(doc.Items))
	}
	if doc.Items[0].Amount != 1000 {
		t.Fatalf("amount = %v", doc.Items[0].Amount)
	}
	if doc.Items[1].Description != "Costo insumos" {
		t.Fatalf("description = %s", doc.Items[1].Description)
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := New(testOptions()).Parse(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	if !errors.Is(err, domain.ErrNormalization) {
		t.Fatalf("expected ErrNormalization, got %v", err)
	}
}

func TestParseHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testOptions()).Parse(ctx, "ledger.xlsx")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
