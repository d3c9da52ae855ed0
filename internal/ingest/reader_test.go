package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkorolev/finance-forecaster/internal/domain"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestReadCSV(t *testing.T) {
	path := writeTempCSV(t, "date, category ,amount\n2024-01-15,Groceries,42.50\n2024-01-16,Transport,12.00\n")

	batch, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	wantCols := []string{"date", "category", "amount"}
	if len(batch.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", batch.Columns, wantCols)
	}
	for i, want := range wantCols {
		if batch.Columns[i] != want {
			t.Errorf("column[%d] = %q, want trimmed %q", i, batch.Columns[i], want)
		}
	}
	if len(batch.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(batch.Rows))
	}
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("ReadCSV() error = nil, want not-found")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want domain.ErrNotFound", err)
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "date,category,amount\n")

	batch, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(batch.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(batch.Rows))
	}

	// The empty batch is the validator's problem, not the reader's.
	ok, violations := Validate(batch)
	if ok {
		t.Error("Validate() = true on empty batch, want false")
	}
	if len(violations) != 1 {
		t.Errorf("violations = %v, want one no-data message", violations)
	}
}

func TestRawBatch_Column(t *testing.T) {
	b := RawBatch{Columns: []string{"date", "category", "amount"}}

	if idx, ok := b.Column("amount"); !ok || idx != 2 {
		t.Errorf("Column(amount) = %d, %v; want 2, true", idx, ok)
	}
	if _, ok := b.Column("balance"); ok {
		t.Error("Column(balance) = true, want false")
	}
}
