package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mkorolev/finance-forecaster/internal/domain"
)

func TestRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	batch := sampleBatch()

	path, err := Write(batch, filepath.Join(dir, "transactions.parquet"), ModeSnapshot)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != len(batch) {
		t.Fatalf("Read() rows = %d, want %d", len(got), len(batch))
	}

	for i, want := range batch {
		if !got[i].Date.Equal(want.Date) {
			t.Errorf("row %d date = %v, want %v", i, got[i].Date, want.Date)
		}
		if got[i].Category != want.Category {
			t.Errorf("row %d category = %q, want %q", i, got[i].Category, want.Category)
		}
		// Amounts transit the columnar file as float64; compare at the
		// two-decimal precision the pipeline guarantees.
		if got[i].Amount.StringFixed(2) != want.Amount.StringFixed(2) {
			t.Errorf("row %d amount = %s, want %s", i, got[i].Amount.StringFixed(2), want.Amount.StringFixed(2))
		}
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "absent.parquet"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Read() error = %v, want domain.ErrNotFound", err)
	}
}
