package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkorolev/finance-forecaster/internal/domain"
	"github.com/mkorolev/finance-forecaster/internal/mirror"
	"github.com/mkorolev/finance-forecaster/internal/snapshot"
)

const sampleCSV = `date,category,amount
2024-01-15,Groceries,42.50
2024-01-16,Transport,12.00
2024-01-17,Rent,1200
`

func TestRun_SnapshotAndMirror(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, sampleCSV)

	summary, err := Run(context.Background(), Options{
		CSVPath:          csvPath,
		SnapshotBasePath: filepath.Join(dir, "transactions.parquet"),
		MirrorDBPath:     filepath.Join(dir, "transactions.db"),
		OutputFormat:     FormatBoth,
		Mode:             snapshot.ModeSnapshot,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", summary.RecordCount)
	}
	if summary.SnapshotPath == "" {
		t.Fatal("SnapshotPath is empty")
	}
	if _, err := os.Stat(summary.SnapshotPath); err != nil {
		t.Errorf("snapshot file missing: %v", err)
	}
	if summary.MirrorInserted != 3 || summary.MirrorTotal != 3 {
		t.Errorf("mirror counts = %d inserted, %d total; want 3, 3", summary.MirrorInserted, summary.MirrorTotal)
	}
	if summary.Categories != 3 {
		t.Errorf("Categories = %d, want 3", summary.Categories)
	}
	if summary.TotalAmount.StringFixed(2) != "1254.50" {
		t.Errorf("TotalAmount = %s, want 1254.50", summary.TotalAmount.StringFixed(2))
	}
	if summary.DateMin.Format("2006-01-02") != "2024-01-15" || summary.DateMax.Format("2006-01-02") != "2024-01-17" {
		t.Errorf("date span = %v..%v, want 2024-01-15..2024-01-17", summary.DateMin, summary.DateMax)
	}

	// The written snapshot is what the catalog reports as latest.
	latest, err := snapshot.Latest(dir)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest != summary.SnapshotPath {
		t.Errorf("Latest() = %q, want %q", latest, summary.SnapshotPath)
	}
}

func TestRun_ValidationFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeTempCSV(t, `date,category,amount
2024-01-15,Groceries,42.50
2024-01-16,Transport,12.00
2024-01-17,Rent,1200
2024-01-18,Misc,twelve
`)

	_, err := Run(context.Background(), Options{
		CSVPath:          csvPath,
		SnapshotBasePath: filepath.Join(dir, "transactions.parquet"),
		OutputFormat:     FormatSnapshot,
	})
	if err == nil {
		t.Fatal("Run() error = nil, want validation failure")
	}

	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *domain.ValidationError", err)
	}
	if len(vErr.Violations) != 1 {
		t.Fatalf("violations = %v, want exactly 1", vErr.Violations)
	}

	// All-or-nothing: no snapshot file may exist after a validation abort.
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("read dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("output dir not empty after validation failure: %v", entries)
	}
}

func TestRun_MissingCSV(t *testing.T) {
	_, err := Run(context.Background(), Options{
		CSVPath:          filepath.Join(t.TempDir(), "absent.csv"),
		SnapshotBasePath: filepath.Join(t.TempDir(), "transactions.parquet"),
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want domain.ErrNotFound", err)
	}
}

func TestRun_IncrementalModeUnsupported(t *testing.T) {
	csvPath := writeTempCSV(t, sampleCSV)

	_, err := Run(context.Background(), Options{
		CSVPath:          csvPath,
		SnapshotBasePath: filepath.Join(t.TempDir(), "transactions.parquet"),
		Mode:             snapshot.ModeIncremental,
	})
	if !errors.Is(err, domain.ErrUnsupportedMode) {
		t.Errorf("error = %v, want domain.ErrUnsupportedMode", err)
	}

	var pErr *domain.PersistenceError
	if !errors.As(err, &pErr) || pErr.Stage != "snapshot" {
		t.Errorf("error = %v, want snapshot persistence error", err)
	}
}

func TestRun_DefaultMirrorPathSubstituted(t *testing.T) {
	t.Chdir(t.TempDir())
	csvPath := writeTempCSV(t, sampleCSV)

	summary, err := Run(context.Background(), Options{
		CSVPath:      csvPath,
		OutputFormat: FormatMirror,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.MirrorDBPath != defaultMirrorDBPath {
		t.Errorf("MirrorDBPath = %q, want default %q", summary.MirrorDBPath, defaultMirrorDBPath)
	}
	if _, err := os.Stat(summary.MirrorDBPath); err != nil {
		t.Errorf("default mirror db missing: %v", err)
	}
	// Snapshot output was not requested.
	if summary.SnapshotPath != "" {
		t.Errorf("SnapshotPath = %q, want empty", summary.SnapshotPath)
	}
}

func TestRun_SequentialMirrorIngestions(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "transactions.db")

	first := writeTempCSV(t, sampleCSV)
	second := writeTempCSV(t, `date,category,amount
2024-02-01,Dining,30.00
2024-02-02,Fuel,55.10
`)

	for _, csvPath := range []string{first, second} {
		if _, err := Run(context.Background(), Options{
			CSVPath:      csvPath,
			MirrorDBPath: dbPath,
			OutputFormat: FormatMirror,
		}); err != nil {
			t.Fatalf("Run(%s) error = %v", csvPath, err)
		}
	}

	store, err := mirror.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	total, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 5 {
		t.Errorf("total rows = %d, want 5", total)
	}
}
