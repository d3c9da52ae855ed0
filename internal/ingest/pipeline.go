package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mkorolev/finance-forecaster/internal/domain"
	"github.com/mkorolev/finance-forecaster/internal/logger"
	"github.com/mkorolev/finance-forecaster/internal/mirror"
	"github.com/mkorolev/finance-forecaster/internal/snapshot"
)

// OutputFormat selects which persistence targets an ingestion run writes.
type OutputFormat string

const (
	FormatSnapshot OutputFormat = "snapshot"
	FormatMirror   OutputFormat = "mirror"
	FormatBoth     OutputFormat = "both"
)

func (f OutputFormat) wantsSnapshot() bool { return f == FormatSnapshot || f == FormatBoth }
func (f OutputFormat) wantsMirror() bool   { return f == FormatMirror || f == FormatBoth }

// defaultMirrorDBPath is substituted when mirror output is requested
// without naming a store path.
const defaultMirrorDBPath = "data/processed/transactions.db"

// sampleSize is how many recent mirror rows are logged after an insert.
const sampleSize = 5

// Options configures one ingestion run.
type Options struct {
	CSVPath          string
	SnapshotBasePath string
	MirrorDBPath     string // empty with mirror output selected means the default path
	OutputFormat     OutputFormat
	Mode             snapshot.Mode
}

// Summary is the structured outcome of a completed run.
type Summary struct {
	RunID             string
	RecordCount       int
	DuplicatesRemoved int
	SnapshotPath      string // empty if snapshot output was not requested
	MirrorDBPath      string // empty if mirror output was not requested
	MirrorInserted    int
	MirrorTotal       int64
	Categories        int
	DateMin           time.Time
	DateMax           time.Time
	TotalAmount       decimal.Decimal
}

// Run executes the ingestion pipeline: read, validate, clean, persist the
// snapshot, and optionally mirror the batch into the analytical store.
// It is fail-fast and all-or-nothing with respect to persistence: nothing
// is written before validation passes, and a snapshot writer failure
// aborts the run before any mirror insert. A snapshot that was fully
// written stays valid even if the mirror insert after it fails.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	log := logger.FromContext(ctx)
	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()

	if opts.OutputFormat == "" {
		opts.OutputFormat = FormatSnapshot
	}
	if opts.Mode == "" {
		opts.Mode = snapshot.ModeSnapshot
	}

	log.Info().
		Str("csv", opts.CSVPath).
		Str("format", string(opts.OutputFormat)).
		Str("mode", string(opts.Mode)).
		Msg("starting ingestion")

	// 1. Read the CSV file.
	batch, err := ReadCSV(opts.CSVPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("rows", len(batch.Rows)).Msg("loaded raw records")

	// 2. Validate. Abort before any write, reporting every violation.
	ok, violations := Validate(batch)
	if !ok {
		return nil, &domain.ValidationError{Violations: violations}
	}

	// 3. Clean: coerce types, trim categories, drop exact duplicates.
	txs, removed, err := Clean(batch)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("removed duplicate records")
	}
	log.Info().Int("rows", len(txs)).Msg("data cleaned, ready for persistence")

	summary := &Summary{
		RunID:             runID,
		RecordCount:       len(txs),
		DuplicatesRemoved: removed,
	}
	summarizeBatch(summary, txs)

	// 4. Persist the immutable snapshot. Any failure here aborts the whole
	// run; no mirror insert follows an unwritten snapshot.
	if opts.OutputFormat.wantsSnapshot() {
		path, err := snapshot.Write(txs, opts.SnapshotBasePath, opts.Mode)
		if err != nil {
			return nil, &domain.PersistenceError{Stage: "snapshot", Err: err}
		}
		summary.SnapshotPath = path

		meta, err := snapshot.Metadata(path)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot written but metadata unreadable")
		} else {
			log.Info().Str("path", path).Interface("metadata", meta.Embedded).Msg("saved snapshot")
		}
	}

	// 5. Optionally mirror the batch into the analytical store.
	if opts.OutputFormat.wantsMirror() {
		dbPath := opts.MirrorDBPath
		if dbPath == "" {
			dbPath = defaultMirrorDBPath
			log.Info().Str("db", dbPath).Msg("using default mirror database path")
		}
		if err := mirrorBatch(ctx, log, dbPath, txs, summary); err != nil {
			return nil, &domain.PersistenceError{Stage: "mirror", Err: err}
		}
		summary.MirrorDBPath = dbPath
	}

	log.Info().
		Int("records", summary.RecordCount).
		Str("snapshot", summary.SnapshotPath).
		Int("categories", summary.Categories).
		Str("total_amount", summary.TotalAmount.StringFixed(2)).
		Msg("ingestion completed")

	return summary, nil
}

// mirrorBatch opens the store, inserts the batch with fresh monotonic IDs,
// and logs a small sample of the most recent rows. The connection lives
// only for the duration of this one run.
func mirrorBatch(ctx context.Context, log zerolog.Logger, dbPath string, txs []domain.Transaction, summary *Summary) error {
	store, err := mirror.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	existing, err := store.Count(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("db", dbPath).Int64("existing", existing).Msg("mirroring into analytical store")

	inserted, err := store.Insert(ctx, txs)
	if err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	summary.MirrorInserted = inserted
	summary.MirrorTotal = total
	log.Info().Int("inserted", inserted).Int64("total", total).Msg("mirror insert complete")

	sample, err := store.Recent(ctx, sampleSize)
	if err != nil {
		// The insert already committed; a failed sample read is not fatal.
		log.Warn().Err(err).Msg("could not read sample rows")
		return nil
	}
	for _, row := range sample {
		log.Info().
			Int64("id", row.ID).
			Time("date", row.Date).
			Str("category", row.Category).
			Float64("amount", row.Amount).
			Msg("sample row")
	}
	return nil
}

// summarizeBatch fills the observability fields: category cardinality,
// date span, and total monetary amount.
func summarizeBatch(s *Summary, txs []domain.Transaction) {
	categories := make(map[string]struct{})
	total := decimal.Zero
	for i, t := range txs {
		categories[t.Category] = struct{}{}
		total = total.Add(t.Amount)
		if i == 0 || t.Date.Before(s.DateMin) {
			s.DateMin = t.Date
		}
		if i == 0 || t.Date.After(s.DateMax) {
			s.DateMax = t.Date
		}
	}
	s.Categories = len(categories)
	s.TotalAmount = total
}
