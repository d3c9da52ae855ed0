package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/mkorolev/finance-forecaster/internal/domain"
)

// Mode selects the persistence semantics of a snapshot write.
type Mode string

const (
	// ModeSnapshot produces a new independent, timestamp-versioned file.
	ModeSnapshot Mode = "snapshot"
	// ModeIncremental is deliberately unsupported. Appending to existing
	// snapshots would break their immutability; until a real delta format
	// exists the writer must fail loudly rather than approximate it.
	ModeIncremental Mode = "incremental"
)

// SchemaVersion is the embedded schema version tag. Bump only with a
// coordinated change to every snapshot consumer.
const SchemaVersion = "1.0"

// Embedded metadata keys. Writer and reader must agree byte for byte.
const (
	MetaIngestionTimestamp = "ingestion_timestamp"
	MetaRecordCount        = "record_count"
	MetaVersion            = "version"
	MetaSchemaVersion      = "schema_version"
)

// versionTimeLayout is the sortable version token embedded in filenames.
// Lexicographic order of tokens equals chronological order.
const versionTimeLayout = "20060102_150405"

func tableSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "date", Type: arrow.FixedWidthTypes.Timestamp_us},
		{Name: "category", Type: arrow.BinaryTypes.String},
		{Name: "amount", Type: arrow.PrimitiveTypes.Float64},
		{Name: "ingested_at", Type: arrow.FixedWidthTypes.Timestamp_us},
	}, nil)
}

// VersionedPath derives the timestamped output filename from a base path:
// {dir}/{stem}_{YYYYMMDD_HHMMSS}.parquet. Collisions within the same
// second are possible under the single-writer assumption and accepted.
func VersionedPath(basePath string, ts time.Time) string {
	dir := filepath.Dir(basePath)
	base := filepath.Base(basePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s_%s.parquet", stem, ts.Format(versionTimeLayout)))
}

// Write serializes a normalized batch to an immutable parquet snapshot.
// The batch is stamped with an ingested_at column, the provenance metadata
// map is embedded in the file footer, and the file is published atomically:
// it is written under a temporary name in the target directory and renamed
// to its final versioned name only once complete, so readers never observe
// a partial snapshot. Returns the full path of the written file.
func Write(txs []domain.Transaction, basePath string, mode Mode) (string, error) {
	switch mode {
	case ModeSnapshot:
	case ModeIncremental:
		return "", fmt.Errorf("Write: incremental %w", domain.ErrUnsupportedMode)
	default:
		return "", fmt.Errorf("Write: unknown mode %q", mode)
	}

	now := time.Now()
	finalPath := VersionedPath(basePath, now)
	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("Write: create output dir: %w", err)
	}

	meta := map[string]string{
		MetaIngestionTimestamp: now.Format(time.RFC3339),
		MetaRecordCount:        strconv.Itoa(len(txs)),
		MetaVersion:            string(ModeSnapshot),
		MetaSchemaVersion:      SchemaVersion,
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(finalPath)+".tmp")
	if err != nil {
		return "", fmt.Errorf("Write: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeParquet(tmp, txs, now, meta); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("Write: %w", err)
	}
	// The parquet writer closes the sink on Close; this is a no-op then.
	tmp.Close()

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("Write: publish snapshot: %w", err)
	}
	// Keep modification time in lockstep with the filename version token.
	_ = os.Chtimes(finalPath, now, now)

	return finalPath, nil
}

// writeParquet writes the batch with snappy compression, dictionary
// encoding and column statistics, matching what downstream scans expect.
func writeParquet(f *os.File, txs []domain.Transaction, ingestedAt time.Time, meta map[string]string) error {
	rec := buildRecord(txs, ingestedAt)
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(true),
		parquet.WithStats(true),
	)
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	fw, err := pqarrow.NewFileWriter(rec.Schema(), f, props, arrProps)
	if err != nil {
		return fmt.Errorf("open parquet writer: %w", err)
	}

	for _, key := range []string{MetaIngestionTimestamp, MetaRecordCount, MetaVersion, MetaSchemaVersion} {
		if err := fw.AppendKeyValueMetadata(key, meta[key]); err != nil {
			fw.Close()
			return fmt.Errorf("append metadata %q: %w", key, err)
		}
	}

	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write record batch: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func buildRecord(txs []domain.Transaction, ingestedAt time.Time) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, tableSchema())
	defer b.Release()

	dateB := b.Field(0).(*array.TimestampBuilder)
	catB := b.Field(1).(*array.StringBuilder)
	amtB := b.Field(2).(*array.Float64Builder)
	ingB := b.Field(3).(*array.TimestampBuilder)

	stamp := arrow.Timestamp(ingestedAt.UTC().UnixMicro())
	for _, t := range txs {
		dateB.Append(arrow.Timestamp(t.Date.UTC().UnixMicro()))
		catB.Append(t.Category)
		amtB.Append(t.Amount.InexactFloat64())
		ingB.Append(stamp)
	}

	return b.NewRecord()
}
