package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/shopspring/decimal"

	"github.com/mkorolev/finance-forecaster/internal/domain"
)

// Read loads a snapshot back as typed transactions. This is the contract
// downstream consumers (the forecast trainer) rely on: a snapshot written
// by Write must round-trip into the same rows.
func Read(ctx context.Context, path string) ([]domain.Transaction, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Read: snapshot %s: %w", path, domain.ErrNotFound)
	}

	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("Read: open %s: %w", path, err)
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("Read: arrow reader for %s: %w", path, err)
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("Read: read table from %s: %w", path, err)
	}
	defer tbl.Release()

	dates, err := timestampValues(tbl, "date")
	if err != nil {
		return nil, fmt.Errorf("Read: %s: %w", path, err)
	}
	categories, err := stringValues(tbl, "category")
	if err != nil {
		return nil, fmt.Errorf("Read: %s: %w", path, err)
	}
	amounts, err := float64Values(tbl, "amount")
	if err != nil {
		return nil, fmt.Errorf("Read: %s: %w", path, err)
	}
	if len(dates) != len(categories) || len(dates) != len(amounts) {
		return nil, fmt.Errorf("Read: %s: column length mismatch", path)
	}

	txs := make([]domain.Transaction, len(dates))
	for i := range dates {
		txs[i] = domain.Transaction{
			Date:     dates[i],
			Category: categories[i],
			Amount:   decimal.NewFromFloat(amounts[i]),
		}
	}
	return txs, nil
}

func columnChunks(tbl arrow.Table, name string) ([]arrow.Array, error) {
	indices := tbl.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return tbl.Column(indices[0]).Data().Chunks(), nil
}

func timestampValues(tbl arrow.Table, name string) ([]time.Time, error) {
	chunks, err := columnChunks(tbl, name)
	if err != nil {
		return nil, err
	}
	var out []time.Time
	for _, chunk := range chunks {
		col, ok := chunk.(*array.Timestamp)
		if !ok {
			return nil, fmt.Errorf("column %q is %T, want timestamp", name, chunk)
		}
		for i := 0; i < col.Len(); i++ {
			out = append(out, time.UnixMicro(int64(col.Value(i))).UTC())
		}
	}
	return out, nil
}

func stringValues(tbl arrow.Table, name string) ([]string, error) {
	chunks, err := columnChunks(tbl, name)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, chunk := range chunks {
		col, ok := chunk.(*array.String)
		if !ok {
			return nil, fmt.Errorf("column %q is %T, want string", name, chunk)
		}
		for i := 0; i < col.Len(); i++ {
			out = append(out, col.Value(i))
		}
	}
	return out, nil
}

func float64Values(tbl arrow.Table, name string) ([]float64, error) {
	chunks, err := columnChunks(tbl, name)
	if err != nil {
		return nil, err
	}
	var out []float64
	for _, chunk := range chunks {
		col, ok := chunk.(*array.Float64)
		if !ok {
			return nil, fmt.Errorf("column %q is %T, want float64", name, chunk)
		}
		for i := 0; i < col.Len(); i++ {
			out = append(out, col.Value(i))
		}
	}
	return out, nil
}
