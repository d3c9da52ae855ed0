package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/mkorolev/finance-forecaster/internal/domain"
)

// RawBatch is one CSV file read into memory: a header row plus data rows,
// all values still strings. Validation and cleaning operate on this shape.
type RawBatch struct {
	Columns []string
	Rows    [][]string
}

// Column returns the index of the named column, or false if absent.
func (b RawBatch) Column(name string) (int, bool) {
	for i, c := range b.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// ReadCSV loads a delimited transaction file. The first row is always the
// header. A missing file maps to domain.ErrNotFound so the caller can
// distinguish it from parse failures.
func ReadCSV(path string) (RawBatch, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RawBatch{}, fmt.Errorf("ReadCSV: file %s: %w", path, domain.ErrNotFound)
		}
		return RawBatch{}, fmt.Errorf("ReadCSV: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return RawBatch{}, fmt.Errorf("ReadCSV: read header of %s: %w", path, err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return RawBatch{}, fmt.Errorf("ReadCSV: read rows of %s: %w", path, err)
	}

	return RawBatch{Columns: columns, Rows: rows}, nil
}
