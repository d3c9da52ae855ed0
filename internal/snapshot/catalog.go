package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/schema"
)

// versionPattern matches timestamp-versioned snapshot filenames produced by
// Write: {stem}_{YYYYMMDD_HHMMSS}.parquet.
var versionPattern = regexp.MustCompile(`^.+_(\d{8}_\d{6})\.parquet$`)

// FileMetadata is everything the catalog can tell about a snapshot without
// materializing row data: the embedded provenance map plus structural facts
// from the footer.
type FileMetadata struct {
	Embedded   map[string]string
	NumRows    int64
	NumColumns int
	CreatedBy  string
	Schema     string
}

// VersionInfo is one catalog entry for ListVersions.
type VersionInfo struct {
	Path        string
	Name        string
	IngestedAt  string // embedded ingestion_timestamp, empty if absent
	RecordCount string // embedded record_count, empty if absent
	SizeBytes   int64
	Err         error // non-nil if the metadata could not be parsed
}

// versionToken extracts the sortable version token from a filename, or
// false if the name is not a versioned snapshot.
func versionToken(name string) (string, bool) {
	m := versionPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Latest returns the path of the most recent snapshot in dir, decided by
// the version token embedded in the filename rather than filesystem
// modification time, so the answer is a pure function of stored data.
// A missing or empty directory yields ("", nil), not an error.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("Latest: read dir %s: %w", dir, err)
	}

	bestName := ""
	bestToken := ""
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		token, ok := versionToken(e.Name())
		if !ok {
			continue
		}
		// Filename breaks ties within the same second.
		if token > bestToken || (token == bestToken && e.Name() > bestName) {
			bestToken = token
			bestName = e.Name()
		}
	}

	if bestName == "" {
		return "", nil
	}
	return filepath.Join(dir, bestName), nil
}

// Metadata extracts the embedded metadata map and structural facts from a
// snapshot's footer without reading row data. A nonexistent file yields an
// empty metadata map and no error: absent means "no metadata available".
func Metadata(path string) (*FileMetadata, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &FileMetadata{Embedded: map[string]string{}}, nil
	}

	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("Metadata: open %s: %w", path, err)
	}
	defer rdr.Close()

	md := rdr.MetaData()

	embedded := make(map[string]string)
	kv := md.KeyValueMetadata()
	keys := kv.Keys()
	values := kv.Values()
	for i := range keys {
		embedded[keys[i]] = values[i]
	}

	var sb strings.Builder
	schema.PrintSchema(md.Schema.Root(), &sb, 2)

	return &FileMetadata{
		Embedded:   embedded,
		NumRows:    md.NumRows,
		NumColumns: md.Schema.NumColumns(),
		CreatedBy:  md.GetCreatedBy(),
		Schema:     sb.String(),
	}, nil
}

// ListVersions returns every versioned snapshot in dir sorted by filename,
// which sorts chronologically because of the version token format. Each
// entry carries its embedded ingestion timestamp, record count, and file
// size; an entry whose metadata cannot be parsed is annotated with the
// error rather than excluded. A missing directory yields an empty list.
func ListVersions(dir string) ([]VersionInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ListVersions: read dir %s: %w", dir, err)
	}

	var versions []VersionInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := versionToken(e.Name()); !ok {
			continue
		}

		info := VersionInfo{
			Path: filepath.Join(dir, e.Name()),
			Name: e.Name(),
		}
		if fi, err := e.Info(); err == nil {
			info.SizeBytes = fi.Size()
		}

		meta, err := Metadata(info.Path)
		if err != nil {
			info.Err = err
		} else {
			info.IngestedAt = meta.Embedded[MetaIngestionTimestamp]
			info.RecordCount = meta.Embedded[MetaRecordCount]
		}
		versions = append(versions, info)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i].Name < versions[j].Name })
	return versions, nil
}
