package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkorolev/finance-forecaster/internal/config"
	"github.com/mkorolev/finance-forecaster/internal/domain"
	"github.com/mkorolev/finance-forecaster/internal/ingest"
	"github.com/mkorolev/finance-forecaster/internal/logger"
	"github.com/mkorolev/finance-forecaster/internal/snapshot"
)

func main() {
	log := logger.New()
	cfg := config.Load(".env")

	parquetPath := flag.String("parquet-path", cfg.SnapshotBasePath,
		"Base path for the parquet snapshot output")
	dbPath := flag.String("db-path", "",
		"Path to the mirror database file (optional)")
	format := flag.String("format", string(ingest.FormatSnapshot),
		"Output format: snapshot, mirror or both")
	mode := flag.String("mode", string(snapshot.ModeSnapshot),
		"Ingestion mode: snapshot or incremental")
	dataDir := flag.String("data-dir", cfg.DataDir,
		"Directory scanned by -list-versions")
	listVersions := flag.Bool("list-versions", false,
		"List all available snapshot versions and exit")
	flag.Parse()

	if *listVersions {
		if err := runListVersions(*dataDir); err != nil {
			log.Fatal().Err(err).Msg("Listing versions failed")
		}
		return
	}

	csvPath := flag.Arg(0)
	if csvPath == "" {
		fmt.Fprintln(os.Stderr, "Error: CSV file path is required (unless using -list-versions)")
		flag.Usage()
		os.Exit(1)
	}

	outputFormat := ingest.OutputFormat(*format)
	switch outputFormat {
	case ingest.FormatSnapshot, ingest.FormatMirror, ingest.FormatBoth:
	default:
		log.Fatal().Str("format", *format).Msg("Unknown output format")
	}

	mirrorPath := *dbPath
	if outputFormat != ingest.FormatSnapshot && mirrorPath == "" {
		mirrorPath = cfg.MirrorDBPath
		log.Info().Str("db", mirrorPath).Msg("Using default mirror database path")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	summary, err := ingest.Run(ctx, ingest.Options{
		CSVPath:          csvPath,
		SnapshotBasePath: *parquetPath,
		MirrorDBPath:     mirrorPath,
		OutputFormat:     outputFormat,
		Mode:             snapshot.Mode(*mode),
	})
	if err != nil {
		reportFailure(log, err)
	}

	printSummary(summary)
}

// reportFailure maps pipeline errors to a non-zero exit with the
// distinguishing cause on stderr. Validation failures enumerate every
// violation before exiting.
func reportFailure(log zerolog.Logger, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		for _, v := range vErr.Violations {
			fmt.Fprintf(os.Stderr, "  - %s\n", v)
		}
		log.Fatal().Int("violations", len(vErr.Violations)).Msg("Validation errors found")
	}
	if errors.Is(err, domain.ErrNotFound) {
		log.Fatal().Err(err).Msg("Input not found")
	}
	if errors.Is(err, domain.ErrUnsupportedMode) {
		log.Fatal().Err(err).Msg("Requested mode is not supported")
	}
	log.Fatal().Err(err).Msg("Ingestion failed")
}

func printSummary(s *ingest.Summary) {
	fmt.Println("Ingestion completed successfully.")
	fmt.Printf("  Records processed: %d\n", s.RecordCount)
	if s.DuplicatesRemoved > 0 {
		fmt.Printf("  Duplicates removed: %d\n", s.DuplicatesRemoved)
	}
	if s.SnapshotPath != "" {
		fmt.Printf("  Snapshot file: %s\n", s.SnapshotPath)
	}
	if s.MirrorDBPath != "" {
		fmt.Printf("  Mirror database: %s (%d inserted, %d total)\n",
			s.MirrorDBPath, s.MirrorInserted, s.MirrorTotal)
	}
	fmt.Printf("  Categories: %d\n", s.Categories)
	if s.RecordCount > 0 {
		fmt.Printf("  Date range: %s to %s\n",
			s.DateMin.Format("2006-01-02"), s.DateMax.Format("2006-01-02"))
	}
	fmt.Printf("  Total amount: $%s\n", s.TotalAmount.StringFixed(2))
}

func runListVersions(dir string) error {
	versions, err := snapshot.ListVersions(dir)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("No snapshot versions found")
		return nil
	}

	fmt.Println("Available transaction versions:")
	fmt.Println("------------------------------------------------------------")
	for _, v := range versions {
		if v.Err != nil {
			fmt.Printf("%s (metadata error: %v)\n", v.Name, v.Err)
			continue
		}
		ingested := v.IngestedAt
		if ingested == "" {
			ingested = "Unknown"
		}
		records := v.RecordCount
		if records == "" {
			records = "Unknown"
		}
		fmt.Printf("%s\n", v.Name)
		fmt.Printf("   Ingested: %s\n", ingested)
		fmt.Printf("   Records:  %s\n", records)
		fmt.Printf("   Size:     %.1f KB\n", float64(v.SizeBytes)/1024)
		fmt.Println()
	}
	return nil
}
