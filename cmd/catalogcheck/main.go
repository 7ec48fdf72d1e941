// Command catalogcheck performs integrity checks on a parquet station
// dataset: it builds the full catalog index, reports per-region station
// counts, and flags rows the catalog would skip (missing identity columns,
// malformed dates) plus indexed stations that would export zero rows.
//
// Usage:
//
//	go run ./cmd/catalogcheck -data data/stations.parquet
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/synopticdata/station-bot/internal/adapter/parquetds"
	"github.com/synopticdata/station-bot/internal/catalog"
	"github.com/synopticdata/station-bot/internal/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "FAIL:", err)
		os.Exit(1)
	}
	fmt.Println("PASS")
}

func run() error {
	dataPath := flag.String("data", "", "path to the parquet station dataset")
	flag.Parse()

	if *dataPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -data")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ds, err := parquetds.Open(*dataPath, logger)
	if err != nil {
		return err
	}

	var total, missingIdentity, badDate int
	err = ds.ScanCatalog(ctx, func(row domain.CatalogRow) error {
		total++
		if row.RegionID == "" || row.StationID == "" {
			missingIdentity++
			return nil
		}
		if !row.Date.Valid() {
			badDate++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan dataset: %w", err)
	}

	snap, err := catalog.Build(ctx, ds)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	fmt.Printf("rows: %d (skipped: %d missing identity, %d bad date)\n", total, missingIdentity, badDate)
	fmt.Printf("regions: %d, stations: %d\n", snap.RegionCount(), snap.StationCount())

	var problems int
	for _, region := range snap.Regions() {
		stations := snap.Stations(region.ID)
		fmt.Printf("  %s: %d stations\n", region.Name, len(stations))
		for _, st := range stations {
			iv, ok := snap.Validity(region.ID, st.ID)
			if !ok {
				fmt.Printf("    WARN %s (%s): no valid observation dates\n", st.Name, st.ID)
				problems++
				continue
			}
			recs, err := ds.StationRecords(ctx, region.ID, st.ID)
			if err != nil {
				return fmt.Errorf("fetch records for %s/%s: %w", region.ID, st.ID, err)
			}
			if len(recs) == 0 {
				fmt.Printf("    WARN %s (%s): indexed but zero export rows\n", st.Name, st.ID)
				problems++
				continue
			}
			if recs[0].Date != string(iv.Start) || recs[len(recs)-1].Date != string(iv.End) {
				fmt.Printf("    WARN %s (%s): validity %s..%s disagrees with records %s..%s\n",
					st.Name, st.ID, iv.Start, iv.End, recs[0].Date, recs[len(recs)-1].Date)
				problems++
			}
		}
	}

	if problems > 0 {
		return fmt.Errorf("%d consistency problems", problems)
	}
	return nil
}
