// Package parquetds serves the columnar station dataset from a local parquet
// file. The file is read whole into an in-memory index keyed by (region,
// station); ScanCatalog re-reads it so a catalog rebuild also picks up a
// replaced dataset file.
package parquetds

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/parquet-go/parquet-go"

	"github.com/synopticdata/station-bot/internal/domain"
)

type stationKey struct {
	regionID  string
	stationID string
}

type index struct {
	records   []domain.Record
	byStation map[stationKey][]domain.Record
}

// Dataset is a domain.Dataset backed by one parquet file.
type Dataset struct {
	path   string
	logger *slog.Logger
	idx    atomic.Pointer[index]
}

// Open reads the parquet file at path and builds the station index.
func Open(path string, logger *slog.Logger) (*Dataset, error) {
	d := &Dataset{path: path, logger: logger}
	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

// load re-reads the file and atomically swaps in a fresh index.
func (d *Dataset) load() error {
	records, err := parquet.ReadFile[domain.Record](d.path)
	if err != nil {
		return fmt.Errorf("read parquet dataset %s: %w", d.path, err)
	}

	byStation := make(map[stationKey][]domain.Record)
	for _, rec := range records {
		key := stationKey{regionID: rec.RegionName, stationID: rec.StationID}
		byStation[key] = append(byStation[key], rec)
	}
	for key := range byStation {
		recs := byStation[key]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date < recs[j].Date })
	}

	d.idx.Store(&index{records: records, byStation: byStation})
	d.logger.Info("parquet dataset loaded", "path", d.path, "rows", len(records), "stations", len(byStation))
	return nil
}

// ScanCatalog re-reads the dataset file and streams every row's catalog
// projection to fn.
func (d *Dataset) ScanCatalog(ctx context.Context, fn func(domain.CatalogRow) error) error {
	if err := d.load(); err != nil {
		return err
	}
	for i, rec := range d.idx.Load().records {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row := domain.CatalogRow{
			RegionID:    rec.RegionName,
			RegionName:  rec.RegionName,
			StationID:   rec.StationID,
			StationName: rec.StationName,
			Date:        domain.Date(rec.Date),
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// StationRecords returns the station's rows ordered by date ascending. An
// unknown pair yields zero rows, not an error.
func (d *Dataset) StationRecords(_ context.Context, regionID, stationID string) ([]domain.Record, error) {
	recs := d.idx.Load().byStation[stationKey{regionID: regionID, stationID: stationID}]
	out := make([]domain.Record, len(recs))
	copy(out, recs)
	return out, nil
}
