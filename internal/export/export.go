// Package export materializes a station's full time series as an in-memory
// CSV document ready to send, paired with the validity interval the catalog
// already computed at build time.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jszwec/csvutil"

	"github.com/synopticdata/station-bot/internal/domain"
)

// File is one materialized export: serialized CSV bytes plus naming inputs.
type File struct {
	Filename string
	Interval domain.Interval
	Data     []byte
}

// Materializer extracts and serializes station subsets of the dataset.
type Materializer struct {
	dataset domain.Dataset
	logger  *slog.Logger
}

// New creates a materializer over the given dataset.
func New(dataset domain.Dataset, logger *slog.Logger) *Materializer {
	return &Materializer{dataset: dataset, logger: logger}
}

// Materialize filters the dataset to one (region, station) pair, orders rows
// by date ascending, and serializes them to CSV in memory. The interval comes
// from the catalog snapshot — no re-aggregation at export time.
//
// Returns domain.ErrNoData when an indexed station yields zero rows: a
// consistency fault between index and source, logged here.
func (m *Materializer) Materialize(ctx context.Context, regionID, stationID string, iv domain.Interval) (*File, error) {
	records, err := m.dataset.StationRecords(ctx, regionID, stationID)
	if err != nil {
		return nil, fmt.Errorf("fetch station records: %w", err)
	}
	if len(records) == 0 {
		m.logger.Error("index/source inconsistency: indexed station has no rows",
			"region_id", regionID, "station_id", stationID)
		return nil, domain.ErrNoData
	}

	// Defensive: the dataset contract says sorted, but the ordering of the
	// export is a user-visible guarantee.
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)
	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return nil, fmt.Errorf("encode csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return &File{
		Filename: fmt.Sprintf("%s_%s_%s_%s.csv", regionID, stationID, iv.Start, iv.End),
		Interval: iv,
		Data:     buf.Bytes(),
	}, nil
}
