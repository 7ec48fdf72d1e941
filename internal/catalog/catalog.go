// Package catalog builds and serves the immutable region → station index.
//
// The snapshot is built in a single pass over the dataset so that menu
// navigation never rescans it. Readers share one snapshot without locks;
// a rebuild publishes a brand-new snapshot through [Holder] and never
// mutates the live one.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/synopticdata/station-bot/internal/domain"
)

type pairKey struct {
	regionID  string
	stationID string
}

// Snapshot is an immutable view of the catalog. All accessors are safe for
// unsynchronized concurrent use because nothing writes after Build returns.
type Snapshot struct {
	regions  []domain.Region
	stations map[string][]domain.Station
	validity map[pairKey]domain.Interval
}

// Empty returns a snapshot with no regions. Used when the build fails so the
// service degrades to "no regions available" instead of crashing.
func Empty() *Snapshot {
	return &Snapshot{
		stations: map[string][]domain.Station{},
		validity: map[pairKey]domain.Interval{},
	}
}

// Build scans the dataset once and assembles the full snapshot: deduplicated
// regions and stations sorted by display name, plus the min/max observation
// date per (region, station) pair. Both aggregations ride the same pass.
func Build(ctx context.Context, ds domain.Dataset) (*Snapshot, error) {
	type stationAgg struct {
		station  domain.Station
		interval domain.Interval
	}

	seen := make(map[pairKey]*stationAgg)
	regionNames := make(map[string]string) // id → name

	err := ds.ScanCatalog(ctx, func(row domain.CatalogRow) error {
		if row.RegionID == "" || row.StationID == "" {
			return nil // malformed row, skip
		}
		regionNames[row.RegionID] = row.RegionName

		key := pairKey{row.RegionID, row.StationID}
		agg, ok := seen[key]
		if !ok {
			agg = &stationAgg{
				station: domain.Station{
					ID:       row.StationID,
					Name:     row.StationName,
					RegionID: row.RegionID,
				},
			}
			if row.Date.Valid() {
				agg.interval = domain.Interval{Start: row.Date, End: row.Date}
			}
			seen[key] = agg
			return nil
		}
		if !row.Date.Valid() {
			return nil
		}
		if agg.interval.Start == "" || row.Date.Before(agg.interval.Start) {
			agg.interval.Start = row.Date
		}
		if row.Date.After(agg.interval.End) {
			agg.interval.End = row.Date
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	snap := Empty()

	for id, name := range regionNames {
		snap.regions = append(snap.regions, domain.Region{ID: id, Name: name})
	}
	sort.Slice(snap.regions, func(i, j int) bool {
		return snap.regions[i].Name < snap.regions[j].Name
	})

	for key, agg := range seen {
		snap.stations[key.regionID] = append(snap.stations[key.regionID], agg.station)
		// A pair with no valid dates is "no data": absent from validity.
		if agg.interval.Start != "" {
			snap.validity[key] = agg.interval
		}
	}
	for id := range snap.stations {
		list := snap.stations[id]
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}

	return snap, nil
}

// Regions returns all regions in display order.
func (s *Snapshot) Regions() []domain.Region {
	return s.regions
}

// Stations returns the region's stations in display order. Unknown regions
// yield an empty slice, not an error.
func (s *Snapshot) Stations(regionID string) []domain.Station {
	return s.stations[regionID]
}

// Station looks up one station by id within a region.
func (s *Snapshot) Station(regionID, stationID string) (domain.Station, bool) {
	for _, st := range s.stations[regionID] {
		if st.ID == stationID {
			return st, true
		}
	}
	return domain.Station{}, false
}

// Region looks up one region by id.
func (s *Snapshot) Region(regionID string) (domain.Region, bool) {
	for _, r := range s.regions {
		if r.ID == regionID {
			return r, true
		}
	}
	return domain.Region{}, false
}

// Validity returns the inclusive date interval for which the station has
// data. ok is false when the pair is unknown or has no data.
func (s *Snapshot) Validity(regionID, stationID string) (domain.Interval, bool) {
	iv, ok := s.validity[pairKey{regionID, stationID}]
	return iv, ok
}

// RegionCount returns the number of regions.
func (s *Snapshot) RegionCount() int { return len(s.regions) }

// StationCount returns the total number of stations across regions.
func (s *Snapshot) StationCount() int {
	n := 0
	for _, list := range s.stations {
		n += len(list)
	}
	return n
}

// Holder publishes the live snapshot. Swaps are atomic; readers may keep
// using an old snapshot they already loaded.
type Holder struct {
	ptr atomic.Pointer[Snapshot]
}

// NewHolder starts with the given snapshot.
func NewHolder(snap *Snapshot) *Holder {
	h := &Holder{}
	h.ptr.Store(snap)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() *Snapshot { return h.ptr.Load() }

// Publish atomically replaces the live snapshot.
func (h *Holder) Publish(snap *Snapshot) { h.ptr.Store(snap) }
