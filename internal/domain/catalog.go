package domain

import "context"

// Region is a top-level catalog grouping (a province in the source data).
// The dataset has no separate region id column, so ID == Name today; the two
// fields are kept apart so an id column can be adopted without breaking the
// navigation payload format.
type Region struct {
	ID   string
	Name string
}

// Station is a leaf catalog entry owned by exactly one region.
type Station struct {
	ID       string
	Name     string
	RegionID string
}

// CatalogRow is the projection of one dataset row that the catalog build
// needs: identity columns plus the observation date for min/max aggregation.
type CatalogRow struct {
	RegionID    string
	RegionName  string
	StationID   string
	StationName string
	Date        Date
}

// Record is one daily synoptic observation, the unit of an export. Column
// names follow the source dataset; csv tags drive the export serialization.
type Record struct {
	StationID   string  `parquet:"station_id" csv:"station_id"`
	StationName string  `parquet:"station_name" csv:"station_name"`
	RegionName  string  `parquet:"region_name" csv:"region_name"`
	Date        string  `parquet:"date" csv:"date"`
	TMin        float64 `parquet:"tmin" csv:"tmin"`
	TMax        float64 `parquet:"tmax" csv:"tmax"`
	Rain        float64 `parquet:"rrr24" csv:"rrr24"`
	Humidity    float64 `parquet:"rh" csv:"rh"`
	WindSpeed   float64 `parquet:"ff" csv:"ff"`
}

// Dataset is the queryable columnar relation the bot reads. Implementations
// must support a single in-order scan of the identity/date projection and an
// equality-filtered fetch of full records for one station.
type Dataset interface {
	// ScanCatalog streams the catalog projection of every row, in file order,
	// calling fn for each. A non-nil error from fn aborts the scan.
	ScanCatalog(ctx context.Context, fn func(CatalogRow) error) error

	// StationRecords returns every record for the (region, station) pair,
	// sorted ascending by date.
	StationRecords(ctx context.Context, regionID, stationID string) ([]Record, error)
}
