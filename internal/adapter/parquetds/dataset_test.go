package parquetds_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synopticdata/station-bot/internal/adapter/parquetds"
	"github.com/synopticdata/station-bot/internal/domain"
)

func writeFixture(t *testing.T, records []domain.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stations.parquet")
	require.NoError(t, parquet.WriteFile(path, records))
	return path
}

func fixtureRecords() []domain.Record {
	rec := func(region, station, name, date string, tmax float64) domain.Record {
		return domain.Record{
			StationID:   station,
			StationName: name,
			RegionName:  region,
			Date:        date,
			TMax:        tmax,
		}
	}
	return []domain.Record{
		rec("Tehran", "40754", "Mehrabad", "2020-05-02", 28),
		rec("Tehran", "40754", "Mehrabad", "2020-05-01", 25),
		rec("Fars", "40848", "Shiraz", "2019-03-10", 19),
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := parquetds.Open(filepath.Join(t.TempDir(), "nope.parquet"), slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}

func TestScanCatalog(t *testing.T) {
	path := writeFixture(t, fixtureRecords())
	ds, err := parquetds.Open(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	var rows []domain.CatalogRow
	err = ds.ScanCatalog(context.Background(), func(row domain.CatalogRow) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Region id is the region display name.
	assert.Equal(t, "Tehran", rows[0].RegionID)
	assert.Equal(t, "Tehran", rows[0].RegionName)
	assert.Equal(t, "40754", rows[0].StationID)
	assert.Equal(t, "Mehrabad", rows[0].StationName)
	assert.Equal(t, domain.Date("2020-05-02"), rows[0].Date)
}

func TestScanCatalogCanceled(t *testing.T) {
	path := writeFixture(t, fixtureRecords())
	ds, err := parquetds.Open(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = ds.ScanCatalog(ctx, func(domain.CatalogRow) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStationRecordsSorted(t *testing.T) {
	path := writeFixture(t, fixtureRecords())
	ds, err := parquetds.Open(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	recs, err := ds.StationRecords(context.Background(), "Tehran", "40754")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "2020-05-01", recs[0].Date)
	assert.Equal(t, "2020-05-02", recs[1].Date)
	assert.Equal(t, 25.0, recs[0].TMax)
}

func TestStationRecordsUnknownPair(t *testing.T) {
	path := writeFixture(t, fixtureRecords())
	ds, err := parquetds.Open(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	recs, err := ds.StationRecords(context.Background(), "Tehran", "99999")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
