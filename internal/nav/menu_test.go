package nav_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synopticdata/station-bot/internal/catalog"
	"github.com/synopticdata/station-bot/internal/domain"
	"github.com/synopticdata/station-bot/internal/nav"
)

type fakeDataset struct {
	rows []domain.CatalogRow
}

func (f *fakeDataset) ScanCatalog(_ context.Context, fn func(domain.CatalogRow) error) error {
	for _, row := range f.rows {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeDataset) StationRecords(context.Context, string, string) ([]domain.Record, error) {
	return nil, nil
}

func buildSnapshot(t *testing.T, rows []domain.CatalogRow) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.Build(context.Background(), &fakeDataset{rows: rows})
	require.NoError(t, err)
	return snap
}

func catalogRow(region, stationID, stationName string) domain.CatalogRow {
	return domain.CatalogRow{
		RegionID: region, RegionName: region,
		StationID: stationID, StationName: stationName,
		Date: "2020-01-01",
	}
}

func TestRegionMenu_Paging(t *testing.T) {
	var rows []domain.CatalogRow
	for i := 0; i < 5; i++ {
		region := fmt.Sprintf("Region-%02d", i)
		rows = append(rows, catalogRow(region, fmt.Sprintf("4%04d", i), "S"))
	}
	snap := buildSnapshot(t, rows)
	b := nav.NewBuilder(2, 2)

	t.Run("first page has only next", func(t *testing.T) {
		menu := b.RegionMenu(snap, 0)
		require.NotEmpty(t, menu.Keyboard)
		navRow := menu.Keyboard[len(menu.Keyboard)-1]
		require.Len(t, navRow, 1)
		assert.Equal(t, "Next ➡️", navRow[0].Label)
	})

	t.Run("middle page has prev and next", func(t *testing.T) {
		menu := b.RegionMenu(snap, 1)
		navRow := menu.Keyboard[len(menu.Keyboard)-1]
		require.Len(t, navRow, 2)
		assert.Equal(t, "⬅️ Prev", navRow[0].Label)
		assert.Equal(t, "Next ➡️", navRow[1].Label)
	})

	t.Run("page beyond end clamps to last page", func(t *testing.T) {
		menu := b.RegionMenu(snap, 99)
		// last page holds 1 region + nav row with only Prev
		require.Len(t, menu.Keyboard, 2)
		assert.Equal(t, "Region-04", menu.Keyboard[0][0].Label)
		navRow := menu.Keyboard[1]
		require.Len(t, navRow, 1)
		assert.Equal(t, "⬅️ Prev", navRow[0].Label)
	})

	t.Run("empty catalog degrades to notice", func(t *testing.T) {
		menu := b.RegionMenu(catalog.Empty(), 0)
		assert.Empty(t, menu.Keyboard)
		assert.Contains(t, menu.Text, "No regions")
	})
}

func TestRegionMenu_ButtonsTargetStations(t *testing.T) {
	snap := buildSnapshot(t, []domain.CatalogRow{catalogRow("Tehran", "40754", "Mehrabad")})
	menu := nav.NewBuilder(16, 2).RegionMenu(snap, 0)

	require.NotEmpty(t, menu.Keyboard)
	payload := menu.Keyboard[0][0].Payload
	tok, ok := nav.DecodeToken(payload)
	require.True(t, ok)
	assert.Equal(t, nav.ListStations, tok.Kind)
	assert.Equal(t, "Tehran", tok.Region)
	assert.Equal(t, 0, tok.Page)
}

func TestStationMenu(t *testing.T) {
	snap := buildSnapshot(t, []domain.CatalogRow{
		catalogRow("Tehran", "40754", "Mehrabad"),
		catalogRow("Tehran", "40755", "Doshan Tappeh"),
		catalogRow("Alborz", "40752", "Karaj"),
	})
	b := nav.NewBuilder(16, 2)

	t.Run("renders only the region's stations sorted", func(t *testing.T) {
		menu, ok := b.StationMenu(snap, "Tehran", 0)
		require.True(t, ok)
		assert.Contains(t, menu.Text, "Tehran")

		var labels []string
		for _, row := range menu.Keyboard[:1] {
			for _, btn := range row {
				labels = append(labels, btn.Label)
			}
		}
		assert.Equal(t, []string{"Doshan Tappeh", "Mehrabad"}, labels)
	})

	t.Run("station buttons carry pick payloads", func(t *testing.T) {
		menu, ok := b.StationMenu(snap, "Alborz", 0)
		require.True(t, ok)
		a := nav.DecodeAction(menu.Keyboard[0][0].Payload)
		require.Equal(t, nav.ActionPick, a.Kind)
		assert.Equal(t, "Alborz", a.Region)
		assert.Equal(t, "40752", a.Station)
	})

	t.Run("back row present", func(t *testing.T) {
		menu, ok := b.StationMenu(snap, "Tehran", 0)
		require.True(t, ok)
		backRow := menu.Keyboard[len(menu.Keyboard)-1]
		require.Len(t, backRow, 1)
		assert.Equal(t, nav.ActionBack, nav.DecodeAction(backRow[0].Payload).Kind)
	})

	t.Run("unknown region", func(t *testing.T) {
		_, ok := b.StationMenu(snap, "Gilan", 0)
		assert.False(t, ok)
	})
}

func TestStationDetailText(t *testing.T) {
	text := nav.StationDetailText(
		domain.Station{ID: "40754", Name: "Mehrabad", RegionID: "Tehran"},
		domain.Interval{Start: "2020-01-01", End: "2023-12-31"},
	)
	assert.Contains(t, text, "Mehrabad")
	assert.Contains(t, text, "2020-01-01")
	assert.Contains(t, text, "2023-12-31")
}
