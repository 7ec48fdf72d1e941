package nav

import (
	"fmt"

	"github.com/synopticdata/station-bot/internal/catalog"
	"github.com/synopticdata/station-bot/internal/domain"
)

// Button is one inline keyboard button: a label and the payload delivered
// back when it is tapped. The transport decides how buttons look on screen.
type Button struct {
	Label   string
	Payload string
}

// Menu is a renderable screen: text plus rows of buttons.
type Menu struct {
	Text     string
	Keyboard [][]Button
}

// Builder turns decoded actions and a catalog snapshot into menus. It holds
// only layout configuration; every call derives the full result from its
// arguments, so concurrent use is safe.
type Builder struct {
	pageSize      int
	buttonsPerRow int
}

// NewBuilder creates a menu builder with the given page layout.
func NewBuilder(pageSize, buttonsPerRow int) *Builder {
	return &Builder{pageSize: pageSize, buttonsPerRow: buttonsPerRow}
}

// clampPage validates a requested page against the current list size,
// clamping to the last valid page when the catalog shrank since the token
// was minted.
func (b *Builder) clampPage(page, total int) int {
	if total == 0 {
		return 0
	}
	last := (total - 1) / b.pageSize
	if page > last {
		return last
	}
	if page < 0 {
		return 0
	}
	return page
}

// RegionMenu renders one page of the region list.
func (b *Builder) RegionMenu(snap *catalog.Snapshot, page int) Menu {
	regions := snap.Regions()
	if len(regions) == 0 {
		return Menu{Text: "⚠️ No regions are available right now. Please try again later."}
	}
	page = b.clampPage(page, len(regions))

	buttons := make([]Button, 0, b.pageSize)
	for _, r := range pageSlice(regions, page, b.pageSize) {
		buttons = append(buttons, Button{
			Label:   r.Name,
			Payload: Token{Kind: ListStations, Region: r.ID}.Encode(),
		})
	}

	keyboard := b.rows(buttons)
	keyboard = appendNav(keyboard, Token{Kind: ListRegions, Page: page}, page, len(regions), b.pageSize)

	return Menu{
		Text:     "🏞 Please select a province:",
		Keyboard: keyboard,
	}
}

// StationMenu renders one page of a region's station list. ok is false when
// the region is unknown or empty in the current snapshot.
func (b *Builder) StationMenu(snap *catalog.Snapshot, regionID string, page int) (Menu, bool) {
	region, found := snap.Region(regionID)
	stations := snap.Stations(regionID)
	if !found || len(stations) == 0 {
		return Menu{}, false
	}
	page = b.clampPage(page, len(stations))

	buttons := make([]Button, 0, b.pageSize)
	for _, st := range pageSlice(stations, page, b.pageSize) {
		buttons = append(buttons, Button{
			Label:   st.Name,
			Payload: EncodePick(regionID, st.ID),
		})
	}

	keyboard := b.rows(buttons)
	keyboard = appendNav(keyboard, Token{Kind: ListStations, Region: regionID, Page: page}, page, len(stations), b.pageSize)
	keyboard = append(keyboard, []Button{{Label: "🔙 Back to provinces", Payload: EncodeBack()}})

	return Menu{
		Text:     fmt.Sprintf("🏞 Province: %s\nPlease select a synoptic station:", region.Name),
		Keyboard: keyboard,
	}, true
}

// StationDetailText renders the pre-export confirmation line.
func StationDetailText(station domain.Station, iv domain.Interval) string {
	return fmt.Sprintf("🌡 Selected station: %s\nData available from %s to %s", station.Name, iv.Start, iv.End)
}

// rows lays buttons out buttonsPerRow per row.
func (b *Builder) rows(buttons []Button) [][]Button {
	var keyboard [][]Button
	for len(buttons) > 0 {
		n := b.buttonsPerRow
		if n > len(buttons) {
			n = len(buttons)
		}
		keyboard = append(keyboard, buttons[:n])
		buttons = buttons[n:]
	}
	return keyboard
}

// appendNav adds the Prev/Next row when the list spans multiple pages.
func appendNav(keyboard [][]Button, at Token, page, total, pageSize int) [][]Button {
	lastPage := (total - 1) / pageSize
	if lastPage == 0 {
		return keyboard
	}
	var row []Button
	if page > 0 {
		prev := at
		prev.Page = page - 1
		row = append(row, Button{Label: "⬅️ Prev", Payload: prev.Encode()})
	}
	if page < lastPage {
		next := at
		next.Page = page + 1
		row = append(row, Button{Label: "Next ➡️", Payload: next.Encode()})
	}
	return append(keyboard, row)
}

func pageSlice[T any](list []T, page, pageSize int) []T {
	start := page * pageSize
	if start >= len(list) {
		return nil
	}
	end := start + pageSize
	if end > len(list) {
		end = len(list)
	}
	return list[start:end]
}
