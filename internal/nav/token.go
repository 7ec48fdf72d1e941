// Package nav implements the stateless navigation protocol: the token codec
// that round-trips "where the user is" through button payloads, and the menu
// builder that interprets decoded payloads against a catalog snapshot.
//
// Payloads are fully self-describing so the flow survives process restarts
// and replayed callbacks; no server-side session state exists.
package nav

import (
	"strconv"
	"strings"
)

// tokenVersion tags every payload so the format can evolve without
// misreading stale buttons left in old chat messages.
const tokenVersion = "v1"

const sep = "|"

// ListKind says which list a token pages through.
type ListKind string

const (
	// ListRegions pages the top-level region list.
	ListRegions ListKind = "rg"
	// ListStations pages one region's station list.
	ListStations ListKind = "st"
)

// Token encodes a paging position: list kind, optional parent region, page.
// It is the unit the pagination codec round-trips; page validity against the
// current list size is the menu builder's job, not the codec's.
type Token struct {
	Kind   ListKind
	Region string // parent region id, only for ListStations
	Page   int
}

// Encode serializes the token into a compact payload string.
func (t Token) Encode() string {
	page := strconv.Itoa(t.Page)
	if t.Kind == ListStations {
		return strings.Join([]string{tokenVersion, string(ListStations), t.Region, page}, sep)
	}
	return strings.Join([]string{tokenVersion, string(ListRegions), page}, sep)
}

// DecodeToken parses a payload produced by Encode. Malformed input returns
// ok=false; callers must treat that as "re-render the root menu", never as
// page zero of anything.
func DecodeToken(s string) (Token, bool) {
	parts := strings.Split(s, sep)
	if len(parts) < 3 || parts[0] != tokenVersion {
		return Token{}, false
	}
	switch ListKind(parts[1]) {
	case ListRegions:
		if len(parts) != 3 {
			return Token{}, false
		}
		page, ok := parsePage(parts[2])
		if !ok {
			return Token{}, false
		}
		return Token{Kind: ListRegions, Page: page}, true
	case ListStations:
		if len(parts) != 4 || parts[2] == "" {
			return Token{}, false
		}
		page, ok := parsePage(parts[3])
		if !ok {
			return Token{}, false
		}
		return Token{Kind: ListStations, Region: parts[2], Page: page}, true
	default:
		return Token{}, false
	}
}

func parsePage(s string) (int, bool) {
	page, err := strconv.Atoi(s)
	if err != nil || page < 0 {
		return 0, false
	}
	return page, true
}

// ActionKind discriminates the decoded callback payloads beyond paging.
type ActionKind int

const (
	// ActionInvalid is the explicit malformed-payload variant.
	ActionInvalid ActionKind = iota
	// ActionList renders a page of a list (regions or one region's stations).
	ActionList
	// ActionPick is a terminal station selection: the download path.
	ActionPick
	// ActionBack returns from a station list to the region list.
	ActionBack
)

const (
	opPick = "pk"
	opBack = "bk"
)

// Action is one decoded button payload.
type Action struct {
	Kind    ActionKind
	Token   Token  // for ActionList
	Region  string // for ActionPick
	Station string // for ActionPick
}

// EncodePick serializes a station selection payload.
func EncodePick(regionID, stationID string) string {
	return strings.Join([]string{tokenVersion, opPick, regionID, stationID}, sep)
}

// EncodeBack serializes the back-to-regions payload.
func EncodeBack() string {
	return strings.Join([]string{tokenVersion, opBack}, sep)
}

// DecodeAction parses any button payload the bot ever mints. Unknown or
// damaged payloads decode to ActionInvalid.
func DecodeAction(s string) Action {
	parts := strings.Split(s, sep)
	if len(parts) < 2 || parts[0] != tokenVersion {
		return Action{Kind: ActionInvalid}
	}
	switch parts[1] {
	case opBack:
		if len(parts) != 2 {
			return Action{Kind: ActionInvalid}
		}
		return Action{Kind: ActionBack}
	case opPick:
		if len(parts) != 4 || parts[2] == "" || parts[3] == "" {
			return Action{Kind: ActionInvalid}
		}
		return Action{Kind: ActionPick, Region: parts[2], Station: parts[3]}
	default:
		token, ok := DecodeToken(s)
		if !ok {
			return Action{Kind: ActionInvalid}
		}
		return Action{Kind: ActionList, Token: token}
	}
}
