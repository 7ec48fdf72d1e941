package domain

import "errors"

var (
	// ErrNoData means the catalog promised a station that yields zero rows
	// at export time: an index/source consistency fault, logged upstream.
	ErrNoData = errors.New("no data for station")

	// ErrDenied means the quota ledger refused a reservation, either because
	// the user is over quota or because the ledger failed closed.
	ErrDenied = errors.New("download denied")

	// ErrInvalidToken means a navigation payload did not decode. The service
	// responds by re-rendering the root menu, never by guessing a page.
	ErrInvalidToken = errors.New("invalid navigation token")
)
