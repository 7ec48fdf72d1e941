// Package domain models the synoptic weather station catalog and the
// download quota ledger the bot is built around.
//
// # Data Source
//
// Observations come from a single columnar (parquet) dataset of daily
// synoptic station records. Each row carries the owning region (province)
// name, the station identifier and display name, the observation date, and
// the measurement columns. The dataset is read-only from the bot's point of
// view; how rows get into it is out of scope.
//
// The dataset carries no separate region identifier column, so a Region's ID
// is its display name. Station identifiers are distinct from display names
// (WMO-style numeric codes in the source data).
//
// # Dates
//
// All quota accounting and validity intervals work at calendar-day
// granularity. [Date] is an ISO "YYYY-MM-DD" string: lexicographic order is
// chronological order, which keeps ledger range scans index-friendly and
// avoids timezone arithmetic where none is needed.
//
// # Catalog
//
// The region → station catalog and the per-station [Interval] of available
// data are derived from the dataset in a single pass at startup and published
// as an immutable snapshot (see internal/catalog). Menu navigation never
// touches the dataset; only a confirmed export does.
//
// # Quota
//
// A [DownloadEvent] is appended for every successful export, never updated or
// deleted. Eligibility is derived on demand: a non-exempt user may download
// at most once per day and at most N times per calendar month. The daily-only
// policy is the N=0 special case.
package domain
