// Package ledger is the authoritative, persistent record of download events
// and the quota decisions derived from them.
//
// Download events are append-only sqlite rows. Eligibility is always derived
// on demand from the rows (count since month start, any event today) rather
// than cached, so concurrent writers can never serve a stale window.
// ReserveAndLog re-checks eligibility and inserts inside one transaction
// under a per-user lock: of two concurrent calls for the same user, exactly
// one commits. Every storage failure is returned as Denied — the ledger
// fails closed.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/synopticdata/station-bot/internal/domain"
)

// Result is the outcome of a reservation attempt.
type Result int

const (
	// Committed means the event was appended; the caller owns the download.
	Committed Result = iota
	// Denied means over quota, lost a race, or the ledger failed closed.
	Denied
)

func (r Result) String() string {
	if r == Committed {
		return "committed"
	}
	return "denied"
}

// Options configures quota policy and storage behavior.
type Options struct {
	// MonthlyCap is the per-user event limit per calendar month. Zero
	// disables the monthly branch, leaving the once-per-day rule only.
	MonthlyCap int
	// ExemptUserIDs bypass both quota rules entirely.
	ExemptUserIDs []int64
	// Timeout bounds every ledger call; expiry surfaces as Denied.
	Timeout time.Duration
}

const lockStripes = 64

// Ledger stores download events in sqlite and answers quota questions.
type Ledger struct {
	db      *sql.DB
	cap     int
	exempt  map[int64]struct{}
	timeout time.Duration
	logger  *slog.Logger

	// Per-user striped locks: only same-user races need serializing, so a
	// global mutex would be needless contention.
	locks [lockStripes]sync.Mutex
}

const schema = `
CREATE TABLE IF NOT EXISTS download_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id       INTEGER NOT NULL,
	display_name  TEXT NOT NULL,
	station_id    TEXT NOT NULL,
	event_date    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_download_events_user_date ON download_events(user_id, event_date);
CREATE INDEX IF NOT EXISTS idx_download_events_date ON download_events(event_date);
`

// Open opens (creating if needed) the ledger database at path.
func Open(path string, opts Options, logger *slog.Logger) (*Ledger, error) {
	// WAL keeps concurrent readers off the writer's back; the busy timeout
	// covers short writer overlap across processes.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}

	exempt := make(map[int64]struct{}, len(opts.ExemptUserIDs))
	for _, id := range opts.ExemptUserIDs {
		exempt[id] = struct{}{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Ledger{
		db:      db,
		cap:     opts.MonthlyCap,
		exempt:  exempt,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }

// Exempt reports whether the user bypasses quota rules.
func (l *Ledger) Exempt(userID int64) bool {
	_, ok := l.exempt[userID]
	return ok
}

// CanDownload reports current eligibility. It is a cheap pre-check for menu
// gating; ReserveAndLog re-evaluates authoritatively.
func (l *Ledger) CanDownload(ctx context.Context, userID int64, today domain.Date) (bool, error) {
	if l.Exempt(userID) {
		return true, nil
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	eligible, err := l.eligible(ctx, l.db, userID, today)
	if err != nil {
		return false, fmt.Errorf("check eligibility: %w", err)
	}
	return eligible, nil
}

// ReserveAndLog atomically re-checks eligibility and appends the event.
// Exactly one of two concurrent calls for the same user commits; the loser
// and every failure path get Denied.
func (l *Ledger) ReserveAndLog(ctx context.Context, userID int64, displayName, stationID string, today domain.Date) (Result, error) {
	lock := &l.locks[userLockIndex(userID)]
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Denied, fmt.Errorf("begin reserve tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if !l.Exempt(userID) {
		eligible, err := l.eligible(ctx, tx, userID, today)
		if err != nil {
			return Denied, fmt.Errorf("re-check eligibility: %w", err)
		}
		if !eligible {
			return Denied, nil
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO download_events (user_id, display_name, station_id, event_date) VALUES (?, ?, ?, ?)`,
		userID, displayName, stationID, string(today),
	)
	if err != nil {
		return Denied, fmt.Errorf("append download event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Denied, fmt.Errorf("commit reserve tx: %w", err)
	}

	l.logger.Debug("download event committed",
		"user_id", userID, "station_id", stationID, "date", today)
	return Committed, nil
}

// querier lets eligibility run against either the pool or a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// eligible derives the quota window in one query: events this month and
// whether any is dated today.
func (l *Ledger) eligible(ctx context.Context, q querier, userID int64, today domain.Date) (bool, error) {
	if !today.Valid() {
		return false, fmt.Errorf("invalid date %q", today)
	}
	var monthCount, todayCount int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN event_date = ? THEN 1 ELSE 0 END), 0)
		 FROM download_events WHERE user_id = ? AND event_date >= ?`,
		string(today), userID, string(today.MonthStart()),
	).Scan(&monthCount, &todayCount)
	if err != nil {
		return false, err
	}
	if todayCount > 0 {
		return false, nil
	}
	if l.cap > 0 && monthCount >= l.cap {
		return false, nil
	}
	return true, nil
}

func userLockIndex(userID int64) int {
	h := fnv.New32a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(userID >> (8 * i))
	}
	h.Write(buf[:]) //nolint:errcheck // fnv never fails
	return int(h.Sum32() % lockStripes)
}

// DownloadsOn lists the events dated exactly on the given day, oldest first.
func (l *Ledger) DownloadsOn(ctx context.Context, date domain.Date) ([]domain.DownloadEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx,
		`SELECT user_id, display_name, station_id, event_date
		 FROM download_events WHERE event_date = ? ORDER BY id`,
		string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	var events []domain.DownloadEvent
	for rows.Next() {
		var ev domain.DownloadEvent
		if err := rows.Scan(&ev.UserID, &ev.DisplayName, &ev.StationID, &ev.Date); err != nil {
			return nil, fmt.Errorf("scan download event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// UserSummary returns a user's all-time download count and the distinct
// stations they fetched, for the admin /user command.
func (l *Ledger) UserSummary(ctx context.Context, userID int64) (int, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var total int
	if err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM download_events WHERE user_id = ?`, userID,
	).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count user downloads: %w", err)
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT DISTINCT station_id FROM download_events WHERE user_id = ? ORDER BY station_id`, userID,
	)
	if err != nil {
		return 0, nil, fmt.Errorf("query user stations: %w", err)
	}
	defer rows.Close()

	var stations []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return 0, nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}
	return total, stations, rows.Err()
}

// DistinctUserCount returns how many distinct users ever downloaded.
func (l *Ledger) DistinctUserCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM download_events`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count distinct users: %w", err)
	}
	return n, nil
}
