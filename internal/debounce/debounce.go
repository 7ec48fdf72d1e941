// Package debounce suppresses duplicate triggers on the same conversation
// message inside a short window. The transport can redeliver callbacks, and
// users double-tap buttons before the first response renders; without this
// filter a download tap could reach the quota ledger twice before the first
// write lands. Best-effort and process-local: the ledger stays the
// authoritative check.
package debounce

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
)

type record struct {
	signature string
	seenAt    time.Time
}

// Filter remembers the last action signature per (conversation, message).
// Entries expire out of the backing cache on their own, so the map stays
// bounded without an explicit sweep.
type Filter struct {
	window time.Duration
	clock  clockwork.Clock

	mu      sync.Mutex
	entries *gocache.Cache
}

// New creates a filter with the given suppression window.
func New(window time.Duration, clock clockwork.Clock) *Filter {
	// Cache TTL is generous relative to the window; correctness comes from
	// the timestamp comparison below, the TTL only bounds memory.
	return &Filter{
		window:  window,
		clock:   clock,
		entries: gocache.New(10*window, 20*window),
	}
}

// ShouldSuppress reports whether this trigger repeats the previous action on
// the same message inside the window. When it does not, the trigger is
// recorded as the new last action.
func (f *Filter) ShouldSuppress(conversationID int64, messageID int, signature string) bool {
	key := fmt.Sprintf("%d:%d", conversationID, messageID)
	now := f.clock.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.entries.Get(key); ok {
		last := v.(record)
		if last.signature == signature && now.Sub(last.seenAt) < f.window {
			return true
		}
	}
	f.entries.Set(key, record{signature: signature, seenAt: now}, gocache.DefaultExpiration)
	return false
}
