// Package service orchestrates inbound triggers: debounce, payload decoding,
// menu navigation against the catalog snapshot, and the quota-gated export
// path. Every trigger is handled independently; all errors stop at the
// trigger boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/synopticdata/station-bot/internal/catalog"
	"github.com/synopticdata/station-bot/internal/debounce"
	"github.com/synopticdata/station-bot/internal/domain"
	"github.com/synopticdata/station-bot/internal/export"
	"github.com/synopticdata/station-bot/internal/ledger"
	"github.com/synopticdata/station-bot/internal/nav"
	"github.com/synopticdata/station-bot/internal/observability"
)

// Transport delivers rendered output back to the conversation. Implementations
// own retries and must tolerate edits that change nothing.
type Transport interface {
	Send(ctx context.Context, conversationID int64, text string, keyboard [][]nav.Button) error
	Edit(ctx context.Context, conversationID int64, messageID int, text string, keyboard [][]nav.Button) error
	SendDocument(ctx context.Context, conversationID int64, filename string, data []byte) error
}

// AuditPublisher receives every committed download event. Publishing is
// best-effort; failures are logged and never undo a committed download.
type AuditPublisher interface {
	Publish(ctx context.Context, ev domain.DownloadEvent) error
}

// NopAudit discards audit events; used when no audit stream is configured.
type NopAudit struct{}

func (NopAudit) Publish(context.Context, domain.DownloadEvent) error { return nil }

// Deps carries the service's collaborators.
type Deps struct {
	Catalog   *catalog.Holder
	Dataset   domain.Dataset
	Ledger    *ledger.Ledger
	Debounce  *debounce.Filter
	Exporter  *export.Materializer
	Menus     *nav.Builder
	Transport Transport
	Audit     AuditPublisher
	Clock     clockwork.Clock
	Logger    *slog.Logger
	Metrics   *observability.Metrics

	// Guide is the reference document attached to every successful export;
	// empty means no guide is configured.
	Guide     []byte
	GuideName string

	AdminIDs []int64
}

// Service handles triggers for the station data bot.
type Service struct {
	deps  Deps
	ready atomic.Bool
}

// New creates the service. Audit may be nil; NopAudit is substituted.
func New(deps Deps) *Service {
	if deps.Audit == nil {
		deps.Audit = NopAudit{}
	}
	return &Service{deps: deps}
}

// SetTransport wires the outbound transport after construction; the transport
// itself needs the service as its trigger handler. Must be called before any
// trigger is delivered.
func (s *Service) SetTransport(t Transport) {
	s.deps.Transport = t
}

// MarkReady flips readiness once the initial catalog snapshot is published.
func (s *Service) MarkReady() {
	s.ready.Store(true)
	s.deps.Metrics.ServiceReady.Set(1)
}

// CheckReadiness returns nil once the initial catalog snapshot has been
// published, or an error describing why the service is not yet ready.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("catalog snapshot not yet published")
	}
	return nil
}

// ReloadCatalog rebuilds a complete snapshot from the dataset and publishes
// it atomically. The live snapshot is never patched in place; on failure it
// is left untouched.
func (s *Service) ReloadCatalog(ctx context.Context) error {
	start := s.deps.Clock.Now()
	snap, err := catalog.Build(ctx, s.deps.Dataset)
	if err != nil {
		return fmt.Errorf("rebuild catalog: %w", err)
	}
	s.publishSnapshot(snap, start)
	return nil
}

// PublishInitial installs the startup snapshot (possibly empty after a failed
// build) and marks the service ready.
func (s *Service) PublishInitial(snap *catalog.Snapshot, buildStart time.Time) {
	s.publishSnapshot(snap, buildStart)
	s.MarkReady()
}

func (s *Service) publishSnapshot(snap *catalog.Snapshot, start time.Time) {
	s.deps.Catalog.Publish(snap)
	s.deps.Metrics.CatalogBuildDuration.Observe(s.deps.Clock.Now().Sub(start).Seconds())
	s.deps.Metrics.CatalogRegions.Set(float64(snap.RegionCount()))
	s.deps.Metrics.CatalogStations.Set(float64(snap.StationCount()))
	s.deps.Logger.Info("catalog snapshot published",
		"regions", snap.RegionCount(), "stations", snap.StationCount())
}

func (s *Service) isAdmin(userID int64) bool {
	for _, id := range s.deps.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// HandleCommand processes a slash command trigger.
func (s *Service) HandleCommand(ctx context.Context, trig domain.Trigger) {
	s.deps.Metrics.TriggersTotal.WithLabelValues(string(domain.TriggerCommand)).Inc()

	switch trig.Command {
	case "start":
		snap := s.deps.Catalog.Load()
		menu := s.deps.Menus.RegionMenu(snap, 0)
		text := fmt.Sprintf("👋 Welcome %s!\n%s", trig.DisplayName, menu.Text)
		s.send(ctx, trig.ConversationID, text, menu.Keyboard)
	case "help":
		s.send(ctx, trig.ConversationID, helpText, nil)
	case "report", "user", "users_count", "reload":
		s.handleAdminCommand(ctx, trig)
	default:
		s.send(ctx, trig.ConversationID, "Unknown command. Use /start to begin or /help for usage.", nil)
	}
}

const helpText = "ℹ️ Help & Usage Guide\n\n" +
	"1️⃣ Use /start to begin.\n" +
	"2️⃣ Select a province, then choose a synoptic station.\n" +
	"3️⃣ The available data is sent as a CSV file together with the guide document.\n\n" +
	"⚠️ Download limits apply per user (daily, and monthly where configured).\n" +
	"📌 This bot is for academic and research purposes only."

func (s *Service) handleAdminCommand(ctx context.Context, trig domain.Trigger) {
	if !s.isAdmin(trig.UserID) {
		s.send(ctx, trig.ConversationID, "⛔ You are not authorized to use this command.", nil)
		return
	}

	switch trig.Command {
	case "report":
		s.sendDailyReport(ctx, trig.ConversationID)
	case "user":
		s.sendUserSummary(ctx, trig)
	case "users_count":
		n, err := s.deps.Ledger.DistinctUserCount(ctx)
		if err != nil {
			s.deps.Logger.Error("users_count query failed", "error", err)
			s.send(ctx, trig.ConversationID, "⚠️ Report unavailable right now.", nil)
			return
		}
		s.send(ctx, trig.ConversationID, fmt.Sprintf("👥 Total users: %d", n), nil)
	case "reload":
		if err := s.ReloadCatalog(ctx); err != nil {
			s.deps.Logger.Error("catalog reload failed", "error", err)
			s.send(ctx, trig.ConversationID, "⚠️ Catalog reload failed; keeping the current snapshot.", nil)
			return
		}
		snap := s.deps.Catalog.Load()
		s.send(ctx, trig.ConversationID,
			fmt.Sprintf("✅ Catalog reloaded: %d regions, %d stations.", snap.RegionCount(), snap.StationCount()), nil)
	}
}

func (s *Service) sendDailyReport(ctx context.Context, conversationID int64) {
	today := domain.Today(s.deps.Clock)
	events, err := s.deps.Ledger.DownloadsOn(ctx, today)
	if err != nil {
		s.deps.Logger.Error("daily report query failed", "error", err)
		s.send(ctx, conversationID, "⚠️ Report unavailable right now.", nil)
		return
	}
	if len(events) == 0 {
		s.send(ctx, conversationID, "📭 No downloads recorded today.", nil)
		return
	}
	lines := []string{"📊 Daily Download Report"}
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("- 👤 %s (ID: %d)\n  📍 %s | %s", ev.DisplayName, ev.UserID, ev.StationID, ev.Date))
	}
	s.send(ctx, conversationID, strings.Join(lines, "\n\n"), nil)
}

func (s *Service) sendUserSummary(ctx context.Context, trig domain.Trigger) {
	if len(trig.Args) != 1 {
		s.send(ctx, trig.ConversationID, "❌ Usage: /user <user_id>", nil)
		return
	}
	userID, err := strconv.ParseInt(trig.Args[0], 10, 64)
	if err != nil {
		s.send(ctx, trig.ConversationID, "❌ Usage: /user <user_id>", nil)
		return
	}
	total, stations, err := s.deps.Ledger.UserSummary(ctx, userID)
	if err != nil {
		s.deps.Logger.Error("user summary query failed", "error", err, "target_user_id", userID)
		s.send(ctx, trig.ConversationID, "⚠️ Report unavailable right now.", nil)
		return
	}
	if total == 0 {
		s.send(ctx, trig.ConversationID, fmt.Sprintf("ℹ️ No downloads recorded for user %d.", userID), nil)
		return
	}
	text := fmt.Sprintf("👤 User ID: %d\n⬇️ Total downloads: %d\n\n📡 Stations:\n• %s",
		userID, total, strings.Join(stations, "\n• "))
	s.send(ctx, trig.ConversationID, text, nil)
}

// HandleCallback processes a button tap.
func (s *Service) HandleCallback(ctx context.Context, trig domain.Trigger) {
	s.deps.Metrics.TriggersTotal.WithLabelValues(string(domain.TriggerCallback)).Inc()

	if s.deps.Debounce.ShouldSuppress(trig.ConversationID, trig.MessageID, trig.Payload) {
		s.deps.Metrics.TriggersSuppressed.Inc()
		s.deps.Logger.Debug("duplicate trigger suppressed",
			"conversation_id", trig.ConversationID, "message_id", trig.MessageID)
		return
	}

	snap := s.deps.Catalog.Load()
	action := nav.DecodeAction(trig.Payload)

	switch action.Kind {
	case nav.ActionList:
		s.renderList(ctx, trig, snap, action.Token)
	case nav.ActionBack:
		menu := s.deps.Menus.RegionMenu(snap, 0)
		s.edit(ctx, trig, "🔙 "+menu.Text, menu.Keyboard)
	case nav.ActionPick:
		s.handlePick(ctx, trig, snap, action.Region, action.Station)
	default:
		// Malformed or stale payload: re-render the root menu, never guess.
		s.deps.Logger.Warn("invalid navigation payload", "payload", trig.Payload)
		menu := s.deps.Menus.RegionMenu(snap, 0)
		s.edit(ctx, trig, menu.Text, menu.Keyboard)
	}
}

func (s *Service) renderList(ctx context.Context, trig domain.Trigger, snap *catalog.Snapshot, token nav.Token) {
	switch token.Kind {
	case nav.ListStations:
		menu, ok := s.deps.Menus.StationMenu(snap, token.Region, token.Page)
		if !ok {
			// Region vanished from the snapshot (reload) or was never there.
			root := s.deps.Menus.RegionMenu(snap, 0)
			s.edit(ctx, trig, "⚠️ No stations found for this province.\n"+root.Text, root.Keyboard)
			return
		}
		s.edit(ctx, trig, menu.Text, menu.Keyboard)
	default:
		menu := s.deps.Menus.RegionMenu(snap, token.Page)
		s.edit(ctx, trig, menu.Text, menu.Keyboard)
	}
}

// handlePick runs the terminal download path: quota gate, materialize,
// atomic reserve, then delivery. A DownloadEvent is only ever written after
// the export bytes exist.
func (s *Service) handlePick(ctx context.Context, trig domain.Trigger, snap *catalog.Snapshot, regionID, stationID string) {
	today := domain.Today(s.deps.Clock)

	station, ok := snap.Station(regionID, stationID)
	if !ok {
		root := s.deps.Menus.RegionMenu(snap, 0)
		s.edit(ctx, trig, "⚠️ That station is no longer available.\n"+root.Text, root.Keyboard)
		return
	}

	allowed, err := s.deps.Ledger.CanDownload(ctx, trig.UserID, today)
	if err != nil {
		s.deps.Metrics.LedgerErrors.Inc()
		s.deps.Metrics.DownloadsDenied.WithLabelValues("ledger_error").Inc()
		s.deps.Logger.Error("quota pre-check failed", "error", err, "user_id", trig.UserID)
		s.send(ctx, trig.ConversationID, deniedText, nil)
		return
	}
	if !allowed {
		s.deps.Metrics.DownloadsDenied.WithLabelValues("quota").Inc()
		s.send(ctx, trig.ConversationID, deniedText, nil)
		return
	}

	iv, ok := snap.Validity(regionID, stationID)
	if !ok {
		s.send(ctx, trig.ConversationID, "⚠️ No data is available for this station.", nil)
		return
	}

	s.send(ctx, trig.ConversationID, nav.StationDetailText(station, iv), nil)

	start := s.deps.Clock.Now()
	file, err := s.deps.Exporter.Materialize(ctx, regionID, stationID, iv)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			s.deps.Metrics.ExportNoData.Inc()
			s.send(ctx, trig.ConversationID, "⚠️ Data for this station is unavailable right now.", nil)
			return
		}
		s.deps.Logger.Error("export failed", "error", err, "region_id", regionID, "station_id", stationID)
		s.send(ctx, trig.ConversationID, "⚠️ Export failed; please try again later.", nil)
		return
	}
	s.deps.Metrics.ExportDuration.Observe(s.deps.Clock.Now().Sub(start).Seconds())
	s.deps.Metrics.ExportBytes.Observe(float64(len(file.Data)))

	// Authoritative check-and-reserve. A concurrent duplicate for the same
	// user loses here even if it slipped past the debounce filter.
	result, err := s.deps.Ledger.ReserveAndLog(ctx, trig.UserID, trig.DisplayName, stationID, today)
	if err != nil {
		s.deps.Metrics.LedgerErrors.Inc()
		s.deps.Metrics.DownloadsDenied.WithLabelValues("ledger_error").Inc()
		s.deps.Logger.Error("reserve failed closed", "error", err, "user_id", trig.UserID)
		s.send(ctx, trig.ConversationID, deniedText, nil)
		return
	}
	if result == ledger.Denied {
		s.deps.Metrics.DownloadsDenied.WithLabelValues("race").Inc()
		s.send(ctx, trig.ConversationID, deniedText, nil)
		return
	}
	s.deps.Metrics.DownloadsCommitted.Inc()

	if err := s.deps.Transport.SendDocument(ctx, trig.ConversationID, file.Filename, file.Data); err != nil {
		// The event is committed and the export was produced; delivery
		// retries belong to the transport.
		s.deps.Logger.Error("export delivery failed", "error", err, "user_id", trig.UserID)
	}
	if len(s.deps.Guide) > 0 {
		if err := s.deps.Transport.SendDocument(ctx, trig.ConversationID, s.deps.GuideName, s.deps.Guide); err != nil {
			s.deps.Logger.Warn("guide delivery failed", "error", err)
		}
	}

	s.publishAudit(ctx, domain.DownloadEvent{
		UserID:      trig.UserID,
		DisplayName: trig.DisplayName,
		StationID:   stationID,
		Date:        today,
	})

	menu := s.deps.Menus.RegionMenu(snap, 0)
	s.send(ctx, trig.ConversationID, "Please select a province again:", menu.Keyboard)
}

const deniedText = "❌ You have reached your download limit (one station per day" +
	", limited per month where configured). Please try again later."

func (s *Service) publishAudit(ctx context.Context, ev domain.DownloadEvent) {
	if err := s.deps.Audit.Publish(ctx, ev); err != nil {
		s.deps.Metrics.AuditErrors.Inc()
		s.deps.Logger.Warn("audit publish failed", "error", err, "user_id", ev.UserID)
		return
	}
	s.deps.Metrics.AuditPublished.Inc()
}

func (s *Service) send(ctx context.Context, conversationID int64, text string, keyboard [][]nav.Button) {
	if err := s.deps.Transport.Send(ctx, conversationID, text, keyboard); err != nil {
		s.deps.Logger.Error("send failed", "error", err, "conversation_id", conversationID)
	}
}

func (s *Service) edit(ctx context.Context, trig domain.Trigger, text string, keyboard [][]nav.Button) {
	if err := s.deps.Transport.Edit(ctx, trig.ConversationID, trig.MessageID, text, keyboard); err != nil {
		s.deps.Logger.Error("edit failed", "error", err, "conversation_id", trig.ConversationID)
	}
}
