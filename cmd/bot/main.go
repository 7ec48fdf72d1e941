package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/synopticdata/station-bot/internal/adapter/http"
	kafkaadapter "github.com/synopticdata/station-bot/internal/adapter/kafka"
	"github.com/synopticdata/station-bot/internal/adapter/parquetds"
	"github.com/synopticdata/station-bot/internal/adapter/telegram"
	"github.com/synopticdata/station-bot/internal/catalog"
	"github.com/synopticdata/station-bot/internal/config"
	"github.com/synopticdata/station-bot/internal/debounce"
	"github.com/synopticdata/station-bot/internal/export"
	"github.com/synopticdata/station-bot/internal/ledger"
	"github.com/synopticdata/station-bot/internal/nav"
	"github.com/synopticdata/station-bot/internal/observability"
	"github.com/synopticdata/station-bot/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	dataset, err := parquetds.Open(cfg.DataPath, logger)
	if err != nil {
		logger.Error("failed to open dataset", "error", err, "path", cfg.DataPath)
		os.Exit(1)
	}

	led, err := ledger.Open(cfg.LedgerPath, ledger.Options{
		MonthlyCap:    cfg.MonthlyCap,
		ExemptUserIDs: cfg.ExemptUserIDs,
		Timeout:       cfg.LedgerTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open ledger", "error", err, "path", cfg.LedgerPath)
		os.Exit(1)
	}

	// Guide document is optional; the bot runs without it.
	var guide []byte
	var guideName string
	if cfg.GuidePath != "" {
		guide, err = os.ReadFile(cfg.GuidePath)
		if err != nil {
			logger.Warn("guide document unavailable", "error", err, "path", cfg.GuidePath)
			guide = nil
		} else {
			guideName = filepath.Base(cfg.GuidePath)
		}
	}

	// Audit stream is feature-flagged via KAFKA_BROKERS / AUDIT_ENABLED.
	var audit service.AuditPublisher
	var auditWriter *kafkaadapter.AuditWriter
	if cfg.AuditEnabled {
		auditWriter = kafkaadapter.NewAuditWriter(cfg, logger)
		audit = auditWriter
		logger.Info("audit stream enabled", "topic", cfg.KafkaAuditTopic)
	} else {
		logger.Info("audit stream disabled")
	}

	holder := catalog.NewHolder(catalog.Empty())

	svc := service.New(service.Deps{
		Catalog:   holder,
		Dataset:   dataset,
		Ledger:    led,
		Debounce:  debounce.New(cfg.DebounceWindow, clock),
		Exporter:  export.New(dataset, logger),
		Menus:     nav.NewBuilder(cfg.PageSize, cfg.ButtonsPerRow),
		Audit:     audit,
		Clock:     clock,
		Logger:    logger,
		Metrics:   metrics,
		Guide:     guide,
		GuideName: guideName,
		AdminIDs:  cfg.AdminIDs,
	})

	bot, err := telegram.NewBot(cfg, svc, logger)
	if err != nil {
		logger.Error("failed to connect to telegram", "error", err)
		os.Exit(1)
	}
	svc.SetTransport(bot)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, holder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial catalog build; a failure degrades to an empty catalog so the
	// process still answers health checks and admin commands.
	buildStart := clock.Now()
	snap, err := catalog.Build(ctx, dataset)
	if err != nil {
		logger.Error("initial catalog build failed", "error", err)
		snap = catalog.Empty()
	}
	svc.PublishInitial(snap, buildStart)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start long polling.
	go bot.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	bot.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if auditWriter != nil {
		if err := auditWriter.Close(); err != nil {
			logger.Error("audit writer close error", "error", err)
		}
	}
	if err := led.Close(); err != nil {
		logger.Error("ledger close error", "error", err)
	}

	logger.Info("shutdown complete")
}
