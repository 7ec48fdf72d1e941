package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the bot.
type Metrics struct {
	TriggersTotal      *prometheus.CounterVec // labels: kind={command,callback}
	TriggersSuppressed prometheus.Counter

	DownloadsCommitted prometheus.Counter
	DownloadsDenied    *prometheus.CounterVec // labels: reason={quota,race,ledger_error}
	LedgerErrors       prometheus.Counter

	ExportDuration prometheus.Histogram
	ExportBytes    prometheus.Histogram
	ExportNoData   prometheus.Counter

	CatalogBuildDuration prometheus.Histogram
	CatalogRegions       prometheus.Gauge
	CatalogStations      prometheus.Gauge

	AuditPublished prometheus.Counter
	AuditErrors    prometheus.Counter

	ServiceReady prometheus.Gauge
}

// NewMetrics creates and registers all bot metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.TriggersTotal,
		m.TriggersSuppressed,
		m.DownloadsCommitted,
		m.DownloadsDenied,
		m.LedgerErrors,
		m.ExportDuration,
		m.ExportBytes,
		m.ExportNoData,
		m.CatalogBuildDuration,
		m.CatalogRegions,
		m.CatalogStations,
		m.AuditPublished,
		m.AuditErrors,
		m.ServiceReady,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		TriggersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "triggers_total",
			Help:      "Inbound triggers by kind.",
		}, []string{"kind"}),
		TriggersSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "triggers_suppressed_total",
			Help:      "Triggers dropped by the debounce filter.",
		}),
		DownloadsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "downloads_committed_total",
			Help:      "Download events appended to the quota ledger.",
		}),
		DownloadsDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "downloads_denied_total",
			Help:      "Download attempts denied, by reason.",
		}, []string{"reason"}),
		LedgerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "ledger_errors_total",
			Help:      "Quota ledger storage failures (all fail closed).",
		}),
		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "station_bot",
			Name:      "export_duration_seconds",
			Help:      "Duration of a station export materialization.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ExportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "station_bot",
			Name:      "export_bytes",
			Help:      "Size of serialized CSV exports in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		ExportNoData: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "export_no_data_total",
			Help:      "Exports that found zero rows for an indexed station (consistency faults).",
		}),
		CatalogBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "station_bot",
			Name:      "catalog_build_duration_seconds",
			Help:      "Duration of a full catalog snapshot build.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),
		CatalogRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station_bot",
			Name:      "catalog_regions",
			Help:      "Regions in the live catalog snapshot.",
		}),
		CatalogStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station_bot",
			Name:      "catalog_stations",
			Help:      "Stations in the live catalog snapshot.",
		}),
		AuditPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "audit_published_total",
			Help:      "Download events published to the audit topic.",
		}),
		AuditErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "station_bot",
			Name:      "audit_errors_total",
			Help:      "Failed audit topic publishes.",
		}),
		ServiceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "station_bot",
			Name:      "service_ready",
			Help:      "1 once the catalog snapshot has been published, 0 before.",
		}),
	}
}
