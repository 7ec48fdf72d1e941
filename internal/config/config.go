package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	BotToken    string
	PollTimeout time.Duration

	DataPath   string
	GuidePath  string
	LedgerPath string

	AdminIDs      []int64
	ExemptUserIDs []int64
	MonthlyCap    int

	PageSize       int
	ButtonsPerRow  int
	DebounceWindow time.Duration
	LedgerTimeout  time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Audit stream configuration. Publishing is enabled when brokers are set,
	// unless AUDIT_ENABLED overrides.
	KafkaBrokers    []string
	KafkaAuditTopic string
	AuditEnabled    bool
}

// Load reads configuration from the environment (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}

	pollTimeout, err := parseDuration("POLL_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	debounceWindow, err := parseDuration("DEBOUNCE_WINDOW", "1500ms")
	if err != nil {
		return nil, err
	}
	ledgerTimeout, err := parseDuration("LEDGER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	monthlyCap, err := parseBoundedInt("MONTHLY_CAP", 10, 0, 1000)
	if err != nil {
		return nil, err
	}
	pageSize, err := parseBoundedInt("PAGE_SIZE", 16, 1, 50)
	if err != nil {
		return nil, err
	}
	buttonsPerRow, err := parseBoundedInt("BUTTONS_PER_ROW", 2, 1, 8)
	if err != nil {
		return nil, err
	}

	adminIDs, err := parseIDList("ADMIN_IDS")
	if err != nil {
		return nil, err
	}
	exemptIDs, err := parseIDList("EXEMPT_USER_IDS")
	if err != nil {
		return nil, err
	}

	brokers := parseList(os.Getenv("KAFKA_BROKERS"))
	auditEnabled := len(brokers) > 0
	if v := os.Getenv("AUDIT_ENABLED"); v != "" {
		auditEnabled = v == "true"
	}

	cfg := &Config{
		BotToken:    token,
		PollTimeout: pollTimeout,

		DataPath:   envOrDefault("DATA_PATH", "data/stations.parquet"),
		GuidePath:  os.Getenv("GUIDE_PATH"),
		LedgerPath: envOrDefault("LEDGER_PATH", "downloads.db"),

		AdminIDs:      adminIDs,
		ExemptUserIDs: exemptIDs,
		MonthlyCap:    monthlyCap,

		PageSize:       pageSize,
		ButtonsPerRow:  buttonsPerRow,
		DebounceWindow: debounceWindow,
		LedgerTimeout:  ledgerTimeout,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:    brokers,
		KafkaAuditTopic: envOrDefault("KAFKA_AUDIT_TOPIC", "station-download-audit"),
		AuditEnabled:    auditEnabled,
	}

	if cfg.AuditEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("AUDIT_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// IsAdmin reports whether the user may run admin commands.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBoundedInt(key string, fallback, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: %q (must be %d..%d)", key, s, minVal, maxVal)
	}
	return n, nil
}

func parseIDList(key string) ([]int64, error) {
	var ids []int64
	for _, part := range parseList(os.Getenv(key)) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry: %q", key, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
