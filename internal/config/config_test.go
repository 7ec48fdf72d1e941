package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "123456:test-token"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testToken, cfg.BotToken)
	assert.Equal(t, 60*time.Second, cfg.PollTimeout)
	assert.Equal(t, "data/stations.parquet", cfg.DataPath)
	assert.Empty(t, cfg.GuidePath)
	assert.Equal(t, "downloads.db", cfg.LedgerPath)
	assert.Empty(t, cfg.AdminIDs)
	assert.Empty(t, cfg.ExemptUserIDs)
	assert.Equal(t, 10, cfg.MonthlyCap)
	assert.Equal(t, 16, cfg.PageSize)
	assert.Equal(t, 2, cfg.ButtonsPerRow)
	assert.Equal(t, 1500*time.Millisecond, cfg.DebounceWindow)
	assert.Equal(t, 5*time.Second, cfg.LedgerTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.AuditEnabled)
	assert.Equal(t, "station-download-audit", cfg.KafkaAuditTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("POLL_TIMEOUT", "30s")
	t.Setenv("DATA_PATH", "/data/iran.parquet")
	t.Setenv("GUIDE_PATH", "/data/help.pdf")
	t.Setenv("LEDGER_PATH", "/var/lib/bot/ledger.db")
	t.Setenv("ADMIN_IDS", "1001, 1002")
	t.Setenv("EXEMPT_USER_IDS", "1001,107479525")
	t.Setenv("MONTHLY_CAP", "5")
	t.Setenv("PAGE_SIZE", "8")
	t.Setenv("BUTTONS_PER_ROW", "3")
	t.Setenv("DEBOUNCE_WINDOW", "2s")
	t.Setenv("LEDGER_TIMEOUT", "3s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_AUDIT_TOPIC", "custom-audit")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.PollTimeout)
	assert.Equal(t, "/data/iran.parquet", cfg.DataPath)
	assert.Equal(t, "/data/help.pdf", cfg.GuidePath)
	assert.Equal(t, "/var/lib/bot/ledger.db", cfg.LedgerPath)
	assert.Equal(t, []int64{1001, 1002}, cfg.AdminIDs)
	assert.Equal(t, []int64{1001, 107479525}, cfg.ExemptUserIDs)
	assert.Equal(t, 5, cfg.MonthlyCap)
	assert.Equal(t, 8, cfg.PageSize)
	assert.Equal(t, 3, cfg.ButtonsPerRow)
	assert.Equal(t, 2*time.Second, cfg.DebounceWindow)
	assert.Equal(t, 3*time.Second, cfg.LedgerTimeout)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.AuditEnabled)
	assert.Equal(t, "custom-audit", cfg.KafkaAuditTopic)
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestLoad_InvalidDebounceWindow(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("DEBOUNCE_WINDOW", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEBOUNCE_WINDOW")
}

func TestLoad_NegativeDebounceWindow(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("DEBOUNCE_WINDOW", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEBOUNCE_WINDOW")
}

func TestLoad_InvalidMonthlyCap(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("MONTHLY_CAP", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONTHLY_CAP")
}

func TestLoad_MonthlyCapZeroMeansDailyOnly(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("MONTHLY_CAP", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MonthlyCap)
}

func TestLoad_InvalidPageSize(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("PAGE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAGE_SIZE")
}

func TestLoad_InvalidAdminID(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("ADMIN_IDS", "1001,abc")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_IDS")
}

func TestLoad_AuditEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", testToken)
	t.Setenv("AUDIT_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminIDs: []int64{42}}
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(43))
}
