package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: valuation
    user: valuation
  elasticsearch:
    addresses:
      - http://localhost:9200
  redis:
    address: localhost:6379
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ==========================
// Tests
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.HTTPPort)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.GetURL())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "high", cfg.Notifications.SMS.PriorityThreshold)

	assert.Equal(t, "vehicle_listings", cfg.Valuation.ListingsIndex)
	assert.Equal(t, 150.0, cfg.Valuation.SearchRadiusMiles)
	assert.Equal(t, 2, cfg.Valuation.SearchYearWindow)
	assert.Equal(t, 25, cfg.Valuation.MaxListings)
	assert.Equal(t, 5.0, cfg.Valuation.NoticeThresholdPercent)
	assert.Equal(t, 600, cfg.Valuation.SettlementCacheTTL)
}

func TestLoadFromFile_ValuationSection(t *testing.T) {
	content := minimalConfig + `
valuation:
  listings_index: listings_v2
  notice_threshold_percent: 7.5
  settlement_cache_ttl: 60
  equipment_values:
    navigation: 900
    tow package: 650
workers:
  calculate-market-value:
    enabled: true
  send-valuation-notice:
    enabled: false
    timeout: 5000
`
	cfg, err := LoadFromFile(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "listings_v2", cfg.Valuation.ListingsIndex)
	assert.Equal(t, 7.5, cfg.Valuation.NoticeThresholdPercent)
	assert.Equal(t, int64(60), int64(cfg.Valuation.SettlementCacheDuration().Seconds()))
	assert.Equal(t, 900.0, cfg.Valuation.EquipmentValues["navigation"])
	assert.Equal(t, 650.0, cfg.Valuation.EquipmentValues["tow package"])

	assert.True(t, IsWorkerEnabled(cfg, "calculate-market-value"))
	assert.False(t, IsWorkerEnabled(cfg, "send-valuation-notice"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown-worker"))

	notice := GetWorkerConfig(cfg, "send-valuation-notice")
	assert.Equal(t, 5000, notice.Timeout)
	assert.Equal(t, 5, notice.MaxJobsActive)
	assert.Equal(t, 3, notice.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	content := `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: valuation
    user: valuation
    password: ${TEST_PG_PASSWORD}
  elasticsearch:
    url: http://es:9200
  redis:
    address: localhost:6379
`
	cfg, err := LoadFromFile(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "password=s3cret")
	assert.Equal(t, "http://es:9200", cfg.Database.Elasticsearch.GetURL())
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing broker",
			content: "database:\n  postgres:\n    host: localhost\n",
			errMsg:  "camunda.broker_address",
		},
		{
			name:    "negative equipment value",
			content: minimalConfig + "valuation:\n  equipment_values:\n    sunroof: -10\n",
			errMsg:  "equipment_values.sunroof",
		},
		{
			name:    "negative threshold",
			content: minimalConfig + "valuation:\n  notice_threshold_percent: -1\n",
			errMsg:  "notice_threshold_percent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, "1.5s", GetDuration(1500).String())
}
