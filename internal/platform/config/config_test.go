package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"DATABASE_URL": "postgres://localhost/tindahan",
		"JWT_SECRET":   "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.CommitTimeout)
	assert.Equal(t, 72*time.Hour, cfg.CartDraftTTL)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, "Asia/Manila", cfg.ReportLocation.String())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"STORE_BACKEND":       "memory",
		"APP_PORT":            "9090",
		"COMMIT_TIMEOUT":      "750ms",
		"LOW_STOCK_THRESHOLD": "3",
		"REDIS_DB":            "2",
		"REPORT_TIMEZONE":     "UTC",
	}))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.CommitTimeout)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without url": {"JWT_SECRET": "x"},
		"postgres without jwt": {"DATABASE_URL": "postgres://x"},
		"unknown backend":      {"STORE_BACKEND": "firestore"},
		"bad duration":         {"STORE_BACKEND": "memory", "COMMIT_TIMEOUT": "soon"},
		"zero timeout":         {"STORE_BACKEND": "memory", "COMMIT_TIMEOUT": "0s"},
		"bad int":              {"STORE_BACKEND": "memory", "LOW_STOCK_THRESHOLD": "five"},
		"bad zone":             {"STORE_BACKEND": "memory", "REPORT_TIMEZONE": "Nowhere/Town"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(lookup(vars))
			assert.Error(t, err)
		})
	}
}
