package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lcroft/stagehand/internal/config"
	"github.com/lcroft/stagehand/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 60, cfg.Throttle.Limit(domain.WindowHour))
	assert.Equal(t, 500, cfg.Throttle.Limit(domain.WindowDay))
	assert.Equal(t, 0, cfg.Throttle.Limit("week"), "unknown window is unlimited")
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stagehand.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: \":9000\"\ndb_path: /var/lib/stagehand.db\nthrottle:\n  per_hour: 10\n"), 0o600))

	t.Setenv("STAGEHAND_LISTEN_ADDR", ":7000")
	t.Setenv("STAGEHAND_DEDUPE_RETENTION", "1h")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	// Env wins over file, file wins over defaults.
	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/stagehand.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.Throttle.PerHour)
	assert.Equal(t, time.Hour, cfg.DedupeRetention)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
