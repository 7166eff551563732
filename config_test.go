package splitlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults without a file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().TimeFormat, cfg.TimeFormat)
		assert.Equal(t, int64(DefaultFileSize), cfg.FileSize)
		assert.Equal(t, DefaultIgnorePatterns, cfg.IgnorePatterns)
		assert.True(t, cfg.SeparateSQL)
		assert.True(t, cfg.IgnoreNoise)
		assert.Equal(t, "info", cfg.Gorm.Level)
	})

	t.Run("Reads YAML and keeps unset defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		yml := `
file_size: 1024
path: /var/log/app
separate_sql: false
apart_level: [error, critical]
archive:
  compression: gzip
  max_age: 7
gorm:
  level: warn
  log_query_result: true
`
		require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, int64(1024), cfg.FileSize)
		assert.Equal(t, "/var/log/app", cfg.Path)
		assert.False(t, cfg.SeparateSQL)
		assert.Equal(t, []string{"error", "critical"}, cfg.ApartLevel)
		assert.Equal(t, "gzip", cfg.Archive.Compression)
		assert.Equal(t, 7, cfg.Archive.MaxAge)
		assert.Equal(t, "warn", cfg.Gorm.Level)
		assert.True(t, cfg.Gorm.LogQueryResult)
		assert.Equal(t, DefaultSQLFileName, cfg.SQLFileName)
	})

	t.Run("Environment overrides", func(t *testing.T) {
		t.Setenv("SPLITLOG_FILE_SIZE", "4096")
		t.Setenv("SPLITLOG_CLI", "true")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, int64(4096), cfg.FileSize)
		assert.True(t, cfg.CLI)
	})

	t.Run("Environment overrides keys without a file value", func(t *testing.T) {
		t.Setenv("SPLITLOG_ARCHIVE_COMPRESSION", "gzip")
		t.Setenv("SPLITLOG_ARCHIVE_MAX_AGE", "14")
		t.Setenv("SPLITLOG_REDACT_KEYS", "token,api_key")
		t.Setenv("SPLITLOG_SKIP_PATHS", "/healthz")

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "gzip", cfg.Archive.Compression)
		assert.Equal(t, 14, cfg.Archive.MaxAge)
		assert.Equal(t, []string{"token", "api_key"}, cfg.RedactKeys)
		assert.Equal(t, []string{"/healthz"}, cfg.SkipPaths)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
		assert.Error(t, err)
	})
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Path: "logs"}.normalize()
	assert.Equal(t, "logs"+string(os.PathSeparator), cfg.Path)
	assert.Equal(t, DefaultFileName, cfg.FileName)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultRequestEnv, cfg.RequestIDEnv)
	assert.Equal(t, int64(DefaultFileSize), cfg.FileSize)

	cfg = Config{FileSize: -1}.normalize()
	assert.Equal(t, int64(-1), cfg.FileSize, "negative size disables rotation")
}
