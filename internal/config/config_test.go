package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:8765", cfg.Addr)
	require.Equal(t, "http://127.0.0.1:8765", cfg.APIURL)
	require.Equal(t, StoreFile, cfg.Store)
	require.Equal(t, "./backupq-data", cfg.FileDir)
	require.Equal(t, 10*time.Second, cfg.Interval)
	require.Equal(t, 5*time.Second, cfg.BaseDelay)
	require.Equal(t, 300*time.Second, cfg.MaxDelay)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, int64(25<<20), cfg.MaxPayloadBytes)
	require.Zero(t, cfg.UploadTimeout)
	require.Empty(t, cfg.ProbeURL)
	require.Equal(t, UploaderHTTP, cfg.Uploader)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_Overrides(t *testing.T) {
	setEnvs(t, map[string]string{
		"BACKUPQ_ADDR":              ":9000",
		"BACKUPQ_STORE":             "Redis",
		"BACKUPQ_REDIS_ADDR":        "redis:6379",
		"BACKUPQ_REDIS_DB":          "2",
		"BACKUPQ_NAMESPACE":         "till-7",
		"BACKUPQ_INTERVAL":          "30s",
		"BACKUPQ_BASE_DELAY":        "2s",
		"BACKUPQ_MAX_DELAY":         "1m",
		"BACKUPQ_MAX_RETRIES":       "5",
		"BACKUPQ_MAX_PAYLOAD_BYTES": "1048576",
		"BACKUPQ_UPLOAD_TIMEOUT":    "45s",
		"BACKUPQ_PROBE_URL":         "https://www.google.com/generate_204",
		"BACKUPQ_UPLOADER":          "s3",
		"BACKUPQ_S3_ENDPOINT":       "minio:9000",
		"BACKUPQ_S3_USE_SSL":        "true",
		"BACKUPQ_LOG_LEVEL":         "debug",
		"BACKUPQ_LOG_FORMAT":        "json",
	})
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, "http://:9000", cfg.APIURL)
	require.Equal(t, StoreRedis, cfg.Store)
	require.Equal(t, "redis:6379", cfg.RedisAddr)
	require.Equal(t, 2, cfg.RedisDB)
	require.Equal(t, "till-7", cfg.Namespace)
	require.Equal(t, 30*time.Second, cfg.Interval)
	require.Equal(t, 2*time.Second, cfg.BaseDelay)
	require.Equal(t, time.Minute, cfg.MaxDelay)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, int64(1<<20), cfg.MaxPayloadBytes)
	require.Equal(t, 45*time.Second, cfg.UploadTimeout)
	require.Equal(t, UploaderS3, cfg.Uploader)
	require.True(t, cfg.S3UseSSL)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]struct {
		envs map[string]string
		want string
	}{
		"store":          {map[string]string{"BACKUPQ_STORE": "sqlite"}, "BACKUPQ_STORE"},
		"postgres dsn":   {map[string]string{"BACKUPQ_STORE": "postgres"}, "BACKUPQ_PG_DSN"},
		"uploader":       {map[string]string{"BACKUPQ_UPLOADER": "ftp"}, "BACKUPQ_UPLOADER"},
		"s3 endpoint":    {map[string]string{"BACKUPQ_UPLOADER": "s3"}, "BACKUPQ_S3_ENDPOINT"},
		"interval":       {map[string]string{"BACKUPQ_INTERVAL": "soon"}, "BACKUPQ_INTERVAL"},
		"zero interval":  {map[string]string{"BACKUPQ_INTERVAL": "0s"}, "BACKUPQ_INTERVAL"},
		"retries":        {map[string]string{"BACKUPQ_MAX_RETRIES": "0"}, "BACKUPQ_MAX_RETRIES"},
		"retries nan":    {map[string]string{"BACKUPQ_MAX_RETRIES": "three"}, "BACKUPQ_MAX_RETRIES"},
		"delay order":    {map[string]string{"BACKUPQ_BASE_DELAY": "10s", "BACKUPQ_MAX_DELAY": "5s"}, "BACKUPQ_MAX_DELAY"},
		"log level":      {map[string]string{"BACKUPQ_LOG_LEVEL": "loud"}, "BACKUPQ_LOG_LEVEL"},
		"log format":     {map[string]string{"BACKUPQ_LOG_FORMAT": "xml"}, "BACKUPQ_LOG_FORMAT"},
		"ssl flag":       {map[string]string{"BACKUPQ_S3_USE_SSL": "maybe"}, "BACKUPQ_S3_USE_SSL"},
		"payload":        {map[string]string{"BACKUPQ_MAX_PAYLOAD_BYTES": "1MB"}, "BACKUPQ_MAX_PAYLOAD_BYTES"},
		"probe interval": {map[string]string{"BACKUPQ_PROBE_INTERVAL": "-1s"}, "BACKUPQ_PROBE_INTERVAL"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setEnvs(t, tc.envs)
			_, err := Load()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "warn": slog.LevelWarn,
		"warning": slog.LevelWarn, " error ": slog.LevelError,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelWarn, LogFormat: "json"}
	l := cfg.NewLogger(&buf)
	l.Info("hidden")
	l.Warn("shown", slog.String("k", "v"))
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
	require.Contains(t, buf.String(), `"k":"v"`)
}
