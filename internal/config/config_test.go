package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, env(map[string]string{
		"BACKLOG_BASE_URL": "https://example.backlog.com/api/v2",
		"BACKLOG_API_KEY":  "key",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://example.backlog.com/api/v2/", cfg.BaseURL)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.Equal(t, ":8089", cfg.ListenAddress)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10, cfg.RateLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Loki.Enabled())
}

func TestLoadDomain(t *testing.T) {
	cfg, err := Load(nil, env(map[string]string{
		"BACKLOG_DOMAIN":  "example.backlog.jp",
		"BACKLOG_API_KEY": "key",
	}))
	require.NoError(t, err)
	assert.Equal(t, "https://example.backlog.jp/api/v2/", cfg.BaseURL)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	cfg, err := Load([]string{
		"--base-url", "http://localhost:9000/api/v2/",
		"--transport", "http",
		"--listen-address", "127.0.0.1:9999",
		"--http-timeout", "5s",
		"--rate-limit", "0",
		"--log-level", "debug",
	}, env(map[string]string{
		"BACKLOG_BASE_URL": "https://ignored.backlog.com/api/v2/",
		"BACKLOG_API_KEY":  "key",
		"MCP_TRANSPORT":    "stdio",
		"MCP_AUTH_SECRET":  "s3cret",
	}))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api/v2/", cfg.BaseURL)
	assert.Equal(t, TransportHTTP, cfg.Transport)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddress)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0, cfg.RateLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "s3cret", cfg.AuthSecret)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{"missing base url", nil, map[string]string{"BACKLOG_API_KEY": "key"}},
		{"missing api key", nil, map[string]string{"BACKLOG_BASE_URL": "https://x.backlog.com/api/v2/"}},
		{"relative base url", nil, map[string]string{"BACKLOG_BASE_URL": "/api/v2/", "BACKLOG_API_KEY": "key"}},
		{"ftp base url", nil, map[string]string{"BACKLOG_BASE_URL": "ftp://x.backlog.com/", "BACKLOG_API_KEY": "key"}},
		{"unknown transport", []string{"--transport", "grpc"}, map[string]string{"BACKLOG_DOMAIN": "x.backlog.com", "BACKLOG_API_KEY": "key"}},
		{"bad timeout env", nil, map[string]string{"BACKLOG_DOMAIN": "x.backlog.com", "BACKLOG_API_KEY": "key", "BACKLOG_HTTP_TIMEOUT": "soon"}},
		{"negative rate limit", []string{"--rate-limit", "-1"}, map[string]string{"BACKLOG_DOMAIN": "x.backlog.com", "BACKLOG_API_KEY": "key"}},
		{"unknown flag", []string{"--nope"}, map[string]string{"BACKLOG_DOMAIN": "x.backlog.com", "BACKLOG_API_KEY": "key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, env(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := NormalizeBaseURL(" https://x.backlog.com/api/v2?x=1 ")
	require.NoError(t, err)
	assert.Equal(t, "https://x.backlog.com/api/v2/", got)
}
