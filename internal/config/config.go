// Package config loads server configuration from flags and environment.
package config

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/pflag"

	"backlogmcp/server/internal/observability"
)

// Transport names.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the resolved server configuration.
type Config struct {
	BaseURL string
	APIKey  string

	Transport     string
	ListenAddress string
	HTTPTimeout   time.Duration
	RateLimit     int

	AuthSecret string
	AuthIssuer string

	LogLevel string
	Loki     observability.LokiConfig
}

// Load parses args (without the program name) and fills unset flags from
// getenv. It fails when the Backlog base URL or API key is missing.
func Load(args []string, getenv func(string) string) (Config, error) {
	var cfg Config

	fs := pflag.NewFlagSet("backlog-mcp", pflag.ContinueOnError)
	fs.StringVar(&cfg.BaseURL, "base-url", getenv("BACKLOG_BASE_URL"), "Backlog API base URL, e.g. https://example.backlog.com/api/v2/ (env BACKLOG_BASE_URL)")
	fs.StringVar(&cfg.Transport, "transport", envOr(getenv, "MCP_TRANSPORT", TransportStdio), "inbound transport: stdio or http (env MCP_TRANSPORT)")
	fs.StringVar(&cfg.ListenAddress, "listen-address", envOr(getenv, "MCP_LISTEN_ADDRESS", ":8089"), "HTTP listen address (env MCP_LISTEN_ADDRESS)")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr(getenv, "LOG_LEVEL", "info"), "log level: trace, debug, info, warn, error (env LOG_LEVEL)")
	fs.StringVar(&cfg.AuthIssuer, "auth-issuer", getenv("MCP_AUTH_ISSUER"), "required bearer token issuer, empty accepts any (env MCP_AUTH_ISSUER)")

	timeout, err := durationEnv(getenv, "BACKLOG_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", timeout, "outbound Backlog request timeout, 0 disables (env BACKLOG_HTTP_TIMEOUT)")

	limit, err := intEnv(getenv, "MCP_RATE_LIMIT", 10)
	if err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.RateLimit, "rate-limit", limit, "inbound HTTP requests per second per caller, 0 disables (env MCP_RATE_LIMIT)")

	if err := fs.Parse(args); err != nil {
		return Config{}, errors.Wrap(err, "parse flags")
	}

	cfg.APIKey = strings.TrimSpace(getenv("BACKLOG_API_KEY"))
	cfg.AuthSecret = getenv("MCP_AUTH_SECRET")
	cfg.Loki = observability.LokiConfig{
		URL:      getenv("GRAFANA_LOKI_URL"),
		User:     getenv("GRAFANA_LOKI_USER"),
		APIKey:   getenv("GRAFANA_LOKI_API_KEY"),
		Instance: getenv("INSTANCE_ID"),
	}

	if cfg.BaseURL == "" {
		if domain := strings.TrimSpace(getenv("BACKLOG_DOMAIN")); domain != "" {
			cfg.BaseURL = "https://" + domain + "/api/v2/"
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("backlog base URL is required (--base-url, BACKLOG_BASE_URL or BACKLOG_DOMAIN)")
	}
	normalized, err := NormalizeBaseURL(c.BaseURL)
	if err != nil {
		return err
	}
	c.BaseURL = normalized

	if c.APIKey == "" {
		return errors.New("BACKLOG_API_KEY is required")
	}
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return errors.Errorf("unknown transport %q (want stdio or http)", c.Transport)
	}
	if c.HTTPTimeout < 0 {
		return errors.New("http-timeout must not be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("rate-limit must not be negative")
	}
	return nil
}

// NormalizeBaseURL checks that raw is an absolute http(s) URL and returns it
// with a trailing slash.
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", errors.Wrap(err, "parse base URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.Errorf("base URL %q must be an absolute http(s) URL", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	s := u.String()
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s, nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return d, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	return n, nil
}
