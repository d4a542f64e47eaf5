package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
)

// LokiConfig holds the Grafana Loki push settings. Push is disabled unless
// URL, User and APIKey are all set.
type LokiConfig struct {
	URL      string
	User     string
	APIKey   string
	App      string
	Instance string
}

// Enabled reports whether all credentials are present.
func (c LokiConfig) Enabled() bool {
	return c.URL != "" && c.User != "" && c.APIKey != ""
}

// LokiClient pushes events to Loki in the background. A nil or disabled
// client drops everything.
type LokiClient struct {
	url        string
	username   string
	apiKey     string
	labels     map[string]string
	httpClient *http.Client
	logger     *log.Logger
	wg         sync.WaitGroup
}

// Loki Push API format
type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// NewLokiClient returns nil when cfg is not fully configured.
func NewLokiClient(cfg LokiConfig, logger *log.Logger) *LokiClient {
	if !cfg.Enabled() {
		logger.Info().Msg("loki not configured, push disabled")
		return nil
	}
	app := cfg.App
	if app == "" {
		app = "backlog-mcp"
	}
	instance := cfg.Instance
	if instance == "" {
		instance = "local"
	}
	logger.Info().Str("url", cfg.URL).Msg("loki client initialized")
	return &LokiClient{
		url:        strings.TrimSuffix(cfg.URL, "/") + "/loki/api/v1/push",
		username:   cfg.User,
		apiKey:     cfg.APIKey,
		labels:     map[string]string{"app": app, "instance": instance},
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Push sends one entry asynchronously. Failures are only logged.
func (c *LokiClient) Push(labels map[string]string, data map[string]any) {
	if c == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.push(context.Background(), labels, data); err != nil {
			c.logger.Warn().Err(err).Msg("loki push failed")
		}
	}()
}

// Close waits for in-flight pushes.
func (c *LokiClient) Close() {
	if c == nil {
		return
	}
	c.wg.Wait()
}

func (c *LokiClient) push(ctx context.Context, labels map[string]string, data map[string]any) error {
	stream := make(map[string]string, len(labels)+len(c.labels))
	for k, v := range labels {
		stream[k] = v
	}
	for k, v := range c.labels {
		stream[k] = v
	}

	line, err := json.Marshal(data)
	if err != nil {
		return err
	}
	body, err := json.Marshal(lokiPushRequest{
		Streams: []lokiStream{{
			Stream: stream,
			Values: [][]string{{strconv.FormatInt(time.Now().UnixNano(), 10), string(line)}},
		}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &lokiStatusError{status: resp.StatusCode}
	}
	return nil
}

type lokiStatusError struct{ status int }

func (e *lokiStatusError) Error() string {
	return "loki: unexpected status code " + strconv.Itoa(e.status)
}

// ToolCall is the event recorded for every tools/call.
type ToolCall struct {
	RequestID  string
	Subject    string
	Tool       string
	DurationMs int64
	Status     string
	Category   string
	Error      string
}

// LogToolCall pushes a tool call event.
func (c *LokiClient) LogToolCall(ev ToolCall) {
	level := "info"
	if ev.Status == "error" {
		level = "error"
	}
	data := map[string]any{
		"request_id":  ev.RequestID,
		"subject":     ev.Subject,
		"tool":        ev.Tool,
		"duration_ms": ev.DurationMs,
		"status":      ev.Status,
	}
	if ev.Error != "" {
		data["error"] = ev.Error
		data["category"] = ev.Category
	}
	c.Push(map[string]string{"type": "tool_call", "status": ev.Status, "level": level}, data)
}

// LogSecurityEvent pushes an authentication or abuse related event.
func (c *LokiClient) LogSecurityEvent(requestID, event string, details map[string]any) {
	data := map[string]any{
		"request_id": requestID,
		"event":      event,
	}
	for k, v := range details {
		data[k] = v
	}
	c.Push(map[string]string{"type": "security", "level": "warn"}, data)
}
