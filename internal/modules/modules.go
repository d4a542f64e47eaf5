package modules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/phuslu/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"backlogmcp/server/internal/middleware"
	"backlogmcp/server/internal/observability"
	"backlogmcp/server/internal/toolerr"
)

// =============================================================================
// Registry
// =============================================================================

// Registry holds the registered modules and routes tool calls to them.
// It is built once at startup and is safe for concurrent use afterwards.
type Registry struct {
	modules map[string]Module
	tools   map[string]Module // tool name -> owning module
	order   []string          // tool names in registration order

	logger   *log.Logger
	loki     *observability.LokiClient
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoki pushes every tool call to Loki.
func WithLoki(c *observability.LokiClient) Option {
	return func(r *Registry) { r.loki = c }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(r *Registry) { r.tracer = t }
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *log.Logger, opts ...Option) *Registry {
	r := &Registry{
		modules: make(map[string]Module),
		tools:   make(map[string]Module),
		logger:  logger,
		tracer:  observability.Tracer(),
	}
	for _, opt := range opts {
		opt(r)
	}

	meter := observability.Meter()
	var err error
	if r.calls, err = meter.Int64Counter("backlog_mcp.tool.calls",
		metric.WithDescription("Tool calls by tool and status")); err != nil {
		logger.Warn().Err(err).Msg("create tool call counter")
	}
	if r.duration, err = meter.Float64Histogram("backlog_mcp.tool.duration",
		metric.WithDescription("Tool call duration"), metric.WithUnit("ms")); err != nil {
		logger.Warn().Err(err).Msg("create tool duration histogram")
	}
	return r
}

// Register adds a module. Tool names must be unique across modules.
func (r *Registry) Register(m Module) error {
	if _, dup := r.modules[m.Name()]; dup {
		return errors.Errorf("module %q already registered", m.Name())
	}
	for _, t := range m.Tools() {
		if owner, dup := r.tools[t.Name]; dup {
			return errors.Errorf("tool %q of module %q already registered by %q", t.Name, m.Name(), owner.Name())
		}
	}
	r.modules[m.Name()] = m
	for _, t := range m.Tools() {
		r.tools[t.Name] = m
		r.order = append(r.order, t.Name)
	}
	return nil
}

// Modules returns registered module names, sorted.
func (r *Registry) Modules() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools lists every registered tool in registration order with its en-US
// description.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		if t, ok := findTool(r.tools[name].Tools(), name); ok {
			out = append(out, t)
		}
	}
	return EnglishTools(out)
}

// =============================================================================
// Tool Execution
// =============================================================================

// Call validates params against the tool's InputSchema, runs the tool and
// renders the result. Every failure is returned classified.
func (r *Registry) Call(ctx context.Context, name string, params map[string]any) (*ToolCallResult, *toolerr.Error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "tool "+name, trace.WithAttributes(attribute.String("tool", name)))
	defer span.End()

	result, terr := r.call(ctx, name, params)
	r.record(ctx, span, name, time.Since(start), terr)
	return result, terr
}

func (r *Registry) call(ctx context.Context, name string, params map[string]any) (*ToolCallResult, *toolerr.Error) {
	m, ok := r.tools[name]
	if !ok {
		return nil, toolerr.New(name, toolerr.InvalidArgument, "unknown tool")
	}
	tool, _ := findTool(m.Tools(), name)

	validated, err := ValidateParams(tool.InputSchema, params)
	if err != nil {
		return nil, toolerr.Classify(name, err, "")
	}

	value, err := execute(ctx, m, name, validated)
	if err != nil {
		return nil, toolerr.Classify(name, err, "")
	}

	text, err := ToJSON(value)
	if err != nil {
		return nil, toolerr.Classify(name, err, "failed to render result")
	}
	if converter, ok := m.(CompactConverter); ok {
		text = converter.ToCompact(name, text)
	}
	return &ToolCallResult{
		Content:           []ContentBlock{{Type: "text", Text: text}},
		StructuredContent: value,
	}, nil
}

// execute runs the tool, turning a panic into an internal error.
func execute(ctx context.Context, m Module, name string, params map[string]any) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = toolerr.New(name, toolerr.Internal, fmt.Sprintf("tool panicked: %v", rec))
		}
	}()
	return m.ExecuteTool(ctx, name, params)
}

func (r *Registry) record(ctx context.Context, span trace.Span, name string, elapsed time.Duration, terr *toolerr.Error) {
	status := "success"
	if terr != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(attribute.String("tool", name), attribute.String("status", status))
	if r.calls != nil {
		r.calls.Add(ctx, 1, attrs)
	}
	if r.duration != nil {
		r.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
	}

	subject := ""
	if ac := middleware.GetAuthContext(ctx); ac != nil {
		subject = ac.Subject
	}
	ev := observability.ToolCall{
		RequestID:  middleware.GetRequestID(ctx),
		Subject:    subject,
		Tool:       name,
		DurationMs: elapsed.Milliseconds(),
		Status:     status,
	}

	if terr == nil {
		span.SetStatus(codes.Ok, "")
		r.logger.Info().Str("tool", name).Int64("duration_ms", ev.DurationMs).Str("status", status).Msg("tool call")
	} else {
		ev.Category = string(terr.Category)
		ev.Error = terr.Message
		span.RecordError(terr)
		span.SetStatus(codes.Error, string(terr.Category))
		r.logger.Warn().Str("tool", name).Int64("duration_ms", ev.DurationMs).Str("status", status).
			Str("category", ev.Category).Int("code", terr.Code()).Str("error", terr.Message).Msg("tool call")
	}
	r.loki.LogToolCall(ev)
}
