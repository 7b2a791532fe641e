// Package tracing provides OpenTelemetry-based tracing infrastructure.
// It supports multiple exporters (stdout, OTLP) and provides domain-specific
// span helpers for transport connections, catch-up replays, and state flushes.
package tracing

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the name used for the sentryview tracer.
	TracerName = "github.com/sentryview/sentryview"

	// Version is the semantic version of the tracer.
	Version = "1.0.0"
)

// ExporterType defines the type of trace exporter.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled      bool         // Whether tracing is enabled
	ExporterType ExporterType // Type of exporter to use
	OTLPEndpoint string       // OTLP collector endpoint (for OTLP exporter)
	ServiceName  string       // Service name for traces
	Environment  string       // Deployment environment (development, production)
	SampleRate   float64      // Sampling rate (0.0 to 1.0)
	Output       io.Writer    // Output for stdout exporter (defaults to os.Stdout)
}

// DefaultConfig returns sensible default tracing configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		ExporterType: ExporterNone,
		ServiceName:  "sentryview",
		Environment:  "development",
		SampleRate:   1.0,
	}
}

// Tracer wraps an OpenTelemetry tracer with domain-specific functionality.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	config   Config
}

// global is the package-level default tracer.
var (
	global     *Tracer
	globalOnce sync.Once
)

// Init initializes the global tracer with the provided configuration.
func Init(ctx context.Context, cfg Config) (*Tracer, error) {
	var err error
	globalOnce.Do(func() {
		global, err = New(ctx, cfg)
	})
	return global, err
}

// Default returns the global tracer, or a no-op tracer if not initialized.
func Default() *Tracer {
	if global == nil {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: DefaultConfig(),
		}
	}
	return global
}

// New creates a new Tracer with the provided configuration.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: cfg,
		}, nil
	}

	// Create exporter
	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	// Create resource without merging with Default() to avoid schema URL conflicts.
	// The default resource's schema URL may conflict with our semconv version.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create sampler
	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	// Create tracer provider
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	// Set global propagator
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Set global tracer provider
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(Version)),
		provider: provider,
		config:   cfg,
	}, nil
}

// createExporter creates the appropriate exporter based on configuration.
func createExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		opts := []stdouttrace.Option{
			stdouttrace.WithPrettyPrint(),
		}
		if cfg.Output != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Output))
		}
		return stdouttrace.New(opts...)

	case ExporterOTLP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithInsecure(),
		}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}
}

// Shutdown gracefully shuts down the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start starts a new span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// --- Domain-specific span helpers ---

// ConnectSpan represents a gateway connection attempt span.
type ConnectSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartConnectSpan starts a span for a gateway connection attempt.
func (t *Tracer) StartConnectSpan(ctx context.Context, gatewayURL string, resumed bool) (context.Context, *ConnectSpan) {
	ctx, span := t.tracer.Start(ctx, "transport.connect",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gateway.url", gatewayURL),
			attribute.Bool("transport.resumed", resumed),
		),
	)

	return ctx, &ConnectSpan{span: span, ctx: ctx}
}

// SetSessionID records the session ID assigned by the gateway.
func (cs *ConnectSpan) SetSessionID(id string) {
	cs.span.SetAttributes(attribute.String("gateway.session_id", id))
}

// End ends the connect span with success status.
func (cs *ConnectSpan) End() {
	cs.span.SetStatus(codes.Ok, "connected")
	cs.span.End()
}

// EndWithError ends the connect span with error status.
func (cs *ConnectSpan) EndWithError(err error) {
	cs.span.RecordError(err)
	cs.span.SetStatus(codes.Error, err.Error())
	cs.span.End()
}

// FlushSpan represents a sync state flush span.
type FlushSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartFlushSpan starts a span for a sync state flush.
func (t *Tracer) StartFlushSpan(ctx context.Context, forced bool) (context.Context, *FlushSpan) {
	ctx, span := t.tracer.Start(ctx, "sync.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Bool("flush.forced", forced),
		),
	)

	return ctx, &FlushSpan{span: span, ctx: ctx}
}

// SetPayload records the size of the encoded blob and the channel count.
func (fs *FlushSpan) SetPayload(channels, bytes int) {
	fs.span.SetAttributes(
		attribute.Int("flush.channels", channels),
		attribute.Int("flush.bytes", bytes),
	)
}

// End ends the flush span with success status.
func (fs *FlushSpan) End() {
	fs.span.SetStatus(codes.Ok, "flush completed")
	fs.span.End()
}

// EndWithError ends the flush span with error status.
func (fs *FlushSpan) EndWithError(err error) {
	fs.span.RecordError(err)
	fs.span.SetStatus(codes.Error, err.Error())
	fs.span.End()
}

// ReplaySpan represents a catch-up replay episode span for one channel.
type ReplaySpan struct {
	span trace.Span
	ctx  context.Context
}

// StartReplaySpan starts a span covering a channel's catch-up episode.
func (t *Tracer) StartReplaySpan(ctx context.Context, channelID string) (context.Context, *ReplaySpan) {
	ctx, span := t.tracer.Start(ctx, "sync.replay",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("channel.id", channelID),
		),
	)

	return ctx, &ReplaySpan{span: span, ctx: ctx}
}

// SetAccepted records how many distinct backlog events the episode accepted.
func (rs *ReplaySpan) SetAccepted(count int) {
	rs.span.SetAttributes(attribute.Int("replay.accepted", count))
}

// End ends the replay span with success status.
func (rs *ReplaySpan) End() {
	rs.span.SetStatus(codes.Ok, "replay completed")
	rs.span.End()
}
