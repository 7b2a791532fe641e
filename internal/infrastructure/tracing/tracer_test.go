package tracing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewDisabledTracerIsNoop(t *testing.T) {
	tracer, err := New(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, span := tracer.Start(context.Background(), "anything")
	if span.SpanContext().IsValid() {
		t.Error("noop tracer produced a recording span")
	}
	span.End()

	if err := tracer.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestStdoutExporterEmitsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := New(context.Background(), Config{
		Enabled:      true,
		ExporterType: ExporterStdout,
		ServiceName:  "sentryview-test",
		SampleRate:   1.0,
		Output:       &buf,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := context.Background()
	_, span := tracer.StartConnectSpan(ctx, "wss://gw/feed", true)
	span.SetSessionID("session-1")
	span.End()

	_, fs := tracer.StartFlushSpan(ctx, true)
	fs.SetPayload(3, 1024)
	fs.End()

	_, rs := tracer.StartReplaySpan(ctx, "yard/motion")
	rs.SetAccepted(5)
	rs.End()

	if err := tracer.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"transport.connect", "sync.flush", "sync.replay", "yard/motion"} {
		if !strings.Contains(out, want) {
			t.Errorf("exported spans missing %q", want)
		}
	}
}

func TestConnectSpanEndWithError(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := New(context.Background(), Config{
		Enabled:      true,
		ExporterType: ExporterStdout,
		ServiceName:  "sentryview-test",
		SampleRate:   1.0,
		Output:       &buf,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, span := tracer.StartConnectSpan(context.Background(), "wss://gw/feed", false)
	span.EndWithError(errors.New("connection refused"))

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if !strings.Contains(buf.String(), "connection refused") {
		t.Error("error not recorded on span")
	}
}

func TestUnsupportedExporter(t *testing.T) {
	_, err := New(context.Background(), Config{
		Enabled:      true,
		ExporterType: ExporterType("jaeger"),
	})
	if err == nil {
		t.Error("expected error for unsupported exporter")
	}
}
