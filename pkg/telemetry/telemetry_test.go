package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Disable: true})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}

func TestInitWritesSpans(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{ServiceName: "retail-test", Output: &buf})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}

	_, span := Tracer().Start(context.Background(), "turn")
	End(span, errors.New("boom"))

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"Name": "turn"`)) {
		t.Fatalf("expected span in output, got %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Fatal("expected recorded error in output")
	}
}

func TestEndNilSpan(t *testing.T) {
	End(nil, errors.New("ignored"))
}

func TestSampler(t *testing.T) {
	if got := sampler(0).Description(); got != "AlwaysOnSampler" {
		t.Errorf("sampler(0) = %s", got)
	}
	if got := sampler(1.5).Description(); got != "AlwaysOnSampler" {
		t.Errorf("sampler(1.5) = %s", got)
	}
	if got := sampler(0.25).Description(); !strings.Contains(got, "TraceIDRatioBased{0.25}") {
		t.Errorf("sampler(0.25) = %s", got)
	}
}

func TestInitRecordsRetailAttributes(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{Output: &buf, Environment: "test"})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "router.decide")
	span.SetAttributes(LabelKey.String("retrieve_data"), GuardrailKey.String("retrieval_failure"))
	End(span, nil)
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	for _, want := range []string{"retail.label", "retrieve_data", "retail.guardrail", "retail-analytics"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output", want)
		}
	}
}
