package telemetry

import (
	"bytes"
	"context"
	"testing"

	"ballot-app-go/internal/config"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracingConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupRejectsUnknownExporter(t *testing.T) {
	if _, err := Setup(context.Background(), config.TracingConfig{Enabled: true, Exporter: "carrier-pigeon"}, "test"); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

func TestNewExporterStdout(t *testing.T) {
	var buf bytes.Buffer
	exporter, err := newExporter(context.Background(), ExporterStdout, &buf)
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}
	if err := exporter.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
