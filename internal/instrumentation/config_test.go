package instrumentation

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("METRICS_EXPORTER", "")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "not-a-bool")

	cfg := DefaultConfig()
	if cfg.ServiceName != ServiceName {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, ServiceName)
	}
	if cfg.MetricsExporter != ExporterPrometheus {
		t.Errorf("MetricsExporter = %q, want %q", cfg.MetricsExporter, ExporterPrometheus)
	}
	if cfg.TracingExporter != ExporterNone {
		t.Errorf("TracingExporter = %q, want %q", cfg.TracingExporter, ExporterNone)
	}
	if cfg.AuditLogging.IncludePII {
		t.Error("unparsable bool should fall back to the default (false)")
	}
}

func TestDefaultConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")

	cfg := DefaultConfig()
	if cfg.TracingExporter != ExporterOTLP || cfg.OTLPEndpoint != "collector:4318" {
		t.Errorf("unexpected tracing config: %+v", cfg)
	}
	if cfg.TraceSamplingRate != 0.5 {
		t.Errorf("TraceSamplingRate = %v, want 0.5", cfg.TraceSamplingRate)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone}, ""},
		{"empty exporters", Config{}, ""},
		{"sampling too high", Config{TraceSamplingRate: 1.5}, "sampling rate"},
		{"sampling negative", Config{TraceSamplingRate: -0.1}, "sampling rate"},
		{"bad metrics exporter", Config{MetricsExporter: "statsd"}, "invalid metrics exporter"},
		{"bad tracing exporter", Config{TracingExporter: "jaeger"}, "invalid tracing exporter"},
		{"otlp without endpoint", Config{TracingExporter: ExporterOTLP}, "OTLP endpoint"},
		{"otlp with endpoint", Config{MetricsExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
