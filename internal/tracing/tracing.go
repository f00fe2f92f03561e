// Package tracing sets up OpenTelemetry for highlight passes and scene tool
// runs. Packages create spans through otel.Tracer; this package only decides
// where they go.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "glyphpad"

// Exporters accepted in Config.Exporter.
var Exporters = []string{"file", "stdout", "otlp", "none"}

// Config configures tracing.
type Config struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	Exporter     string  `mapstructure:"exporter" yaml:"exporter"`
	FilePath     string  `mapstructure:"file_path" yaml:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// DefaultConfig returns tracing switched off, writing to a file when
// switched on.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		Exporter:     "file",
		FilePath:     filepath.Join(os.TempDir(), "glyphpad-traces.jsonl"),
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
	}
}

// Provider owns the tracer provider and whatever the exporter opened.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	file     *os.File
}

// NewProvider installs a global tracer provider for cfg. When tracing is
// disabled the global provider is left alone and spans are no-ops.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(serviceName)}, nil
	}

	p := &Provider{}
	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "file":
		if cfg.FilePath == "" {
			return nil, errors.New("file_path required for file exporter")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
			return nil, fmt.Errorf("create trace directory: %w", err)
		}
		p.file, err = os.OpenFile(filepath.Clean(cfg.FilePath), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(p.file))
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exporter, err = otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	case "none", "":
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}
	if err != nil {
		p.closeFile()
		return nil, fmt.Errorf("create %s exporter: %w", cfg.Exporter, err)
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	p.provider = sdktrace.NewTracerProvider(opts...)
	p.tracer = p.provider.Tracer(serviceName)
	otel.SetTracerProvider(p.provider)
	return p, nil
}

// Tracer returns the provider's tracer, a no-op one when disabled.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool { return p.provider != nil }

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error
	if p.provider != nil {
		err = p.provider.Shutdown(ctx)
	}
	p.closeFile()
	return err
}

func (p *Provider) closeFile() {
	if p.file != nil {
		_ = p.file.Close()
		p.file = nil
	}
}
