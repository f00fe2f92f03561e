package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(DefaultConfig())
	require.NoError(t, err)
	require.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "noop")
	require.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "out.jsonl")
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.FilePath = path

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	require.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "highlight.pass")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "highlight.pass")
}

func TestNewProvider_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true

	cfg.Exporter = "carrier-pigeon"
	_, err := NewProvider(cfg)
	require.Error(t, err)

	cfg.Exporter = "file"
	cfg.FilePath = ""
	_, err = NewProvider(cfg)
	require.Error(t, err)
}

func TestNewProvider_None(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter = "none"

	p, err := NewProvider(cfg)
	require.NoError(t, err)
	_, span := p.Tracer().Start(context.Background(), "x")
	require.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}
