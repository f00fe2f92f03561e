package scene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chenen3/glyphpad/internal/log"
)

// Runner produces the two artifacts for a source.
type Runner interface {
	Summarize(ctx context.Context, src string) (Summary, error)
	Preview(ctx context.Context, src string) (string, error)
}

// ToolError is a failed tool invocation: a non-zero exit, a missing
// artifact or an artifact that could not be decoded.
type ToolError struct {
	Op     string // "summary" or "preview"
	Source string
	Output string // combined stdout and stderr of the tool
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("scene %s of %s: %v", e.Op, e.Source, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Tool runs an external command. Arguments may contain {src}, replaced by
// the scene path, and {out}, replaced by the scratch file the command must
// write its artifact to.
type Tool struct {
	Command     string
	SummaryArgs []string
	PreviewArgs []string
	// ScratchDir holds artifacts. Previews stay there for the session.
	ScratchDir string
}

var tracer = otel.Tracer("github.com/chenen3/glyphpad/internal/scene")

// Summarize runs the summary invocation and decodes its artifact.
func (t *Tool) Summarize(ctx context.Context, src string) (Summary, error) {
	out, err := t.run(ctx, "summary", t.SummaryArgs, src, "*.summary.yaml")
	if err != nil {
		return Summary{}, err
	}
	defer os.Remove(out)

	data, err := os.ReadFile(out)
	if err != nil {
		return Summary{}, &ToolError{Op: "summary", Source: src, Err: err}
	}
	s, err := ParseSummary(data)
	if err != nil {
		return Summary{}, &ToolError{Op: "summary", Source: src, Err: err}
	}
	return s, nil
}

// Preview runs the preview invocation and checks the artifact is a PNG.
func (t *Tool) Preview(ctx context.Context, src string) (string, error) {
	out, err := t.run(ctx, "preview", t.PreviewArgs, src, "*.preview.png")
	if err != nil {
		return "", err
	}
	f, err := os.Open(out)
	if err != nil {
		return "", &ToolError{Op: "preview", Source: src, Err: err}
	}
	defer f.Close()
	if _, err := png.DecodeConfig(f); err != nil {
		return "", &ToolError{Op: "preview", Source: src, Err: fmt.Errorf("preview is not a png: %w", err)}
	}
	return out, nil
}

func (t *Tool) run(ctx context.Context, op string, args []string, src, pattern string) (string, error) {
	ctx, span := tracer.Start(ctx, "scene."+op)
	defer span.End()
	span.SetAttributes(attribute.String("scene.source", src))

	if t.Command == "" {
		err := &ToolError{Op: op, Source: src, Err: errors.New("no scene tool configured")}
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if err := os.MkdirAll(t.ScratchDir, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	f, err := os.CreateTemp(t.ScratchDir, filepath.Base(src)+pattern)
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	out := f.Name()
	f.Close()

	argv := make([]string, len(args))
	for i, a := range args {
		a = strings.ReplaceAll(a, "{src}", src)
		argv[i] = strings.ReplaceAll(a, "{out}", out)
	}

	log.Debug(log.CatScene, "running tool", "op", op, "cmd", t.Command, "args", strings.Join(argv, " "))
	cmd := exec.CommandContext(ctx, t.Command, argv...) //nolint:gosec // G204: command comes from user config
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		os.Remove(out)
		terr := &ToolError{Op: op, Source: src, Output: output.String(), Err: err}
		log.ErrorErr(log.CatScene, "tool failed", err, "op", op, "source", src)
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		return "", terr
	}
	return out, nil
}
