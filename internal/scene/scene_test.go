package scene

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const summaryYAML = `Camera:
  location: [0, -5, 2]
Cube:
  location: [0, 0, 0]
  scale: [1, 1, 2]
  materials: [Steel, Rust]
Bolt:
  parent: Cube
  materials: [Steel]
`

func TestParseSummary(t *testing.T) {
	s, err := ParseSummary([]byte(summaryYAML))
	require.NoError(t, err)
	require.Equal(t, []string{"Bolt", "Camera", "Cube"}, s.Names())
	require.Equal(t, []string{"Camera", "Cube"}, s.Roots())
	require.Equal(t, []string{"Bolt"}, s.Children("Cube"))
	require.Equal(t, []string{"Steel", "Rust"}, s.Objects["Cube"].Materials)
	require.Equal(t, []OutlineEntry{
		{Name: "Camera", Depth: 0},
		{Name: "Cube", Depth: 0},
		{Name: "Bolt", Depth: 1},
	}, s.Outline())
}

func TestParseSummary_AcceptsJSON(t *testing.T) {
	s, err := ParseSummary([]byte(`{"Lamp": {"location": [1, 2, 3], "materials": []}}`))
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, s.Objects["Lamp"].Location)
}

func TestParseSummary_Malformed(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"not a mapping":  "- a\n- b\n",
		"bad vector":     "Cube:\n  location: [1, 2]\n",
		"unknown parent": "Bolt:\n  parent: Cube\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSummary([]byte(data))
			require.Error(t, err)
		})
	}
}

// writeFixtureTool writes a shell script that behaves like the scene tool:
// "$1" is the operation, "$2" the source and "$3" the output file.
func writeFixtureTool(t *testing.T, dir, summary string, fail bool) *Tool {
	t.Helper()
	pngPath := filepath.Join(dir, "fixture.png")
	f, err := os.Create(pngPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, f.Close())

	summaryPath := filepath.Join(dir, "fixture.yaml")
	require.NoError(t, os.WriteFile(summaryPath, []byte(summary), 0o644))

	countPath := filepath.Join(dir, "calls")
	script := "#!/bin/sh\necho x >> " + countPath + "\n"
	if fail {
		script += "echo broken >&2\nexit 3\n"
	}
	script += `case "$1" in
summary) cp ` + summaryPath + ` "$3" ;;
preview) cp ` + pngPath + ` "$3" ;;
esac
`
	toolPath := filepath.Join(dir, "tool.sh")
	require.NoError(t, os.WriteFile(toolPath, []byte(script), 0o755))

	return &Tool{
		Command:     toolPath,
		SummaryArgs: []string{"summary", "{src}", "{out}"},
		PreviewArgs: []string{"preview", "{src}", "{out}"},
		ScratchDir:  filepath.Join(dir, "scratch"),
	}
}

func calls(t *testing.T, dir string) int {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "calls"))
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	require.NoError(t, err)
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}

func TestTool_SummarizeAndPreview(t *testing.T) {
	dir := t.TempDir()
	tool := writeFixtureTool(t, dir, summaryYAML, false)
	ctx := context.Background()

	s, err := tool.Summarize(ctx, "/scenes/robot.blend")
	require.NoError(t, err)
	require.Len(t, s.Objects, 3)

	preview, err := tool.Preview(ctx, "/scenes/robot.blend")
	require.NoError(t, err)
	require.FileExists(t, preview)
	require.Equal(t, tool.ScratchDir, filepath.Dir(preview))
}

func TestTool_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	tool := writeFixtureTool(t, dir, summaryYAML, true)

	_, err := tool.Summarize(context.Background(), "/scenes/robot.blend")
	var terr *ToolError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, "summary", terr.Op)
	require.Contains(t, terr.Output, "broken")
}

func TestTool_MalformedArtifact(t *testing.T) {
	dir := t.TempDir()
	tool := writeFixtureTool(t, dir, "::: not yaml", false)

	_, err := tool.Summarize(context.Background(), "/scenes/robot.blend")
	var terr *ToolError
	require.True(t, errors.As(err, &terr))
}

func TestTool_NotConfigured(t *testing.T) {
	tool := &Tool{ScratchDir: t.TempDir()}
	_, err := tool.Preview(context.Background(), "x.blend")
	require.Error(t, err)
}

func TestLoader_RunsToolOncePerSource(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(writeFixtureTool(t, dir, summaryYAML, false))
	ctx := context.Background()

	first, err := loader.Load(ctx, "/scenes/a.blend")
	require.NoError(t, err)
	second, err := loader.Load(ctx, "/scenes/a.blend")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 2, calls(t, dir), "one summary and one preview run")

	_, err = loader.Load(ctx, "/scenes/b.blend")
	require.NoError(t, err)
	require.Equal(t, 4, calls(t, dir))

	cached, ok := loader.Cached("/scenes/a.blend")
	require.True(t, ok)
	require.Same(t, first, cached)
}

type flakyRunner struct {
	failFor string
}

func (r flakyRunner) Summarize(ctx context.Context, src string) (Summary, error) {
	if src == r.failFor {
		return Summary{}, &ToolError{Op: "summary", Source: src, Err: errors.New("exit status 1")}
	}
	return Summary{Objects: map[string]Object{"Cube": {}}}, nil
}

func (r flakyRunner) Preview(ctx context.Context, src string) (string, error) {
	return src + ".png", nil
}

func TestLoader_FailureDoesNotAffectOtherSources(t *testing.T) {
	loader := NewLoader(flakyRunner{failFor: "bad.blend"})
	ctx := context.Background()

	good, err := loader.Load(ctx, "good.blend")
	require.NoError(t, err)

	_, err = loader.Load(ctx, "bad.blend")
	require.Error(t, err)
	_, ok := loader.Cached("bad.blend")
	require.False(t, ok)

	again, ok := loader.Cached("good.blend")
	require.True(t, ok)
	require.Same(t, good, again)
}

func TestWorker_SubmitDeliversResult(t *testing.T) {
	w := NewWorker(NewLoader(flakyRunner{failFor: "bad.blend"}))
	defer w.Stop()
	ctx := context.Background()

	select {
	case res := <-w.Submit(ctx, "good.blend"):
		require.NoError(t, res.Err)
		require.Equal(t, "good.blend.png", res.Artifact.Preview)
	case <-time.After(time.Second):
		t.Fatal("no result")
	}

	res := <-w.Submit(ctx, "bad.blend")
	require.Error(t, res.Err)
	require.Nil(t, res.Artifact)
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	w := NewWorker(NewLoader(flakyRunner{}))
	w.Stop()
	w.Stop()

	res := <-w.Submit(context.Background(), "x.blend")
	require.Error(t, res.Err)
}
