package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_FormatsFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	Info(CatRender, "pass done", "lines", 3, "orphan")

	out := buf.String()
	require.Contains(t, out, "[INFO] [render] pass done")
	require.Contains(t, out, "lines=3")
	require.Contains(t, out, "orphan=<missing>")
}

func TestLog_MinLevelAndDisable(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	SetMinLevel(LevelWarn)
	Debug(CatCache, "hidden")
	Warn(CatCache, "shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	SetEnabled(false)
	Error(CatCache, "muted")
	require.Empty(t, buf.String())
}

func TestLog_ErrorErrAndBlock(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(nil) })

	ErrorErr(CatScene, "tool failed", errors.New("exit 2"))
	Block(LevelError, CatRender, "dump", "   1  <p>\n   2  </q>")

	out := buf.String()
	require.Contains(t, out, "error=exit 2")
	require.Contains(t, out, "   2  </q>\n")
}

func TestLog_NoLoggerIsSilent(t *testing.T) {
	SetOutput(nil)
	// must not panic
	Info(CatUI, "nobody listens")
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glyphpad.log")
	cleanup, err := Init(path)
	require.NoError(t, err)
	Info(CatConfig, "loaded")
	cleanup()
	SetOutput(nil)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[config] loaded")
}
