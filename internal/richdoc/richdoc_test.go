package richdoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chenen3/glyphpad/internal/markup"
)

func TestSetMarkup(t *testing.T) {
	d := New()
	require.NoError(t, d.SetMarkup(
		`<p style="white-space: pre-wrap;"><font color="cyan">def</font> f<i style="background-color:black">(</i>):<br/>`+
			`<a href="0" style="color:cyan">▦</a><a href="/c/a.png"><img src="/c/a.png"/></a></p>`))

	require.Equal(t, "def f():\n▦\uFFFC", d.PlainText())
	cells := d.Cells()
	assert.Equal(t, Cell{R: 'd', Fg: "cyan"}, cells[0])
	assert.Equal(t, Cell{R: ' '}, cells[3])
	assert.Equal(t, Cell{R: '(', Bg: "black"}, cells[5])
	assert.Equal(t, Cell{R: '▦', Fg: "cyan", Href: "0"}, cells[9])
	assert.Equal(t, Cell{R: '\uFFFC', Href: "/c/a.png", Src: "/c/a.png"}, cells[10])
	assert.True(t, cells[10].IsImage())
}

func TestSetMarkup_Paragraphs(t *testing.T) {
	d := New()
	require.NoError(t, d.SetMarkup("<html><head><title>t</title></head><body><p>a</p><p>b</p></body></html>"))
	require.Equal(t, "a\nb", d.PlainText())
}

func TestMarkup_RoundTrip(t *testing.T) {
	d := New()
	require.NoError(t, d.SetMarkup(`<p><font color="red">if</font> x &lt; 1<br/><a href="link:abc" style="color:orange">①</a><img src="i.png"/></p>`))
	m := d.Markup()

	_, err := markup.Parse(m)
	require.NoError(t, err, "serialized markup is well formed")

	again := New()
	require.NoError(t, again.SetMarkup(m))
	require.Equal(t, d.Cells(), again.Cells())
	require.Equal(t, m, again.Markup())
}

func TestMarkup_Images(t *testing.T) {
	d := FromText("ab")
	d.SetCaret(1)
	d.InsertImage("/pics/cat.png")

	snap, err := markup.Parse(d.Markup())
	require.NoError(t, err)
	require.Equal(t, []string{"/pics/cat.png"}, snap.ImageSources())
	require.Equal(t, "a\uFFFCb", d.PlainText())
}

func TestEditing(t *testing.T) {
	d := FromText("hello")
	require.Equal(t, 0, d.Caret())

	d.SetCaret(5)
	d.Insert(" world\r\n")
	require.Equal(t, "hello world\n", d.PlainText())
	require.Equal(t, 12, d.Caret())

	d.Delete(5, 11)
	require.Equal(t, "hello\n", d.PlainText())
	require.Equal(t, 5, d.Caret())

	d.SetCaret(100)
	require.Equal(t, 6, d.Caret())
	d.SetCaret(-3)
	require.Equal(t, 0, d.Caret())
}

func TestApply_KeepsCaret(t *testing.T) {
	d := FromText("def f():\n    return 1\n")
	d.SetCaret(13)
	require.NoError(t, d.Apply(`<p><font color="cyan">def</font> f():<br/>    <font color="red">return</font> 1<br/></p>`))
	require.Equal(t, 13, d.Caret())

	require.NoError(t, d.Apply(`<p>x</p>`))
	require.Equal(t, 1, d.Caret())
}

func TestPositions(t *testing.T) {
	d := FromText("ab\ncde\n\nf")
	tests := []struct {
		off, line, col int
	}{
		{0, 0, 0}, {2, 0, 2}, {3, 1, 0}, {6, 1, 3}, {7, 2, 0}, {8, 3, 0}, {9, 3, 1},
	}
	for _, tt := range tests {
		line, col := d.Position(tt.off)
		assert.Equal(t, tt.line, line, "line of %d", tt.off)
		assert.Equal(t, tt.col, col, "col of %d", tt.off)
		assert.Equal(t, tt.off, d.Offset(tt.line, tt.col))
	}
	assert.Equal(t, 2, d.Offset(0, 10), "clamped to end of line")
	assert.Equal(t, 9, d.Offset(10, 0), "past the last line")
	assert.Len(t, d.Lines(), 4)
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()

	d := New()
	require.NoError(t, d.SetMarkup(`<p><font color="cyan">def</font> x</p>`))

	htmlPath := filepath.Join(dir, "doc.html")
	require.NoError(t, d.Save(htmlPath))
	loaded, err := Load(htmlPath)
	require.NoError(t, err)
	require.Equal(t, d.Cells(), loaded.Cells())

	txtPath := filepath.Join(dir, "doc.txt")
	require.NoError(t, d.Save(txtPath))
	data, err := os.ReadFile(txtPath)
	require.NoError(t, err)
	require.Equal(t, "def x", string(data))

	loaded, err = Load(txtPath)
	require.NoError(t, err)
	require.Equal(t, "def x", loaded.PlainText())
	require.Empty(t, loaded.Cells()[0].Fg)

	sniffed := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(sniffed, []byte("<p>a<br>b</p>"), 0o644))
	loaded, err = Load(sniffed)
	require.NoError(t, err)
	require.Equal(t, "a\nb", loaded.PlainText())

	_, err = Load(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestExtensions(t *testing.T) {
	assert.True(t, IsHTML("a.HTM"))
	assert.False(t, IsHTML("a.txt"))
	assert.True(t, IsImage("/x/y.JPG"))
	assert.False(t, IsImage("/x/scene.blend"))
}
