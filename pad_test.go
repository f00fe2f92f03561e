package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"

	"github.com/chenen3/glyphpad/internal/richdoc"
	"github.com/chenen3/glyphpad/internal/token"
)

func newTestPad(t *testing.T, text string) *pad {
	t.Helper()
	useDefaults(t)
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(100, 20)
	screen = s
	t.Cleanup(s.Fini)

	p := newPad(context.Background(), richdoc.FromText(text), "")
	p.app.resize()
	return p
}

func typeText(p *pad, text string) {
	for _, r := range text {
		switch r {
		case '\n':
			p.app.dispatch(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
		default:
			p.app.dispatch(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
		}
	}
}

func key(p *pad, k tcell.Key) {
	p.app.dispatch(tcell.NewEventKey(k, 0, tcell.ModNone))
}

func paste(p *pad, text string) {
	p.app.dispatch(tcell.NewEventPaste(true))
	typeText(p, text)
	p.app.dispatch(tcell.NewEventPaste(false))
}

func pass(p *pad) {
	p.app.dispatch(&passEvent{})
}

func TestPad_TypeAndHighlight(t *testing.T) {
	p := newTestPad(t, "")
	typeText(p, "def f():\n  return 1")
	require.Equal(t, "def f():\n  return 1", p.doc.PlainText())
	require.True(t, p.modified)
	require.True(t, p.engine.Dirty())

	pass(p)
	require.False(t, p.engine.Dirty())
	cells := p.doc.Cells()
	require.Equal(t, "cyan", cells[0].Fg)
	require.Equal(t, "black", cells[5].Bg, "paren")
	require.Equal(t, []int{1, 2}, p.editor.gutter.numbers)
	require.Equal(t, len(cells), p.doc.Caret())

	p.app.Redraw()
	r, _, style, _ := screen.GetContent(p.editor.textX(), p.editor.y)
	require.Equal(t, 'd', r)
	fg, _, _ := style.Decompose()
	require.Equal(t, tcell.ColorAqua, fg, "cyan keyword")
}

func TestPad_EditingKeys(t *testing.T) {
	p := newTestPad(t, "")
	typeText(p, "abc\ndef")
	key(p, tcell.KeyBackspace2)
	require.Equal(t, "abc\nde", p.doc.PlainText())

	key(p, tcell.KeyUp)
	require.Equal(t, 1, p.editor.Line())
	require.Equal(t, 3, p.editor.Column())

	key(p, tcell.KeyCtrlA)
	key(p, tcell.KeyCtrlK)
	require.Equal(t, "\nde", p.doc.PlainText())

	key(p, tcell.KeyDown)
	key(p, tcell.KeyCtrlE)
	key(p, tcell.KeyCtrlU)
	require.Equal(t, "\n", p.doc.PlainText())
}

func TestPad_ToggleHighlight(t *testing.T) {
	p := newTestPad(t, "")
	key(p, tcell.KeyCtrlT)
	require.False(t, p.engine.Enabled())
	require.False(t, p.title.highlight)

	typeText(p, "def\nx")
	pass(p)
	require.Empty(t, p.doc.Cells()[0].Fg)
	require.Equal(t, []int{1, 2}, p.editor.gutter.numbers)

	key(p, tcell.KeyCtrlT)
	pass(p)
	require.Equal(t, "cyan", p.doc.Cells()[0].Fg)
}

func TestPad_DropTable(t *testing.T) {
	p := newTestPad(t, "")
	paste(p, "<table><tr><td>1</td><td>2</td></tr></table>")
	require.Equal(t, string(token.TableGlyph), p.doc.PlainText())
	require.Equal(t, 1, p.engine.Registry().TableCount())
	require.Equal(t, "table 1x2", p.panel.title)

	pass(p)
	p.app.Redraw()
	x, y := p.editor.textX(), p.editor.y
	require.True(t, p.hover(x, y))
	require.Equal(t, "{1,2}", p.status.tooltip)
	require.False(t, p.hover(x, y), "tooltip unchanged")
	require.True(t, p.hover(x+5, y))
	require.Empty(t, p.status.tooltip)

	p.panel.title = ""
	p.editor.OnClick(x, y)
	require.Equal(t, "table 1x2", p.panel.title)
}

func TestPad_DropMalformedTable(t *testing.T) {
	p := newTestPad(t, "")
	paste(p, "<table><tr><td>1</td></tr><tr><td>2</td><td>3</td></tr></table>")
	require.Empty(t, p.doc.PlainText())
	require.NotEmpty(t, p.status.alert)

	key(p, tcell.KeyLeft)
	require.Empty(t, p.status.alert, "cleared by the next key")
}

func TestPad_DropImageAndText(t *testing.T) {
	p := newTestPad(t, "")
	img := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(img, []byte("not really a png"), 0o644))

	paste(p, img)
	require.Equal(t, string(token.ImageGlyph), p.doc.PlainText())
	require.Equal(t, img, p.doc.Cells()[0].Src)

	paste(p, "if x:\n\tpass")
	require.Equal(t, string(token.ImageGlyph)+"if x:\n\tpass", p.doc.PlainText())
}

func TestPad_DropSceneWithoutTool(t *testing.T) {
	p := newTestPad(t, "")
	scn := filepath.Join(t.TempDir(), "robot.blend")
	require.NoError(t, os.WriteFile(scn, nil, 0o644))

	paste(p, scn)
	require.Equal(t, 1, p.engine.Registry().LinkCount())
	l, err := p.engine.Registry().Link(0)
	require.NoError(t, err)
	require.Error(t, l.Err)
	require.Equal(t, string(l.Glyph), p.doc.PlainText())
	require.True(t, strings.HasPrefix(p.panel.title, "scene "))
}

func TestPad_SaveAs(t *testing.T) {
	p := newTestPad(t, "")
	typeText(p, "hello")
	path := filepath.Join(t.TempDir(), "out.html")

	key(p, tcell.KeyCtrlS)
	require.IsType(t, &saveBar{}, p.prompt)
	typeText(p, path)
	key(p, tcell.KeyEnter)

	require.Nil(t, p.prompt)
	require.Equal(t, path, p.filename)
	require.False(t, p.modified)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}

func TestPad_SaveFailureAlerts(t *testing.T) {
	p := newTestPad(t, "")
	p.filename = filepath.Join(t.TempDir(), "missing", "out.txt")
	typeText(p, "x")

	key(p, tcell.KeyCtrlS)
	require.True(t, p.modified)
	require.Contains(t, p.status.alert, "saving")
}

func TestPad_Quit(t *testing.T) {
	p := newTestPad(t, "")
	key(p, tcell.KeyCtrlQ)
	requireClosed(t, p)

	p = newTestPad(t, "")
	typeText(p, "x")
	key(p, tcell.KeyCtrlQ)
	require.IsType(t, &saveBar{}, p.prompt)
	require.True(t, p.prompt.(*saveBar).quit)

	key(p, tcell.KeyESC)
	require.Nil(t, p.prompt)

	key(p, tcell.KeyCtrlQ)
	key(p, tcell.KeyCtrlQ)
	requireClosed(t, p)
}

func requireClosed(t *testing.T, p *pad) {
	t.Helper()
	select {
	case <-p.app.Done():
	default:
		t.Fatal("app still running")
	}
}

func TestPad_FindAndGoto(t *testing.T) {
	p := newTestPad(t, "one\ntwo one\nthree")
	p.app.Redraw()

	key(p, tcell.KeyCtrlF)
	require.IsType(t, &findBar{}, p.prompt)
	typeText(p, "one")
	key(p, tcell.KeyEnter)
	require.Equal(t, 3, p.doc.Caret())
	key(p, tcell.KeyEnter)
	require.Equal(t, 11, p.doc.Caret())
	key(p, tcell.KeyEnter)
	require.Equal(t, 3, p.doc.Caret(), "wraps to the top")
	p.app.Redraw()

	key(p, tcell.KeyESC)
	require.Nil(t, p.prompt)

	key(p, tcell.KeyCtrlG)
	typeText(p, "3x")
	key(p, tcell.KeyEnter)
	require.Nil(t, p.prompt)
	require.Equal(t, 3, p.editor.Line())
	require.Equal(t, 1, p.editor.Column())

	key(p, tcell.KeyCtrlG)
	typeText(p, "9")
	key(p, tcell.KeyEnter)
	require.Contains(t, p.status.alert, "out of range")
}

func TestFindAll(t *testing.T) {
	require.Equal(t, []int{0, 1, 2}, findAll([]rune("aaa"), []rune("a")))
	require.Equal(t, []int{0, 1}, findAll([]rune("aaa"), []rune("aa")))
	require.Nil(t, findAll([]rune("abc"), nil))
	require.Nil(t, findAll([]rune("abc"), []rune("x")))
}
