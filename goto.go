package main

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"
)

// gotoBar moves the caret to a line typed by the user.
type gotoBar struct {
	baseView
	pad  *pad
	line []rune
}

func newGotoBar(p *pad) *gotoBar {
	g := &gotoBar{pad: p}
	g.height = 1
	g.fixedSize = true
	return g
}

func (g *gotoBar) Draw() {
	style := tcell.StyleDefault.Background(tcell.ColorLightGray).Foreground(tcell.ColorBlack)
	g.fill(style)

	x := g.text(g.x, g.y, "go to line: "+string(g.line), style)
	if g.focused {
		screen.ShowCursor(x, g.y)
	}
	hint := fmt.Sprintf("1-%d", len(g.pad.doc.Lines()))
	drawTextRight(x+1, g.y, g.right(), hint, style.Foreground(tcell.ColorGray))
}

func (g *gotoBar) HandleKey(k *tcell.EventKey) {
	switch k.Key() {
	case tcell.KeyRune:
		if r := k.Rune(); '0' <= r && r <= '9' {
			g.line = append(g.line, r)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(g.line) > 0 {
			g.line = g.line[:len(g.line)-1]
		}
	case tcell.KeyEnter:
		line, err := strconv.Atoi(string(g.line))
		if err != nil {
			return
		}
		g.pad.dismissPrompt()
		if err := g.pad.gotoLine(line); err != nil {
			g.pad.status.Alert(err.Error())
		}
	case tcell.KeyESC:
		g.pad.dismissPrompt()
	}
}

// gotoLine puts the caret at the start of the 1-based line and scrolls it
// to the middle of the editor.
func (p *pad) gotoLine(line int) error {
	n := len(p.doc.Lines())
	if line < 1 || line > n {
		return fmt.Errorf("line %d out of range 1-%d", line, n)
	}
	p.doc.SetCaret(p.doc.Offset(line-1, 0))
	p.editor.top = max(line-1-p.editor.height/2, 0)
	return nil
}
