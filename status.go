package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// statusView holds the bottom row, which is either the status bar or a
// prompt.
type statusView struct {
	View
}

func newStatusView(v View) *statusView {
	return &statusView{View: v}
}

func (s *statusView) Set(v View) {
	x, y, w, h := s.Pos()
	v.SetPos(x, y, w, h)
	s.View = v
}

type statusBar struct {
	baseView
	editor *editor
	// tooltip of the placeholder under the pointer
	tooltip string
	// alert stays until the next key press
	alert string
}

func newStatusBar(e *editor) *statusBar {
	b := &statusBar{editor: e}
	b.height = 1
	b.fixedSize = true
	return b
}

// Alert shows msg until the next key press.
func (b *statusBar) Alert(msg string) { b.alert = msg }

// SetTooltip shows tip and reports whether it changed.
func (b *statusBar) SetTooltip(tip string) bool {
	if tip == b.tooltip {
		return false
	}
	b.tooltip = tip
	return true
}

func (b *statusBar) Draw() {
	style := tcell.StyleDefault.Background(tcell.ColorLightGray).Foreground(tcell.ColorBlack)
	if b.alert != "" {
		style = style.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite)
		b.fill(style)
		b.text(b.x, b.y, b.alert, style)
		return
	}
	b.fill(style)

	s := fmt.Sprintf("line %d, column %d", b.editor.Line(), b.editor.Column())
	x := b.text(b.x, b.y, s, style)

	if b.tooltip != "" {
		b.text(x+2, b.y, b.tooltip, style.Foreground(tcell.ColorNavy))
		return
	}
	keymap := "<ctrl+s> save, <ctrl+q> quit, <ctrl+f> find, <ctrl+g> go to line, <ctrl+t> highlight"
	// align right, without covering the line number
	drawTextRight(x+1, b.y, b.right(), keymap, style)
}
