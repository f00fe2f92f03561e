package main

import (
	"github.com/gdamore/tcell/v2"
)

type titleBar struct {
	baseView
	name      string
	modified  bool
	highlight bool
}

func newTitleBar(name string) *titleBar {
	t := &titleBar{name: name, highlight: true}
	t.height = 1
	t.fixedSize = true
	return t
}

func (t *titleBar) Draw() {
	style := tcell.StyleDefault.Background(tcell.ColorLightGray).Foreground(tcell.ColorBlack)
	t.fill(style)

	title := t.name
	if title == "" {
		title = "untitled"
	}
	if t.modified {
		title += " [+]"
	}
	x := t.text(t.x, t.y, title, style)

	mode := "highlight on"
	if !t.highlight {
		mode = "highlight off"
	}
	drawTextRight(x+1, t.y, t.right(), mode, style.Foreground(tcell.ColorGray))
}
