package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

type View interface {
	SetPos(x, y, width, height int)
	Pos() (x1, y1, width, height int)
	Draw()
	FixedSize() bool
	// HandleKey is used to operate inside a view.
	// When interacting with multiple views, use [App.Handle] instead.
	HandleKey(*tcell.EventKey)
	OnFocus()
	OnBlur()
	OnClick(x, y int)
	ScrollUp(lines int)
	ScrollDown(lines int)
}

type baseView struct {
	x, y          int
	width, height int
	fixedSize     bool
	focused       bool
}

func (v *baseView) SetPos(x, y, width, height int) {
	v.x = x
	v.y = y
	v.width = width
	v.height = height
}

func (v *baseView) Pos() (int, int, int, int) { return v.x, v.y, v.width, v.height }
func (v *baseView) FixedSize() bool           { return v.fixedSize }
func (v *baseView) OnFocus()                  { v.focused = true }
func (v *baseView) OnBlur()                   { v.focused = false }
func (v *baseView) Focused() bool             { return v.focused }
func (v *baseView) HandleKey(*tcell.EventKey) {}
func (v *baseView) OnClick(int, int)          {}
func (v *baseView) ScrollUp(int)              {}
func (v *baseView) ScrollDown(int)            {}
func (v *baseView) fill(style tcell.Style)    { fill(v.x, v.y, v.width, v.height, style) }
func (v *baseView) right() int                { return v.x + v.width }

func (v *baseView) text(x, y int, s string, style tcell.Style) int {
	return drawText(x, y, v.right(), s, style)
}

func fill(x, y, width, height int, style tcell.Style) {
	for j := y; j < y+height; j++ {
		for i := x; i < x+width; i++ {
			screen.SetContent(i, j, ' ', nil, style)
		}
	}
}

// drawText draws s from x up to, not including, maxX and returns the column
// after the last rune drawn.
func drawText(x, y, maxX int, s string, style tcell.Style) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			w = 1
		}
		if x+w > maxX {
			break
		}
		screen.SetContent(x, y, r, nil, style)
		x += w
	}
	return x
}

// drawTextRight draws s so that it ends just before maxX, without going
// left of minX.
func drawTextRight(minX, y, maxX int, s string, style tcell.Style) {
	x := maxX - runewidth.StringWidth(s)
	if x < minX {
		return
	}
	drawText(x, y, maxX, s, style)
}

type vstack struct {
	baseView
	Views []View
}

func VStack(v ...View) *vstack {
	return &vstack{Views: v}
}

func (v *vstack) OnClick(x, y int) {
	for _, view := range v.Views {
		if inView(view, x, y) {
			view.OnClick(x, y)
			return
		}
	}
}

func (v *vstack) Draw() {
	if len(v.Views) == 0 {
		v.fill(tcell.StyleDefault)
		return
	}

	var fixed int
	var remainH = v.height
	for _, view := range v.Views {
		_, _, _, h := view.Pos()
		if view.FixedSize() {
			fixed++
			remainH -= h
		}
	}
	var avgH int
	if fixed != len(v.Views) {
		avgH = max(remainH, 0) / (len(v.Views) - fixed)
	}

	y := v.y
	for _, view := range v.Views {
		_, _, _, h := view.Pos()
		if !view.FixedSize() {
			h = avgH
		}
		view.SetPos(v.x, y, v.width, h)
		y += h
		view.Draw()
	}
}

type hstack struct {
	baseView
	Views []View
}

func HStack(v ...View) *hstack {
	return &hstack{Views: v}
}

func (h *hstack) Draw() {
	if len(h.Views) == 0 {
		h.fill(tcell.StyleDefault)
		return
	}

	var fixed int
	var remainW = h.width
	for _, view := range h.Views {
		_, _, w, _ := view.Pos()
		if view.FixedSize() {
			fixed++
			remainW -= w
		}
	}
	var avgW int
	if fixed != len(h.Views) {
		avgW = max(remainW, 0) / (len(h.Views) - fixed)
	}

	x := h.x
	for _, view := range h.Views {
		_, _, w, _ := view.Pos()
		if !view.FixedSize() {
			w = avgW
		}
		view.SetPos(x, h.y, w, h.height)
		x += w
		view.Draw()
	}
}

func (h *hstack) OnClick(x, y int) {
	for _, v := range h.Views {
		if inView(v, x, y) {
			v.OnClick(x, y)
			return
		}
	}
}

func inView(v View, x, y int) bool {
	x1, y1, w, h := v.Pos()
	return x1 <= x && x < x1+w && y1 <= y && y < y1+h
}
