package main

import (
	"fmt"
	"slices"

	"github.com/gdamore/tcell/v2"
)

// findBar searches the document text. Enter jumps to the next match after
// the caret, wrapping at the end.
type findBar struct {
	baseView
	pad     *pad
	keyword []rune
}

func newFindBar(p *pad) *findBar {
	f := &findBar{pad: p}
	f.height = 1
	f.fixedSize = true
	return f
}

func (f *findBar) Draw() {
	style := tcell.StyleDefault.Background(tcell.ColorLightYellow).Foreground(tcell.ColorBlack)
	f.fill(style)

	x := f.text(f.x, f.y, "find: "+string(f.keyword), style)
	if f.focused {
		screen.ShowCursor(x, f.y)
	}
	if len(f.keyword) == 0 {
		return
	}
	matches := findAll([]rune(f.pad.doc.PlainText()), f.keyword)
	index := fmt.Sprintf("%d matches", len(matches))
	if i := slices.Index(matches, f.pad.doc.Caret()-len(f.keyword)); i >= 0 {
		index = fmt.Sprintf("%d/%d", i+1, len(matches))
	}
	drawTextRight(x+1, f.y, f.right(), index, style)
}

func (f *findBar) HandleKey(k *tcell.EventKey) {
	switch k.Key() {
	case tcell.KeyRune:
		f.keyword = append(f.keyword, k.Rune())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(f.keyword) > 0 {
			f.keyword = f.keyword[:len(f.keyword)-1]
		}
	case tcell.KeyEnter:
		if !f.pad.findNext(f.keyword) {
			f.pad.status.Alert(fmt.Sprintf("%q not found", string(f.keyword)))
			f.pad.dismissPrompt()
		}
	case tcell.KeyESC:
		f.pad.dismissPrompt()
	}
}

// findAll returns the offsets of every match of key in text.
func findAll(text, key []rune) []int {
	if len(key) == 0 {
		return nil
	}
	var offs []int
	for i := 0; i+len(key) <= len(text); i++ {
		if slices.Equal(text[i:i+len(key)], key) {
			offs = append(offs, i)
		}
	}
	return offs
}

// findNext places the caret at the end of the first match starting at or
// after the caret, wrapping to the top. It reports whether there was a
// match.
func (p *pad) findNext(key []rune) bool {
	matches := findAll([]rune(p.doc.PlainText()), key)
	if len(matches) == 0 {
		return false
	}
	caret := p.doc.Caret()
	next := matches[0]
	for _, m := range matches {
		if m >= caret {
			next = m
			break
		}
	}
	// place the caret at the end of the match for easy editing
	p.doc.SetCaret(next + len(key))
	p.editor.scrollToCaret()
	return true
}
