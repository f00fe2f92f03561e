package main

import (
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/chenen3/glyphpad/internal/richdoc"
)

const tabWidth = 4

// imageRune stands in for an embedded image on the terminal.
const imageRune = '▣'

// editor shows a rich document with its colors, a gutter of line numbers
// and the caret.
type editor struct {
	baseView
	doc   *richdoc.Document
	style tcell.Style

	gutter *lineBar
	// first visible line, 0-based
	top int

	// OnEdit runs after every change to the document.
	OnEdit func()
	// OnAnchor runs when an anchored cell is clicked.
	OnAnchor func(href string)
}

func newEditor(doc *richdoc.Document) *editor {
	style := tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset)
	return &editor{
		doc:    doc,
		style:  style,
		gutter: &lineBar{style: style.Foreground(tcell.ColorGray)},
	}
}

// SetLineNumbers replaces the numbers shown in the gutter.
func (e *editor) SetLineNumbers(lines []int) { e.gutter.numbers = lines }

func cellWidth(c richdoc.Cell) int {
	switch {
	case c.IsImage():
		return 1
	case c.R == '\t':
		return tabWidth
	}
	return max(runewidth.RuneWidth(c.R), 1)
}

func (e *editor) cellStyle(c richdoc.Cell) tcell.Style {
	style := e.style
	if c.Fg != "" {
		style = style.Foreground(termColor(c.Fg))
	}
	if c.Bg != "" {
		style = style.Background(termColor(c.Bg))
	}
	if c.Href != "" {
		style = style.Underline(true)
	}
	if c.IsImage() {
		style = style.Bold(true)
	}
	return style
}

// textX is the first column of the text area.
func (e *editor) textX() int { return e.x + e.gutter.width() }

func (e *editor) Draw() {
	e.fill(e.style)
	lines := e.doc.Lines()
	e.gutter.SetPos(e.x, e.y, e.gutter.width(), e.height)
	e.gutter.top = e.top
	e.gutter.Draw()

	for i := 0; i < e.height && e.top+i < len(lines); i++ {
		e.drawLine(lines[e.top+i], e.y+i)
	}
	if e.focused {
		e.ShowCursor()
	}
}

func (e *editor) drawLine(line []richdoc.Cell, y int) {
	x := e.textX()
	for _, c := range line {
		w := cellWidth(c)
		if x+w > e.right() {
			return
		}
		style := e.cellStyle(c)
		switch {
		case c.IsImage():
			screen.SetContent(x, y, imageRune, nil, style)
		case c.R == '\t':
			fill(x, y, w, 1, style)
		default:
			screen.SetContent(x, y, c.R, nil, style)
		}
		x += w
	}
}

// ShowCursor puts the terminal cursor on the caret, or hides it when the
// caret is scrolled out of view.
func (e *editor) ShowCursor() {
	line, col := e.doc.Position(e.doc.Caret())
	if line < e.top || line >= e.top+e.height {
		screen.HideCursor()
		return
	}
	x := e.textX()
	for _, c := range e.doc.Lines()[line][:col] {
		x += cellWidth(c)
	}
	screen.ShowCursor(x, e.y+line-e.top)
}

// offsetAt maps a screen position to the document offset of the cell drawn
// there and reports whether a cell is actually drawn at that position.
func (e *editor) offsetAt(x, y int) (int, bool) {
	lines := e.doc.Lines()
	line := min(max(y-e.y+e.top, 0), len(lines)-1)
	col := 0
	cx := e.textX()
	for _, c := range lines[line] {
		w := cellWidth(c)
		if x < cx+w {
			return e.doc.Offset(line, col), y-e.y+e.top == line && x >= e.textX()
		}
		cx += w
		col++
	}
	return e.doc.Offset(line, col), false
}

// CellAt returns the cell drawn at a screen position.
func (e *editor) CellAt(x, y int) (richdoc.Cell, bool) {
	if !inView(e, x, y) {
		return richdoc.Cell{}, false
	}
	off, ok := e.offsetAt(x, y)
	if !ok {
		return richdoc.Cell{}, false
	}
	return e.doc.Cells()[off], true
}

func (e *editor) OnClick(x, y int) {
	off, _ := e.offsetAt(x, y)
	e.doc.SetCaret(off)
	if c, ok := e.CellAt(x, y); ok && c.Href != "" && e.OnAnchor != nil {
		e.OnAnchor(c.Href)
	}
}

func (e *editor) ScrollUp(n int) {
	e.top = max(e.top-n, 0)
}

func (e *editor) ScrollDown(n int) {
	e.top = min(e.top+n, len(e.doc.Lines())-1)
}

// scrollToCaret keeps the caret line on screen.
func (e *editor) scrollToCaret() {
	line, _ := e.doc.Position(e.doc.Caret())
	if line < e.top {
		e.top = line
	} else if e.height > 0 && line >= e.top+e.height {
		e.top = line - e.height + 1
	}
}

// Line returns the 1-based line of the caret.
func (e *editor) Line() int {
	line, _ := e.doc.Position(e.doc.Caret())
	return line + 1
}

// Column returns the 1-based screen column of the caret, counting tabs as
// tabWidth columns.
func (e *editor) Column() int {
	line, col := e.doc.Position(e.doc.Caret())
	n := 1
	for _, c := range e.doc.Lines()[line][:col] {
		n += cellWidth(c)
	}
	return n
}

func (e *editor) lineBounds() (start, end int) {
	line, _ := e.doc.Position(e.doc.Caret())
	return e.doc.Offset(line, 0), e.doc.Offset(line, len(e.doc.Lines()[line]))
}

func (e *editor) moveLines(delta int) {
	line, col := e.doc.Position(e.doc.Caret())
	line = min(max(line+delta, 0), len(e.doc.Lines())-1)
	e.doc.SetCaret(e.doc.Offset(line, col))
}

func (e *editor) Insert(text string) {
	e.doc.Insert(text)
	e.edited()
}

func (e *editor) DeleteLeft() {
	caret := e.doc.Caret()
	if caret == 0 {
		return
	}
	e.doc.Delete(caret-1, caret)
	e.edited()
}

func (e *editor) DeleteRight() {
	caret := e.doc.Caret()
	if caret == e.doc.Len() {
		return
	}
	e.doc.Delete(caret, caret+1)
	e.edited()
}

func (e *editor) DeleteToLineStart() {
	start, _ := e.lineBounds()
	e.doc.Delete(start, e.doc.Caret())
	e.edited()
}

func (e *editor) DeleteToLineEnd() {
	_, end := e.lineBounds()
	e.doc.Delete(e.doc.Caret(), end)
	e.edited()
}

func (e *editor) edited() {
	e.scrollToCaret()
	if e.OnEdit != nil {
		e.OnEdit()
	}
}

func (e *editor) HandleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyCtrlA:
		start, _ := e.lineBounds()
		e.doc.SetCaret(start)
	case tcell.KeyCtrlE:
		_, end := e.lineBounds()
		e.doc.SetCaret(end)
	case tcell.KeyUp:
		e.moveLines(-1)
	case tcell.KeyDown:
		e.moveLines(1)
	case tcell.KeyPgUp:
		e.moveLines(-max(e.height, 1))
	case tcell.KeyPgDn:
		e.moveLines(max(e.height, 1))
	case tcell.KeyLeft:
		e.doc.SetCaret(e.doc.Caret() - 1)
	case tcell.KeyRight:
		e.doc.SetCaret(e.doc.Caret() + 1)
	case tcell.KeyHome:
		e.doc.SetCaret(0)
	case tcell.KeyEnd:
		e.doc.SetCaret(e.doc.Len())
	case tcell.KeyRune:
		e.Insert(string(ev.Rune()))
		return
	case tcell.KeyTab:
		e.Insert("\t")
		return
	case tcell.KeyEnter:
		e.Insert("\n")
		return
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		e.DeleteLeft()
		return
	case tcell.KeyDelete:
		e.DeleteRight()
		return
	case tcell.KeyCtrlU:
		e.DeleteToLineStart()
		return
	case tcell.KeyCtrlK:
		e.DeleteToLineEnd()
		return
	}
	e.scrollToCaret()
}

// lineBar is the gutter. It shows the numbers reported by the last
// highlight pass, one per screen row starting at the first visible line.
type lineBar struct {
	baseView
	style   tcell.Style
	numbers []int
	top     int
}

func (b *lineBar) width() int {
	n := 1
	if len(b.numbers) > 0 {
		n = b.numbers[len(b.numbers)-1]
	}
	return len(strconv.Itoa(n)) + 2
}

func (b *lineBar) Draw() {
	b.fill(b.style)
	paddingRight := 1
	for i := 0; i < b.height && b.top+i < len(b.numbers); i++ {
		drawTextRight(b.x, b.y+i, b.right()-paddingRight, strconv.Itoa(b.numbers[b.top+i]), b.style)
	}
}
