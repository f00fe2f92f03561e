// Package richdoc is a small in-memory rich-text document: a flat run of
// styled cells that can be loaded from and serialized to HTML markup.
//
// Text is treated as pre-wrapped: a newline in a text node is a line break,
// the same as a <br> element.
package richdoc

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/chenen3/glyphpad/internal/token"
)

// Cell is one character of the document, or one embedded image.
type Cell struct {
	R    rune
	Fg   string // color name, "" for default
	Bg   string
	Href string // anchor target, "" if not inside an anchor
	Src  string // image source, set when R is token.ImageGlyph
}

// IsImage reports whether c is an embedded image.
func (c Cell) IsImage() bool { return c.R == token.ImageGlyph }

type attrs struct {
	fg, bg, href string
}

func (c Cell) attrs() attrs { return attrs{c.Fg, c.Bg, c.Href} }

// Document holds cells and a caret. The caret is a linear offset in
// [0, Len()].
type Document struct {
	cells []Cell
	caret int
}

// New returns an empty document.
func New() *Document { return &Document{} }

// FromText returns a document holding text without styling.
func FromText(text string) *Document {
	d := New()
	d.Insert(text)
	d.caret = 0
	return d
}

// Len returns the number of cells.
func (d *Document) Len() int { return len(d.cells) }

// Cells returns the cells. The slice must not be modified.
func (d *Document) Cells() []Cell { return d.cells }

// PlainText returns the text of the document with each image as
// token.ImageGlyph.
func (d *Document) PlainText() string {
	var b strings.Builder
	for _, c := range d.cells {
		b.WriteRune(c.R)
	}
	return b.String()
}

// Caret returns the caret offset.
func (d *Document) Caret() int { return d.caret }

// SetCaret moves the caret, clamped to the document.
func (d *Document) SetCaret(off int) {
	d.caret = min(max(off, 0), len(d.cells))
}

// Insert adds unstyled text at the caret and moves the caret after it.
func (d *Document) Insert(text string) {
	var cells []Cell
	for _, r := range text {
		if r == '\r' {
			continue
		}
		cells = append(cells, Cell{R: r})
	}
	d.insert(cells...)
}

// InsertImage adds an image at the caret.
func (d *Document) InsertImage(src string) {
	d.insert(Cell{R: token.ImageGlyph, Src: src})
}

func (d *Document) insert(cells ...Cell) {
	d.cells = slices.Insert(d.cells, d.caret, cells...)
	d.caret += len(cells)
}

// Delete removes the cells in [from, to) and puts the caret at from.
func (d *Document) Delete(from, to int) {
	from = min(max(from, 0), len(d.cells))
	to = min(max(to, from), len(d.cells))
	d.cells = slices.Delete(d.cells, from, to)
	d.caret = from
}

// Position returns the line index and column of off.
func (d *Document) Position(off int) (line, col int) {
	off = min(max(off, 0), len(d.cells))
	start := 0
	for i := 0; i < off; i++ {
		if d.cells[i].R == '\n' {
			line++
			start = i + 1
		}
	}
	return line, off - start
}

// Offset returns the offset of column col on line, clamped to the end of
// that line.
func (d *Document) Offset(line, col int) int {
	start := 0
	for l := 0; l < line; l++ {
		i := slices.IndexFunc(d.cells[start:], func(c Cell) bool { return c.R == '\n' })
		if i < 0 {
			return len(d.cells)
		}
		start += i + 1
	}
	end := start
	for end < len(d.cells) && d.cells[end].R != '\n' {
		end++
	}
	return min(start+max(col, 0), end)
}

// Lines splits the cells at newlines. The newline cells are dropped.
func (d *Document) Lines() [][]Cell {
	lines := [][]Cell{nil}
	for _, c := range d.cells {
		if c.R == '\n' {
			lines = append(lines, nil)
			continue
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], c)
	}
	return lines
}

// Apply replaces the content with markup. The caret offset is kept,
// clamped to the new length.
func (d *Document) Apply(markup string) error {
	return d.SetMarkup(markup)
}

// SetMarkup replaces the content with markup.
func (d *Document) SetMarkup(markup string) error {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parsing document markup: %w", err)
	}
	p := &parser{}
	p.walk(root, attrs{})
	d.cells = p.cells
	d.SetCaret(d.caret)
	return nil
}

type parser struct {
	cells []Cell
	paras int
}

func (p *parser) walk(n *html.Node, a attrs) {
	switch n.Type {
	case html.TextNode:
		for _, r := range n.Data {
			if r == '\r' {
				continue
			}
			p.cells = append(p.cells, Cell{R: r, Fg: a.fg, Bg: a.bg, Href: a.href})
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head, atom.Script, atom.Style, atom.Title:
			return
		case atom.Br:
			p.cells = append(p.cells, Cell{R: '\n', Href: a.href})
			return
		case atom.Img:
			p.cells = append(p.cells, Cell{R: token.ImageGlyph, Href: a.href, Src: attr(n, "src")})
			return
		case atom.P, atom.Div:
			if p.paras > 0 && len(p.cells) > 0 {
				p.cells = append(p.cells, Cell{R: '\n'})
			}
			p.paras++
		case atom.A:
			if href := attr(n, "href"); href != "" {
				a.href = href
			}
		case atom.Font:
			if c := attr(n, "color"); c != "" {
				a.fg = c
			}
		}
		for k, v := range parseStyle(attr(n, "style")) {
			switch k {
			case "color":
				a.fg = v
			case "background-color":
				a.bg = v
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, a)
	}
}

func parseStyle(s string) map[string]string {
	if s == "" {
		return nil
	}
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// Markup serializes the document. Equal documents give equal markup.
func (d *Document) Markup() string {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	p := &html.Node{Type: html.ElementNode, DataAtom: atom.P, Data: "p"}
	body.AppendChild(p)

	for i := 0; i < len(d.cells); {
		a := d.cells[i].attrs()
		j := i
		for j < len(d.cells) && d.cells[j].attrs() == a {
			j++
		}
		parent := p
		if a.href != "" {
			anchor := element(atom.A, "href", a.href)
			p.AppendChild(anchor)
			parent = anchor
		}
		if a.fg != "" || a.bg != "" {
			var decls []string
			if a.fg != "" {
				decls = append(decls, "color:"+a.fg)
			}
			if a.bg != "" {
				decls = append(decls, "background-color:"+a.bg)
			}
			span := element(atom.Span, "style", strings.Join(decls, "; "))
			parent.AppendChild(span)
			parent = span
		}
		appendCells(parent, d.cells[i:j])
		i = j
	}

	var b strings.Builder
	b.WriteString("<html>")
	_ = html.Render(&b, body)
	b.WriteString("</html>")
	return b.String()
}

func appendCells(parent *html.Node, cells []Cell) {
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: run.String()})
			run.Reset()
		}
	}
	for _, c := range cells {
		switch {
		case c.IsImage():
			flush()
			parent.AppendChild(element(atom.Img, "src", c.Src))
		case c.R == '\n':
			flush()
			parent.AppendChild(element(atom.Br))
		default:
			run.WriteRune(c.R)
		}
	}
	flush()
}

func element(a atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}
