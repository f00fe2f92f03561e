// Package render turns a token stream back into document markup.
//
// Keywords are colored, placeholders become anchors for the objects they
// stand for, and brackets get background highlights. The result is built as
// a node tree and serialized in one go, so it is always well formed.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/chenen3/glyphpad/internal/registry"
	"github.com/chenen3/glyphpad/internal/thumb"
	"github.com/chenen3/glyphpad/internal/token"
)

// LinkPrefix starts the href of an external-link anchor.
const LinkPrefix = "link:"

// BlockStyle is the style of the paragraph that holds the whole document.
const BlockStyle = "margin-top:12px; margin-bottom:12px; margin-left:0px; margin-right:0px; -qt-block-indent:0; text-indent:0px; white-space: pre-wrap;"

// Resolver maps placeholders to what they stand for. Tables and images are
// looked up by their rank among placeholders of the same kind, links by
// glyph and their rank among placeholders with that glyph. Image returns
// the thumbnail Source even on failure when the source is known.
type Resolver interface {
	Table(i int) (*registry.Table, error)
	Link(glyph rune, n int) (*registry.Link, error)
	Image(i int) (thumb.Thumbnail, error)
}

// Style holds the colors used for anchors and bracket highlights.
type Style struct {
	Table        string
	Link         string
	LinkFontSize string
	Brace        string
	Bracket      string
	Paren        string
	Missing      string
}

// DefaultStyle returns the stock colors.
func DefaultStyle() Style {
	return Style{
		Table:        "cyan",
		Link:         "orange",
		LinkFontSize: "16pt",
		Brace:        "blue",
		Bracket:      "purple",
		Paren:        "black",
		Missing:      "grey",
	}
}

// Miss is a placeholder that could not be resolved. It is rendered as a
// plain marker and the rest of the document is unaffected.
type Miss struct {
	Object token.ObjectKind
	Index  int
	Err    error
}

// Output is one rendered document.
type Output struct {
	Markup string
	Lines  []int
	Misses []Miss
}

// Build renders tokens. The text the tokens cover is also used for the line
// numbers, so Build(Tokenize(s)) numbers the lines of s.
func Build(tokens []token.Token, r Resolver, style Style) Output {
	p := element(atom.P, "style", BlockStyle)
	b := &builder{root: p, style: style, links: make(map[rune]int)}
	balanced := balancedLines(tokens)

	line := 0
	var misses []Miss
	for _, t := range tokens {
		switch t.Kind {
		case token.Newline:
			b.closeAll(atom.U)
			b.add(element(atom.Br))
			line++
		case token.Keyword:
			f := element(atom.Font, "color", string(t.Color))
			f.AppendChild(text(t.Text))
			b.add(f)
		case token.Punct:
			b.punct(t.Text, balanced[line])
		case token.Object:
			n, err := b.object(t, r)
			if err != nil {
				misses = append(misses, Miss{Object: t.Object, Index: t.Index, Err: err})
				if n == nil {
					n = b.missing()
					n.AppendChild(text(t.Text))
				}
			}
			b.add(n)
		default:
			b.add(text(t.Text))
		}
	}

	var out strings.Builder
	// Rendering an in-memory tree only fails on a writer error.
	_ = html.Render(&out, p)
	return Output{
		Markup: out.String(),
		Lines:  LineNumbers(token.Join(tokens)),
		Misses: misses,
	}
}

// LineNumbers returns 1..n for the n lines of text. A trailing newline ends
// the last line rather than starting a new one.
func LineNumbers(text string) []int {
	n := strings.Count(text, "\n") + 1
	if strings.HasSuffix(text, "\n") {
		n--
	}
	n = max(n, 1)
	lines := make([]int, n)
	for i := range lines {
		lines[i] = i + 1
	}
	return lines
}

// balancedLines reports, per line, whether it holds at least one brace and
// as many opening braces as closing ones.
func balancedLines(tokens []token.Token) []bool {
	var out []bool
	open, closed := 0, 0
	for _, t := range tokens {
		switch {
		case t.Kind == token.Newline:
			out = append(out, open > 0 && open == closed)
			open, closed = 0, 0
		case t.Kind == token.Punct && t.Text == "{":
			open++
		case t.Kind == token.Punct && t.Text == "}":
			closed++
		}
	}
	return append(out, open > 0 && open == closed)
}

type builder struct {
	root  *html.Node
	style Style
	// open highlight spans, innermost last
	stack []*html.Node
	// link placeholders seen so far, per glyph
	links map[rune]int
}

func (b *builder) cur() *html.Node {
	if len(b.stack) == 0 {
		return b.root
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) add(n *html.Node) { b.cur().AppendChild(n) }

func (b *builder) open(n *html.Node) {
	b.add(n)
	b.stack = append(b.stack, n)
}

// close ends the innermost open span of kind a. Spans opened after it are
// ended too and reopened inside the parent, keeping the tree well formed.
func (b *builder) close(a atom.Atom) bool {
	at := -1
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].DataAtom == a {
			at = i
			break
		}
	}
	if at < 0 {
		return false
	}
	reopen := b.stack[at+1:]
	b.stack = b.stack[:at]
	for _, n := range reopen {
		b.open(shallowCopy(n))
	}
	return true
}

func (b *builder) closeAll(a atom.Atom) {
	for b.close(a) {
	}
}

func (b *builder) punct(s string, balancedLine bool) {
	switch s {
	case "{":
		b.add(text(s))
		if balancedLine {
			b.open(element(atom.U, "style", "background-color:"+b.style.Brace))
		}
	case "}":
		if balancedLine {
			b.close(atom.U)
		}
		b.add(text(s))
	case "[":
		b.add(text(s))
		b.open(element(atom.B, "style", "background-color:"+b.style.Bracket))
	case "]":
		b.close(atom.B)
		b.add(text(s))
	case "(", ")":
		i := element(atom.I, "style", "background-color:"+b.style.Paren)
		i.AppendChild(text(s))
		b.add(i)
	default:
		b.add(text(s))
	}
}

func (b *builder) object(t token.Token, r Resolver) (*html.Node, error) {
	switch t.Object {
	case token.Table:
		if _, err := r.Table(t.Index); err != nil {
			return nil, err
		}
		a := element(atom.A, "href", strconv.Itoa(t.Index), "style", "color:"+b.style.Table)
		a.AppendChild(text(t.Text))
		return a, nil
	case token.Link:
		g := []rune(t.Text)[0]
		n := b.links[g]
		b.links[g]++
		l, err := r.Link(g, n)
		if err != nil {
			return nil, err
		}
		a := element(atom.A, "href", LinkPrefix+l.ID,
			"style", fmt.Sprintf("color:%s; font-size:%s", b.style.Link, b.style.LinkFontSize))
		a.AppendChild(text(t.Text))
		return a, nil
	case token.Image:
		th, err := r.Image(t.Index)
		if err != nil && th.Source != "" {
			// keep the image so the document still refers to its source
			n := b.missing()
			n.AppendChild(element(atom.Img, "src", th.Source))
			return n, err
		}
		if err != nil {
			return nil, err
		}
		a := element(atom.A, "href", th.Inline)
		a.AppendChild(element(atom.Img, "src", th.Inline))
		return a, nil
	}
	return nil, fmt.Errorf("unknown object kind %s", t.Object)
}

// missing returns the marker an unresolved placeholder is rendered in.
func (b *builder) missing() *html.Node {
	return element(atom.Span, "style", "color:"+b.style.Missing)
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func shallowCopy(n *html.Node) *html.Node {
	return &html.Node{Type: n.Type, DataAtom: n.DataAtom, Data: n.Data, Attr: append([]html.Attribute(nil), n.Attr...)}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
