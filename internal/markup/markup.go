// Package markup reads the raw markup a rich-text document reports about
// itself: it checks that the markup is well formed and pulls out the image
// sources and tables embedded in it.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Clean removes NUL bytes. Some clipboard sources append one to pasted
// rich text; it is harmless and must not fail the parse.
func Clean(raw string) string {
	return strings.ReplaceAll(raw, "\x00", "")
}

// MalformedError reports markup that is not well formed.
type MalformedError struct {
	Line int // 1-based
	Col  int // 1-based, in bytes
	Msg  string
	Dump string // line-numbered copy of the markup
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed markup at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Dump renders raw with 1-based line numbers, one line per row.
func Dump(raw string) string {
	var b strings.Builder
	for i, ln := range strings.Split(raw, "\n") {
		fmt.Fprintf(&b, "%4d  %s\n", i+1, ln)
	}
	return b.String()
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Param: true, atom.Source: true,
	atom.Track: true, atom.Wbr: true,
}

// Snapshot is a parsed, well-formed markup document.
type Snapshot struct {
	Raw  string
	root *html.Node
}

// Parse checks raw for well-formedness and parses it. Every non-void start
// tag must be closed, in order, by a matching end tag.
func Parse(raw string) (*Snapshot, error) {
	if err := check(raw); err != nil {
		return nil, err
	}
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	return &Snapshot{Raw: raw, root: root}, nil
}

type openTag struct {
	name string
	off  int
}

func check(raw string) error {
	z := html.NewTokenizer(strings.NewReader(raw))
	var stack []openTag
	off := 0
	fail := func(at int, format string, args ...any) error {
		line, col := position(raw, at)
		return &MalformedError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...), Dump: Dump(raw)}
	}

	for {
		tt := z.Next()
		start := off
		off += len(z.Raw())
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				if len(stack) > 0 {
					top := stack[len(stack)-1]
					return fail(top.off, "unclosed <%s>", top.name)
				}
				return nil
			}
			return fail(start, "%v", z.Err())
		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if voidElements[a] {
				continue
			}
			stack = append(stack, openTag{name: string(name), off: start})
		case html.EndTagToken:
			name, _ := z.TagName()
			if len(stack) == 0 {
				return fail(start, "unexpected </%s>", name)
			}
			top := stack[len(stack)-1]
			if top.name != string(name) {
				return fail(start, "</%s> does not close <%s>", name, top.name)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

func position(raw string, off int) (line, col int) {
	if off > len(raw) {
		off = len(raw)
	}
	before := raw[:off]
	line = strings.Count(before, "\n") + 1
	col = off - strings.LastIndex(before, "\n")
	return line, col
}

// ImageSources returns the src attribute of every img element in document
// order. An img without src yields "".
func (s *Snapshot) ImageSources() []string {
	var srcs []string
	walk(s.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			srcs = append(srcs, Attr(n, "src"))
		}
		return true
	})
	return srcs
}

// Tables returns the cell text of every top-level table element in
// document order.
func (s *Snapshot) Tables() [][][]string {
	var tables [][][]string
	walk(s.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, TableCells(n))
			return false
		}
		return true
	})
	return tables
}

// TableCells returns the trimmed text of each td/th of each tr under table.
// Rows of nested tables are not included.
func TableCells(table *html.Node) [][]string {
	var rows [][]string
	walk(table, func(n *html.Node) bool {
		if n != table && n.Type == html.ElementNode && n.DataAtom == atom.Table {
			return false
		}
		if n.Type != html.ElementNode || n.DataAtom != atom.Tr {
			return true
		}
		var row []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
				row = append(row, strings.TrimSpace(Text(c)))
			}
		}
		rows = append(rows, row)
		return false
	})
	return rows
}

// Text returns the concatenated text content under n.
func Text(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}
