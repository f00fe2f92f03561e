// Package token splits the plain text of a document into classified runs.
//
// The tokenizer is a character classifier, not a lexer: it knows about
// whitespace, newlines, a handful of brackets and the placeholder glyphs
// that stand in for embedded objects. Everything else is a plain run that
// may turn out to be a keyword.
package token

import (
	"fmt"
	"strings"

	"github.com/chenen3/glyphpad/internal/syntax"
)

// Kind classifies a token.
type Kind int

const (
	Plain Kind = iota
	Keyword
	Whitespace
	Newline
	Punct
	Object
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Keyword:
		return "keyword"
	case Whitespace:
		return "space"
	case Newline:
		return "newline"
	case Punct:
		return "punct"
	case Object:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ObjectKind tells which registry an object placeholder refers to.
type ObjectKind int

const (
	Image ObjectKind = iota
	Table
	Link
)

func (o ObjectKind) String() string {
	switch o {
	case Image:
		return "image"
	case Table:
		return "table"
	case Link:
		return "link"
	}
	return fmt.Sprintf("object(%d)", int(o))
}

const (
	// ImageGlyph is what a rich-text widget reports for an embedded image
	// in its plain text (OBJECT REPLACEMENT CHARACTER).
	ImageGlyph = '\uFFFC'
	// TableGlyph marks a pasted table.
	TableGlyph = '▦'
)

// LinkGlyphs is the pool external-link glyphs are assigned from, in order.
var LinkGlyphs = []rune("①②③④⑤⑥⑦⑧⑨⑩⑪⑫⑬⑭⑮⑯⑰⑱⑲⑳")

var punctuation = "()[]{}:"

// IsLinkGlyph reports whether r belongs to the link glyph pool.
func IsLinkGlyph(r rune) bool {
	for _, g := range LinkGlyphs {
		if g == r {
			return true
		}
	}
	return false
}

// IsPlaceholder reports whether r stands in for an embedded object.
func IsPlaceholder(r rune) bool {
	return r == ImageGlyph || r == TableGlyph || IsLinkGlyph(r)
}

// Token is one classified fragment of the document text. Text always holds
// the exact characters the token covers.
type Token struct {
	Kind  Kind
	Text  string
	Color syntax.Color // set for Keyword

	// set for Object
	Object ObjectKind
	Index  int // rank among placeholders of the same ObjectKind
}

func (t Token) String() string {
	switch t.Kind {
	case Keyword:
		return fmt.Sprintf("%s(%q,%s)", t.Kind, t.Text, t.Color)
	case Object:
		return fmt.Sprintf("%s(%s,%d)", t.Kind, t.Object, t.Index)
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// Join concatenates the text of tokens. Join(Tokenize(s, t)) == s.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Tokenize scans text left to right. Placeholder glyphs, newlines and
// punctuation each become their own token; runs of spaces and tabs group
// together; every other character extends a plain run which is looked up in
// table when it closes. text must be valid UTF-8.
func Tokenize(text string, table *syntax.Table) []Token {
	if text == "" {
		return nil
	}

	s := make([]Token, 0, len(text)/2+1)
	var counts [3]int
	var run strings.Builder
	runKind := Plain // kind of the run being accumulated, meaningful when run.Len() > 0

	closeRun := func() {
		if run.Len() == 0 {
			return
		}
		t := Token{Kind: runKind, Text: run.String()}
		if runKind == Plain {
			if c, ok := table.Classify(t.Text); ok {
				t.Kind = Keyword
				t.Color = c
			}
		}
		s = append(s, t)
		run.Reset()
	}
	object := func(kind ObjectKind, r rune) {
		closeRun()
		s = append(s, Token{Kind: Object, Text: string(r), Object: kind, Index: counts[kind]})
		counts[kind]++
	}

	for _, r := range text {
		switch {
		case r == ImageGlyph:
			object(Image, r)
		case r == TableGlyph:
			object(Table, r)
		case IsLinkGlyph(r):
			object(Link, r)
		case r == ' ' || r == '\t':
			if runKind != Whitespace {
				closeRun()
				runKind = Whitespace
			}
			run.WriteRune(r)
		case r == '\n':
			closeRun()
			s = append(s, Token{Kind: Newline, Text: "\n"})
		case strings.ContainsRune(punctuation, r):
			closeRun()
			s = append(s, Token{Kind: Punct, Text: string(r)})
		default:
			if runKind != Plain {
				closeRun()
				runKind = Plain
			}
			run.WriteRune(r)
		}
	}
	closeRun()
	return s
}
