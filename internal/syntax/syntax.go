// Package syntax holds the keyword table used to color identifier runs.
//
// The table is a merge of several per-language keyword sets. It is built
// once and never mutated; when two sets register the same spelling, the set
// registered later wins.
package syntax

import (
	"fmt"
	"strings"
)

// Color is a named display color understood by both HTML and tcell, e.g.
// "cyan" or "lightgreen".
type Color string

const (
	Cyan       Color = "cyan"
	Red        Color = "red"
	Yellow     Color = "yellow"
	LightGreen Color = "lightgreen"
	Pink       Color = "pink"
	Orange     Color = "orange"
)

// Set is one language's keyword-to-color mapping.
type Set struct {
	Name     string
	Keywords map[string]Color
}

func newSet(name string, groups ...group) Set {
	s := Set{Name: name, Keywords: make(map[string]Color)}
	for _, g := range groups {
		for _, w := range g.words {
			s.Keywords[w] = g.color
		}
	}
	return s
}

type group struct {
	color Color
	words []string
}

var (
	// Python is the dynamic-language set.
	Python = newSet("python",
		group{Cyan, []string{"def", "assert"}},
		group{Red, []string{"for", "in", "while", "if", "elif", "else", "class", "return"}},
	)

	// C holds C keywords and primitive types.
	C = newSet("c",
		group{Yellow, []string{"void", "static", "const", "struct"}},
		group{LightGreen, []string{"char", "short", "int", "long", "float", "double"}},
	)

	// C3 holds C3 keywords and attributes.
	C3 = newSet("c3",
		group{Pink, []string{
			"true", "false", "fn", "extern", "ichar", "ushort", "float16", "bool",
			"bitstruct", "distinct", "import",
		}},
		group{Pink, []string{
			"@wasm", "@packed", "@adhoc", "@align", "@benchmark", "@bigendian", "@builtin",
			"@callc", "@deprecated", "@export", "@finalizer", "@if", "@init", "@inline",
			"@littleendian", "@local", "@maydiscard", "@naked", "@nodiscard", "@noinit",
			"@norecurse", "@noreturn", "@nostrip", "@obfuscate", "@operator", "@overlap",
			"@private", "@pure", "@reflect", "@section", "@test", "@unused", "@weak",
		}},
	)

	// Zig holds Zig keywords, primitive types and a few builtins.
	Zig = newSet("zig",
		group{Orange, []string{"@intCast", "@intFromFloat"}},
		group{Orange, []string{
			"defer", "null", "undefined", "try", "pub", "comptime", "var", "or",
			"callconv", "export",
		}},
		group{Orange, zigTypes()},
	)
)

func zigTypes() []string {
	var types []string
	for _, prefix := range []string{"i", "u"} {
		for _, bits := range []int{8, 16, 32, 64, 128} {
			types = append(types, fmt.Sprintf("%s%d", prefix, bits))
		}
	}
	types = append(types, "f16", "f32", "f64", "f80", "f128")
	types = append(types, strings.Fields(
		"isize usize c_char c_short c_ushort c_int c_uint c_long c_ulong "+
			"c_longlong c_ulonglong anyopaque type anyerror comptime_int comptime_float")...)
	return types
}

// Table maps exact keyword spellings to colors.
type Table struct {
	colors map[string]Color
}

// New merges sets in order; a later set overrides an earlier one on
// collision.
func New(sets ...Set) *Table {
	t := &Table{colors: make(map[string]Color)}
	for _, s := range sets {
		for word, c := range s.Keywords {
			t.colors[word] = c
		}
	}
	return t
}

// Default returns the table merged from Python, C, C3 and Zig in that order.
func Default() *Table {
	return New(Python, C, C3, Zig)
}

// WithExtra returns Default with one more set merged last. It is how the
// syntax.extra config key reaches the tokenizer.
func WithExtra(extra map[string]string) *Table {
	if len(extra) == 0 {
		return Default()
	}
	s := Set{Name: "extra", Keywords: make(map[string]Color, len(extra))}
	for word, c := range extra {
		s.Keywords[word] = Color(c)
	}
	return New(Python, C, C3, Zig, s)
}

// Classify reports the color of word. Only whole, case-sensitive matches
// count: "definitely" is not "def".
func (t *Table) Classify(word string) (Color, bool) {
	if t == nil {
		return "", false
	}
	c, ok := t.colors[word]
	return c, ok
}

// Len returns the number of distinct keywords.
func (t *Table) Len() int { return len(t.colors) }

// HasKeywords reports whether any whitespace separated field of text is a
// keyword.
func (t *Table) HasKeywords(text string) bool {
	for _, f := range strings.Fields(text) {
		if _, ok := t.Classify(f); ok {
			return true
		}
	}
	return false
}
