// Package registry keeps the embedded objects of a document that cannot be
// recovered from its markup: pasted tables and links to external scene
// files.
//
// Entries are append-only for the life of the process. Table placeholders
// in the document text are matched to entries by position: the n-th table
// glyph is table n. Link placeholders are matched by glyph, and by position
// only among the links that share a glyph. Each entry also gets a generated
// identifier so anchors can refer to it without depending on position.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/chenen3/glyphpad/internal/log"
	"github.com/chenen3/glyphpad/internal/scene"
	"github.com/chenen3/glyphpad/internal/token"
)

var (
	// ErrDesync means a placeholder in the text has no registry entry.
	ErrDesync = errors.New("placeholder has no registry entry")
	// ErrGlyphPoolExhausted means every link glyph is already assigned.
	ErrGlyphPoolExhausted = errors.New("link glyph pool exhausted")
)

// DesyncError carries the placeholder that could not be resolved.
type DesyncError struct {
	Kind  token.ObjectKind
	Index int
	Len   int
	// Glyph is set for link placeholders; Index and Len then count the
	// links with that glyph.
	Glyph rune
}

func (e *DesyncError) Error() string {
	if e.Glyph != 0 {
		return fmt.Sprintf("%s placeholder %c #%d: only %d registered", e.Kind, e.Glyph, e.Index, e.Len)
	}
	return fmt.Sprintf("%s placeholder %d: only %d registered", e.Kind, e.Index, e.Len)
}

func (e *DesyncError) Unwrap() error { return ErrDesync }

// Link is an external scene file referenced from the document.
type Link struct {
	ID     string
	Source string
	Glyph  rune

	// Artifact is nil until the scene tool has produced it.
	Artifact *scene.Artifact
	// Err is the tool failure, if the last attempt failed.
	Err error

	selected map[string]bool
}

// Toggle flips the selection of the named sub-object and returns its new
// state.
func (l *Link) Toggle(name string) bool {
	if l.selected == nil {
		l.selected = make(map[string]bool)
	}
	if l.selected[name] {
		delete(l.selected, name)
		return false
	}
	l.selected[name] = true
	return true
}

// IsSelected reports whether name is selected.
func (l *Link) IsSelected(name string) bool { return l.selected[name] }

// Selected returns the selected sub-object names, sorted.
func (l *Link) Selected() []string {
	names := make([]string, 0, len(l.selected))
	for name := range l.selected {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Ready reports whether the scene artifact is available.
func (l *Link) Ready() bool { return l.Artifact != nil }

// Registry holds tables and links in the order they were added.
type Registry struct {
	tables []*Table
	links  []*Link

	pool   []rune
	glyphs map[string]rune // source path -> assigned glyph
}

// New returns an empty registry drawing link glyphs from token.LinkGlyphs.
func New() *Registry {
	return NewWithPool(token.LinkGlyphs)
}

// NewWithPool returns an empty registry with a custom glyph pool.
func NewWithPool(pool []rune) *Registry {
	return &Registry{
		pool:   pool,
		glyphs: make(map[string]rune),
	}
}

// AddTable appends t and returns its index.
func (r *Registry) AddTable(t *Table) int {
	r.tables = append(r.tables, t)
	log.Debug(log.CatRegistry, "table added", "index", len(r.tables)-1, "rows", t.Rows(), "cols", t.Cols())
	return len(r.tables) - 1
}

// Table returns table i.
func (r *Registry) Table(i int) (*Table, error) {
	if i < 0 || i >= len(r.tables) {
		return nil, &DesyncError{Kind: token.Table, Index: i, Len: len(r.tables)}
	}
	return r.tables[i], nil
}

// TableCount returns the number of registered tables.
func (r *Registry) TableCount() int { return len(r.tables) }

// AddLink appends a link to source. A source seen before keeps the glyph it
// was first given; a new source takes the next unused glyph of the pool.
func (r *Registry) AddLink(source string) (*Link, error) {
	g, err := r.glyph(source)
	if err != nil {
		return nil, err
	}
	l := &Link{ID: uuid.NewString(), Source: source, Glyph: g}
	r.links = append(r.links, l)
	log.Debug(log.CatRegistry, "link added", "index", len(r.links)-1, "source", source, "glyph", string(g))
	return l, nil
}

func (r *Registry) glyph(source string) (rune, error) {
	if g, ok := r.glyphs[source]; ok {
		return g, nil
	}
	if len(r.glyphs) >= len(r.pool) {
		return 0, fmt.Errorf("assigning glyph to %s: %w", source, ErrGlyphPoolExhausted)
	}
	g := r.pool[len(r.glyphs)]
	r.glyphs[source] = g
	return g, nil
}

// Link returns link i.
func (r *Registry) Link(i int) (*Link, error) {
	if i < 0 || i >= len(r.links) {
		return nil, &DesyncError{Kind: token.Link, Index: i, Len: len(r.links)}
	}
	return r.links[i], nil
}

// LinkByGlyph returns the n-th link assigned glyph g, counting from 0 in
// the order the links were added.
func (r *Registry) LinkByGlyph(g rune, n int) (*Link, error) {
	seen := 0
	for _, l := range r.links {
		if l.Glyph != g {
			continue
		}
		if seen == n {
			return l, nil
		}
		seen++
	}
	return nil, &DesyncError{Kind: token.Link, Index: n, Len: seen, Glyph: g}
}

// LinkByID returns the link with the given identifier.
func (r *Registry) LinkByID(id string) (*Link, bool) {
	for _, l := range r.links {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// LinkCount returns the number of registered links.
func (r *Registry) LinkCount() int { return len(r.links) }
