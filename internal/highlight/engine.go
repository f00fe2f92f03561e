// Package highlight runs the re-render pass over a live document and
// handles the interactions with the objects embedded in it.
//
// The engine is not safe for concurrent use. Everything except the scene
// tool runs on the goroutine that owns the document; scene results come back
// on a channel and are handed to CompleteLink on that goroutine.
package highlight

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chenen3/glyphpad/internal/log"
	"github.com/chenen3/glyphpad/internal/markup"
	"github.com/chenen3/glyphpad/internal/registry"
	"github.com/chenen3/glyphpad/internal/render"
	"github.com/chenen3/glyphpad/internal/scene"
	"github.com/chenen3/glyphpad/internal/syntax"
	"github.com/chenen3/glyphpad/internal/thumb"
	"github.com/chenen3/glyphpad/internal/token"
)

// ErrNoSceneTool is the link error when no scene worker is configured.
var ErrNoSceneTool = errors.New("no scene tool configured")

// Document is the live rich-text document.
type Document interface {
	Markup() string
	PlainText() string
	Caret() int
	SetCaret(off int)
	Apply(markup string) error
	Insert(text string)
}

// Panel is the side panel that shows one embedded object at a time, plus
// the line-number gutter.
type Panel interface {
	ShowTable(t *registry.Table)
	ShowImage(th thumb.Thumbnail)
	ShowLink(l *registry.Link)
	SetLineNumbers(lines []int)
}

// Options configure an Engine. Zero fields get defaults: the default keyword
// table and style, images left at their source, no scene tool.
type Options struct {
	Syntax *syntax.Table
	Style  render.Style
	Thumbs *thumb.Cache
	Scenes *scene.Worker
}

// Result describes one call to Pass.
type Result struct {
	Skipped bool
	Lines   []int
	Misses  []render.Miss
}

// Engine owns the registry of a document and re-renders it on demand.
type Engine struct {
	doc   Document
	panel Panel
	reg   *registry.Registry
	opts  Options
	sched *Scheduler

	enabled bool
	dirty   bool
	// markup of the document right after the last applied pass
	last string
}

var tracer = otel.Tracer("github.com/chenen3/glyphpad/internal/highlight")

// New returns an enabled engine that will render on its first pass.
func New(doc Document, panel Panel, reg *registry.Registry, opts Options) *Engine {
	if opts.Syntax == nil {
		opts.Syntax = syntax.Default()
	}
	if opts.Style == (render.Style{}) {
		opts.Style = render.DefaultStyle()
	}
	return &Engine{
		doc:     doc,
		panel:   panel,
		reg:     reg,
		opts:    opts,
		enabled: true,
		dirty:   true,
	}
}

// Attach makes MarkDirty notify s.
func (e *Engine) Attach(s *Scheduler) { e.sched = s }

// Registry returns the registry of embedded tables and links.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// MarkDirty records that the document was edited.
func (e *Engine) MarkDirty() {
	e.dirty = true
	if e.sched != nil {
		e.sched.Notify()
	}
}

// Dirty reports whether an edit is waiting for a pass.
func (e *Engine) Dirty() bool { return e.dirty }

// Enabled reports whether passes run.
func (e *Engine) Enabled() bool { return e.enabled }

// SetEnabled turns highlighting on or off. Turning it on schedules a pass.
func (e *Engine) SetEnabled(on bool) {
	e.enabled = on
	if on {
		e.last = ""
		e.MarkDirty()
	}
}

// Pass re-renders the document if it changed since the last pass. A
// malformed document aborts the pass and leaves everything as it was.
func (e *Engine) Pass(ctx context.Context) (Result, error) {
	if !e.enabled || !e.dirty {
		return Result{Skipped: true}, nil
	}
	raw := e.doc.Markup()
	if raw == e.last {
		e.dirty = false
		return Result{Skipped: true}, nil
	}

	_, span := tracer.Start(ctx, "highlight.pass")
	defer span.End()

	snap, err := markup.Parse(markup.Clean(raw))
	if err != nil {
		var merr *markup.MalformedError
		if errors.As(err, &merr) {
			log.Block(log.LevelError, log.CatRender, merr.Error(), merr.Dump)
		} else {
			log.ErrorErr(log.CatRender, "parsing document failed", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.dirty = false
		return Result{}, err
	}

	caret := e.doc.Caret()
	text := e.doc.PlainText()
	tokens := token.Tokenize(text, e.opts.Syntax)
	out := render.Build(tokens, &resolver{reg: e.reg, thumbs: e.opts.Thumbs, sources: snap.ImageSources()}, e.opts.Style)
	for _, m := range out.Misses {
		log.Warn(log.CatRender, "unresolved placeholder", "kind", m.Object.String(), "index", m.Index, "error", m.Err)
	}

	if err := e.doc.Apply(out.Markup); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("applying markup: %w", err)
	}
	e.last = e.doc.Markup()
	e.doc.SetCaret(caret)
	e.panel.SetLineNumbers(out.Lines)
	e.dirty = false

	span.SetAttributes(
		attribute.Int("highlight.tokens", len(tokens)),
		attribute.Int("highlight.lines", len(out.Lines)),
		attribute.Int("highlight.misses", len(out.Misses)),
	)
	log.Debug(log.CatRender, "pass applied", "tokens", len(tokens), "lines", len(out.Lines), "caret", caret)
	return Result{Lines: out.Lines, Misses: out.Misses}, nil
}

type resolver struct {
	reg     *registry.Registry
	thumbs  *thumb.Cache
	sources []string
}

func (r *resolver) Table(i int) (*registry.Table, error) { return r.reg.Table(i) }

func (r *resolver) Link(glyph rune, n int) (*registry.Link, error) { return r.reg.LinkByGlyph(glyph, n) }

func (r *resolver) Image(i int) (thumb.Thumbnail, error) {
	if i < 0 || i >= len(r.sources) {
		return thumb.Thumbnail{}, &registry.DesyncError{Kind: token.Image, Index: i, Len: len(r.sources)}
	}
	src := r.sources[i]
	if r.thumbs == nil {
		return thumb.Thumbnail{Source: src, Inline: src, Preview: src}, nil
	}
	th, err := r.thumbs.Resolve(src)
	if err != nil {
		return thumb.Thumbnail{Source: src}, err
	}
	return th, nil
}

// OnAnchorClicked shows the object behind href in the panel. It reports
// whether href referred to anything.
func (e *Engine) OnAnchorClicked(href string) bool {
	if i, ok := tableIndex(href); ok {
		t, err := e.reg.Table(i)
		if err != nil {
			log.Warn(log.CatRender, "clicked table is not registered", "href", href)
			return false
		}
		e.panel.ShowTable(t)
		return true
	}
	if id, ok := strings.CutPrefix(href, render.LinkPrefix); ok {
		l, found := e.reg.LinkByID(id)
		if !found {
			return false
		}
		e.panel.ShowLink(l)
		return true
	}
	if e.opts.Thumbs != nil {
		if th, ok := e.opts.Thumbs.Preview(href); ok {
			e.panel.ShowImage(th)
			return true
		}
	}
	return false
}

func tableIndex(href string) (int, bool) {
	if href == "" {
		return 0, false
	}
	for _, r := range href {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(href)
	return i, err == nil
}

// OnMouseOver returns the tooltip for the placeholder glyph under the
// pointer, if it has one.
func (e *Engine) OnMouseOver(href string, glyph rune) (string, bool) {
	switch {
	case glyph == token.TableGlyph:
		i, ok := tableIndex(href)
		if !ok {
			return "", false
		}
		t, err := e.reg.Table(i)
		if err != nil {
			return "", false
		}
		return t.Flatten(), true
	case token.IsLinkGlyph(glyph):
		id, ok := strings.CutPrefix(href, render.LinkPrefix)
		if !ok {
			return "", false
		}
		l, found := e.reg.LinkByID(id)
		if !found {
			return "", false
		}
		return LinkTooltip(l), true
	}
	return "", false
}

// LinkTooltip summarizes a link: its source and selected objects.
func LinkTooltip(l *registry.Link) string {
	sel := "none"
	if s := l.Selected(); len(s) > 0 {
		sel = strings.Join(s, ", ")
	}
	tip := fmt.Sprintf("%s | selected: %s", l.Source, sel)
	switch {
	case l.Err != nil:
		tip += " | error: " + l.Err.Error()
	case !l.Ready():
		tip += " | loading"
	}
	return tip
}

// OnTableDropped registers the table in fragment, inserts its placeholder
// at the caret and shows it.
func (e *Engine) OnTableDropped(fragment string) (*registry.Table, error) {
	t, err := registry.TableFromMarkup(fragment)
	if err != nil {
		return nil, fmt.Errorf("dropped table: %w", err)
	}
	e.reg.AddTable(t)
	e.doc.Insert(string(token.TableGlyph))
	e.panel.ShowTable(t)
	e.MarkDirty()
	return t, nil
}

// BeginLink registers a link to the scene at path and inserts its glyph at
// the caret. When the scene is not loaded yet, the returned channel delivers
// the tool result, which must be passed to CompleteLink on the owning
// goroutine. A nil channel means the link is already complete.
func (e *Engine) BeginLink(ctx context.Context, path string) (*registry.Link, <-chan scene.Result, error) {
	l, err := e.reg.AddLink(path)
	if err != nil {
		return nil, nil, err
	}
	e.doc.Insert(string(l.Glyph))
	e.MarkDirty()

	if e.opts.Scenes == nil {
		e.CompleteLink(l, scene.Result{Source: path, Err: ErrNoSceneTool})
		return l, nil, nil
	}
	if a, ok := e.opts.Scenes.Cached(path); ok {
		e.CompleteLink(l, scene.Result{Source: path, Artifact: a})
		return l, nil, nil
	}
	e.panel.ShowLink(l)
	return l, e.opts.Scenes.Submit(ctx, path), nil
}

// CompleteLink stores the outcome of loading l's scene and shows it.
func (e *Engine) CompleteLink(l *registry.Link, res scene.Result) {
	l.Artifact, l.Err = res.Artifact, res.Err
	if res.Err != nil {
		log.ErrorErr(log.CatScene, "scene load failed", res.Err, "source", l.Source)
	}
	e.panel.ShowLink(l)
}

// ToggleObject flips the selection of object name in the link with the
// given id and refreshes the panel.
func (e *Engine) ToggleObject(id, name string) (bool, error) {
	l, ok := e.reg.LinkByID(id)
	if !ok {
		return false, fmt.Errorf("no link %s", id)
	}
	if l.Artifact != nil {
		if _, known := l.Artifact.Summary.Objects[name]; !known {
			return false, fmt.Errorf("scene %s has no object %q", l.Source, name)
		}
	}
	on := l.Toggle(name)
	e.panel.ShowLink(l)
	return on, nil
}
