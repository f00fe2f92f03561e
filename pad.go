package main

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/chenen3/glyphpad/internal/highlight"
	"github.com/chenen3/glyphpad/internal/log"
	"github.com/chenen3/glyphpad/internal/registry"
	"github.com/chenen3/glyphpad/internal/render"
	"github.com/chenen3/glyphpad/internal/richdoc"
	"github.com/chenen3/glyphpad/internal/scene"
)

// passEvent asks the event loop to run a highlight pass.
type passEvent struct {
	tcell.EventTime
}

// sceneEvent brings a scene load result back to the event loop.
type sceneEvent struct {
	tcell.EventTime
	link *registry.Link
	res  scene.Result
}

// pad is the editor application: one document, its highlight engine and
// the views around it. Everything but the scheduler and the scene worker
// runs on the event loop goroutine.
type pad struct {
	ctx      context.Context
	app      *App
	doc      *richdoc.Document
	engine   *highlight.Engine
	sched    *highlight.Scheduler
	worker   *scene.Worker
	filename string
	modified bool

	title  *titleBar
	editor *editor
	panel  *sidePanel
	status *statusBar
	bottom *statusView
	// prompt is the bar shown instead of the status bar, if any
	prompt View
}

func newPad(ctx context.Context, doc *richdoc.Document, filename string) *pad {
	p := &pad{
		ctx:      ctx,
		app:      NewApp(),
		doc:      doc,
		filename: filename,
	}

	p.title = newTitleBar(filename)
	p.editor = newEditor(doc)
	p.panel = newSidePanel(p.editor)
	p.status = newStatusBar(p.editor)
	p.bottom = newStatusView(p.status)

	p.worker = newSceneWorker()
	p.engine = newEngine(doc, p.panel, p.worker)
	p.engine.SetEnabled(cfg.Highlight)
	p.title.highlight = cfg.Highlight
	p.sched = highlight.NewScheduler(cfg.Debounce, func() { p.post(&passEvent{}) })
	p.engine.Attach(p.sched)
	p.editor.SetLineNumbers(render.LineNumbers(doc.PlainText()))

	p.editor.OnEdit = p.edited
	p.editor.OnAnchor = func(href string) {
		if !p.engine.OnAnchorClicked(href) {
			log.Debug(log.CatUI, "anchor not resolved", "href", href)
		}
	}
	p.panel.Toggle = func(id, object string) {
		if _, err := p.engine.ToggleObject(id, object); err != nil {
			p.status.Alert(err.Error())
		}
	}
	if cfg.Scene.Command != "" {
		p.panel.Open = p.openScene
	}

	p.app.SetBody(VStack(p.title, HStack(p.editor, p.panel), p.bottom))
	p.app.Focus(p.editor)
	p.app.BeforeKey = func() { p.status.Alert("") }
	p.app.OnPaste = p.drop
	p.app.OnHover = p.hover
	p.app.OnEvent = p.handleEvent
	p.app.Handle(tcell.KeyCtrlS, func(*tcell.EventKey) { p.save() })
	p.app.Handle(tcell.KeyCtrlQ, func(*tcell.EventKey) { p.quit() })
	p.app.Handle(tcell.KeyCtrlT, func(*tcell.EventKey) { p.toggleHighlight() })
	p.app.Handle(tcell.KeyCtrlF, func(*tcell.EventKey) { p.showPrompt(newFindBar(p)) })
	p.app.Handle(tcell.KeyCtrlG, func(*tcell.EventKey) { p.showPrompt(newGotoBar(p)) })
	return p
}

// Run shows the editor until it is closed.
func (p *pad) Run() {
	p.sched.Start()
	defer p.sched.Stop()
	if p.worker != nil {
		defer p.worker.Stop()
	}
	// first pass colors a freshly opened document
	p.engine.MarkDirty()
	p.app.Run()
}

// post hands ev to the event loop. It may be called from any goroutine.
func (p *pad) post(ev tcell.Event) {
	for {
		err := screen.PostEvent(ev)
		if err == nil {
			return
		}
		select {
		case <-p.app.Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (p *pad) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *passEvent:
		p.pass()
		return true
	case *sceneEvent:
		p.engine.CompleteLink(ev.link, ev.res)
		return true
	}
	return false
}

func (p *pad) pass() {
	res, err := p.engine.Pass(p.ctx)
	if err != nil {
		p.status.Alert(fmt.Sprintf("highlight failed: %v", err))
		return
	}
	if len(res.Misses) > 0 {
		p.status.Alert(fmt.Sprintf("%d placeholders have no object", len(res.Misses)))
	}
}

func (p *pad) edited() {
	p.modified = true
	p.title.modified = true
	p.engine.MarkDirty()
	if !p.engine.Enabled() {
		p.editor.SetLineNumbers(render.LineNumbers(p.doc.PlainText()))
	}
}

func (p *pad) hover(x, y int) bool {
	var tip string
	if c, ok := p.editor.CellAt(x, y); ok && c.Href != "" {
		tip, _ = p.engine.OnMouseOver(c.Href, c.R)
	}
	return p.status.SetTooltip(tip)
}

func (p *pad) drop(text string) {
	kind, payload := classifyDrop(text, cfg.IsScene)
	log.Debug(log.CatUI, "drop", "kind", kind.String(), "size", len(text))
	switch kind {
	case dropTable:
		if _, err := p.engine.OnTableDropped(payload); err != nil {
			p.status.Alert(err.Error())
			return
		}
	case dropImage:
		p.doc.InsertImage(payload)
	case dropScene:
		if err := p.link(payload); err != nil {
			p.status.Alert(err.Error())
			return
		}
	default:
		p.doc.Insert(payload)
	}
	p.editor.edited()
}

// link embeds the scene at path. The scene is loaded in the background
// and completed on the event loop.
func (p *pad) link(path string) error {
	l, results, err := p.engine.BeginLink(p.ctx, path)
	if err != nil {
		return err
	}
	if results != nil {
		go func() {
			res := <-results
			p.post(&sceneEvent{link: l, res: res})
		}()
	}
	return nil
}

func (p *pad) openScene(src string) {
	cmd := exec.Command(cfg.Scene.Command, src) //nolint:gosec // G204: command comes from user config
	if err := cmd.Start(); err != nil {
		p.status.Alert(fmt.Sprintf("opening %s: %v", src, err))
		return
	}
	go func() { _ = cmd.Wait() }()
}

func (p *pad) toggleHighlight() {
	p.engine.SetEnabled(!p.engine.Enabled())
	p.title.highlight = p.engine.Enabled()
	if !p.engine.Enabled() {
		p.editor.SetLineNumbers(render.LineNumbers(p.doc.PlainText()))
	}
}

// write saves the document to filename. A failure is shown in the status
// bar.
func (p *pad) write(filename string) error {
	if err := p.doc.Save(filename); err != nil {
		log.ErrorErr(log.CatUI, "save failed", err, "file", filename)
		p.dismissPrompt()
		p.status.Alert(fmt.Sprintf("saving %s: %v", filename, err))
		return err
	}
	p.filename = filename
	p.modified = false
	p.title.name = filename
	p.title.modified = false
	return nil
}

func (p *pad) showPrompt(v View) {
	p.prompt = v
	p.bottom.Set(v)
	p.app.Focus(v)
}

func (p *pad) dismissPrompt() {
	p.prompt = nil
	p.bottom.Set(p.status)
	p.app.Focus(p.editor)
}

func (p *pad) save() {
	if p.filename == "" {
		p.showPrompt(newSaveBar(p, false))
		return
	}
	_ = p.write(p.filename)
}

func (p *pad) quit() {
	if sb, ok := p.prompt.(*saveBar); ok && sb.quit || !p.modified {
		p.app.Close()
		return
	}
	p.showPrompt(newSaveBar(p, true))
}
