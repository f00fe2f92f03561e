package main

import (
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// lines moved by one wheel step
const scrollLines = 3

var screen tcell.Screen

// Application framework
type App struct {
	body View

	focus  View
	done   chan struct{}
	close  sync.Once
	mouseX int
	mouseY int
	keymap map[tcell.Key]func(*tcell.EventKey)

	pasting bool
	pasted  strings.Builder

	// BeforeKey runs before every key press is dispatched.
	BeforeKey func()
	// OnPaste receives the text of a bracketed paste.
	OnPaste func(text string)
	// OnHover is called on mouse motion and reports whether to redraw.
	OnHover func(x, y int) bool
	// OnEvent receives events posted with [tcell.Screen.PostEvent] and
	// reports whether to redraw.
	OnEvent func(tcell.Event) bool
}

func NewApp() *App {
	return &App{
		done:   make(chan struct{}),
		keymap: make(map[tcell.Key]func(*tcell.EventKey)),
	}
}

func (a *App) SetBody(v View) {
	a.body = v
}

func (a *App) Redraw() {
	a.body.Draw()
}

// Close makes Run return. It is safe to call more than once.
func (a *App) Close() {
	a.close.Do(func() { close(a.done) })
}

// Done is closed once Close has been called.
func (a *App) Done() <-chan struct{} { return a.done }

func (a *App) Focus(v View) {
	if a.focus == v {
		return
	}

	if a.focus != nil {
		a.focus.OnBlur()
	}
	a.focus = v
	v.OnFocus()
}

func (a *App) GetHover() View {
	return getHover(a.body, a.mouseX, a.mouseY)
}

func getHover(view View, x, y int) View {
	if !inView(view, x, y) {
		return nil
	}

	var children []View
	switch s := view.(type) {
	case *vstack:
		children = s.Views
	case *hstack:
		children = s.Views
	case *statusView:
		children = []View{s.View}
	}
	for _, v := range children {
		if hover := getHover(v, x, y); hover != nil {
			return hover
		}
	}
	return view
}

func (a *App) Handle(key tcell.Key, f func(*tcell.EventKey)) {
	if _, ok := a.keymap[key]; ok {
		panic("repeated key handler")
	}
	a.keymap[key] = f
}

func (a *App) resize() {
	width, height := screen.Size()
	a.body.SetPos(0, 0, width, height)
	a.body.Draw()
}

// Run will not return until Close
func (a *App) Run() {
	a.resize()
	screen.Show()
	for {
		select {
		case <-a.done:
			return
		default:
		}

		ev := screen.PollEvent()
		if ev == nil {
			// screen finalized
			return
		}
		if !a.dispatch(ev) {
			continue
		}
		a.body.Draw()
		screen.Show()
	}
}

// dispatch handles one event and reports whether the screen needs to be
// redrawn.
func (a *App) dispatch(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.resize()
		screen.Sync()
		return false
	case *tcell.EventPaste:
		if ev.Start() {
			a.pasting = true
			a.pasted.Reset()
			return false
		}
		a.pasting = false
		if a.OnPaste != nil {
			a.OnPaste(a.pasted.String())
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		a.mouseX = x
		a.mouseY = y
		view := a.GetHover()
		switch ev.Buttons() {
		case tcell.Button1:
			if view == nil {
				return false
			}
			a.Focus(view)
			view.OnClick(x, y)
		case tcell.WheelUp:
			if view == nil {
				return false
			}
			view.ScrollUp(scrollLines)
		case tcell.WheelDown:
			if view == nil {
				return false
			}
			view.ScrollDown(scrollLines)
		default:
			// do not render on mouse motion unless asked to
			return a.OnHover != nil && a.OnHover(x, y)
		}
	case *tcell.EventKey:
		if a.pasting {
			switch ev.Key() {
			case tcell.KeyRune:
				a.pasted.WriteRune(ev.Rune())
			case tcell.KeyEnter:
				a.pasted.WriteByte('\n')
			case tcell.KeyTab:
				a.pasted.WriteByte('\t')
			}
			return false
		}
		if a.BeforeKey != nil {
			a.BeforeKey()
		}
		if f, ok := a.keymap[ev.Key()]; ok {
			f(ev)
		} else if a.focus != nil {
			a.focus.HandleKey(ev)
		}
	default:
		return a.OnEvent != nil && a.OnEvent(ev)
	}
	return true
}
