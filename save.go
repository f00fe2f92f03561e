package main

import (
	"github.com/gdamore/tcell/v2"
)

// saveBar prompts for a file name before saving, or asks whether to save
// before quitting.
type saveBar struct {
	baseView
	pad      *pad
	filename []rune
	quit     bool
}

func newSaveBar(p *pad, quit bool) *saveBar {
	b := &saveBar{pad: p, quit: quit}
	b.height = 1
	b.fixedSize = true
	return b
}

func (s *saveBar) prompt() string {
	prompt := "save changes?"
	if s.pad.filename == "" {
		prompt = "save as: "
	}
	if s.quit {
		prompt = "quit and " + prompt
	}
	return prompt + string(s.filename)
}

func (s *saveBar) Draw() {
	style := tcell.StyleDefault.Background(tcell.ColorLightYellow).Foreground(tcell.ColorBlack)
	s.fill(style)

	x := s.text(s.x, s.y, s.prompt(), style)
	if s.focused {
		screen.ShowCursor(x, s.y)
	}

	keymap := "[enter] save | [esc] cancel"
	if s.quit {
		keymap += " | [ctrl+q] discard"
	}
	drawTextRight(x+1, s.y, s.right(), keymap, style)
}

func (s *saveBar) HandleKey(k *tcell.EventKey) {
	switch k.Key() {
	case tcell.KeyRune:
		if s.pad.filename != "" {
			return
		}
		s.filename = append(s.filename, k.Rune())
	case tcell.KeyEnter:
		filename := s.pad.filename
		if filename == "" {
			filename = string(s.filename)
		}
		if filename == "" {
			s.pad.status.Alert("empty filename")
			return
		}
		if err := s.pad.write(filename); err != nil {
			return
		}
		if s.quit {
			s.pad.app.Close()
			return
		}
		s.pad.dismissPrompt()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if s.pad.filename != "" || len(s.filename) == 0 {
			return
		}
		s.filename = s.filename[:len(s.filename)-1]
	case tcell.KeyESC:
		s.pad.dismissPrompt()
	}
}
