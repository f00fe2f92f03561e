package main

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// HTML color names that tcell knows under another name.
var colorAliases = map[string]tcell.Color{
	"cyan":    tcell.ColorAqua,
	"magenta": tcell.ColorFuchsia,
}

// termColor maps a document color name, or #rrggbb, to a terminal color.
// Unknown names give tcell.ColorDefault.
func termColor(name string) tcell.Color {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := colorAliases[name]; ok {
		return c
	}
	return tcell.GetColor(name)
}
