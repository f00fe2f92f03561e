package main

import (
	"net/url"
	"os"
	"strings"

	"github.com/chenen3/glyphpad/internal/richdoc"
)

// dropKind is what a pasted payload is treated as.
type dropKind int

const (
	dropText dropKind = iota
	dropImage
	dropScene
	dropTable
)

func (k dropKind) String() string {
	switch k {
	case dropImage:
		return "image"
	case dropScene:
		return "scene"
	case dropTable:
		return "table"
	}
	return "text"
}

// classifyDrop decides how to embed a pasted payload. Terminals paste a
// dragged file as its path, sometimes quoted or as a file URL, so a single
// existing path with an image or scene extension becomes that object. A
// markup fragment with a table becomes a table; anything else is text.
func classifyDrop(text string, isScene func(path string) bool) (dropKind, string) {
	if strings.Contains(strings.ToLower(text), "<table") {
		return dropTable, text
	}
	if path, ok := dropPath(text); ok {
		switch {
		case richdoc.IsImage(path):
			return dropImage, path
		case isScene(path):
			return dropScene, path
		}
	}
	return dropText, text
}

func dropPath(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" || strings.ContainsRune(s, '\n') {
		return "", false
	}
	s = strings.Trim(s, `'"`)
	if u, err := url.Parse(s); err == nil && u.Scheme == "file" {
		s = u.Path
	}
	// some terminals escape spaces in dropped paths
	s = strings.ReplaceAll(s, `\ `, " ")
	info, err := os.Stat(s)
	if err != nil || info.IsDir() {
		return "", false
	}
	return s, true
}
