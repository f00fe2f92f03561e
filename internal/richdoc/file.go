package richdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// HTMLExtensions are saved as markup; everything else as plain text.
	HTMLExtensions = []string{".htm", ".html"}
	// ImageExtensions are the files a drop inserts as images.
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}
)

// IsHTML reports whether path has an HTML extension.
func IsHTML(path string) bool {
	return slices.Contains(HTMLExtensions, strings.ToLower(filepath.Ext(path)))
}

// IsImage reports whether path has an image extension.
func IsImage(path string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// Load reads path. HTML files, and other files whose content looks like
// markup, are parsed as markup; anything else is plain text.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if !IsHTML(path) && !looksLikeMarkup(text) {
		return FromText(text), nil
	}
	d := New()
	if err := d.SetMarkup(text); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return d, nil
}

func looksLikeMarkup(text string) bool {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "<") {
		return false
	}
	head := strings.ToLower(text[:min(len(text), 64)])
	for _, tag := range []string{"<!doctype", "<html", "<body", "<p", "<head"} {
		if strings.HasPrefix(head, tag) {
			return true
		}
	}
	return false
}

// Save writes d to path, as markup for HTML extensions and as plain text
// otherwise. In plain text an image is saved as its placeholder glyph.
func (d *Document) Save(path string) error {
	content := d.PlainText()
	if IsHTML(path) {
		content = d.Markup()
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
