// Package thumb derives small copies of images embedded in a document.
//
// Each source image gets two derivatives in the cache directory: an inline
// thumbnail that fits 32x32 and replaces the image in the document, and a
// preview that fits 256x256 for the side panel. Once the inline file exists
// it is reused as is; a changed source is not detected.
package thumb

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/chenen3/glyphpad/internal/cachemanager"
	"github.com/chenen3/glyphpad/internal/log"
)

const (
	InlineSize  = 32
	PreviewSize = 256

	previewSuffix = ".preview.png"
)

// Thumbnail names the files for one embedded image.
type Thumbnail struct {
	Source  string
	Inline  string
	Preview string
}

// Cache resolves image sources to thumbnails stored under Dir.
type Cache struct {
	Dir string

	index     cachemanager.CacheManager[string, Thumbnail]
	generated atomic.Int64
}

// New returns a cache writing into dir.
func New(dir string) *Cache {
	return &Cache{
		Dir:   dir,
		index: cachemanager.NewInMemoryCacheManager[string, Thumbnail]("thumb", cachemanager.NoExpiration, 0),
	}
}

// Resolve returns the thumbnail for src, generating the derivatives on first
// use. A src that already lives under Dir is a derivative and passes through.
func (c *Cache) Resolve(src string) (Thumbnail, error) {
	if src == "" {
		return Thumbnail{}, errors.New("image has no source")
	}
	if c.owns(src) {
		t := Thumbnail{Source: src, Inline: src, Preview: src}
		if p := strings.TrimSuffix(src, ".png") + previewSuffix; p != src && exists(p) {
			t.Preview = p
		}
		return t, nil
	}

	base := filepath.Base(src)
	t := Thumbnail{
		Source:  src,
		Inline:  filepath.Join(c.Dir, base+".png"),
		Preview: filepath.Join(c.Dir, base+previewSuffix),
	}
	if cached, ok := c.index.Get(context.Background(), t.Inline); ok {
		return cached, nil
	}
	if exists(t.Inline) {
		c.index.Set(context.Background(), t.Inline, t, cachemanager.NoExpiration)
		return t, nil
	}

	if err := c.generate(t); err != nil {
		return Thumbnail{}, err
	}
	c.index.Set(context.Background(), t.Inline, t, cachemanager.NoExpiration)
	return t, nil
}

// Preview looks up a thumbnail by its inline path.
func (c *Cache) Preview(inline string) (Thumbnail, bool) {
	if t, ok := c.index.Get(context.Background(), inline); ok {
		return t, true
	}
	if c.owns(inline) && exists(inline) {
		t, err := c.Resolve(inline)
		return t, err == nil
	}
	return Thumbnail{}, false
}

// Generated returns how many sources have had derivatives written.
func (c *Cache) Generated() int { return int(c.generated.Load()) }

func (c *Cache) owns(path string) bool {
	rel, err := filepath.Rel(c.Dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func (c *Cache) generate(t Thumbnail) error {
	src, err := decode(t.Source)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("creating thumbnail dir: %w", err)
	}
	if err := writePNG(t.Preview, Fit(src, PreviewSize, PreviewSize)); err != nil {
		return err
	}
	if err := writePNG(t.Inline, Fit(src, InlineSize, InlineSize)); err != nil {
		return err
	}
	c.generated.Add(1)
	log.Debug(log.CatThumb, "thumbnail generated", "source", t.Source, "inline", t.Inline)
	return nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return img, nil
}

// Fit scales img down to fit within w x h, keeping its aspect ratio. Images
// that already fit are returned unscaled.
func Fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw <= w && sh <= h {
		return img
	}
	dw, dh := w, sh*w/sw
	if dh > h {
		dw, dh = sw*h/sh, h
	}
	dw, dh = max(dw, 1), max(dh, 1)
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating thumbnail: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	return f.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
