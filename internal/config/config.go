// Package config provides configuration types, defaults, and persistence for glyphpad.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chenen3/glyphpad/internal/log"
	"github.com/chenen3/glyphpad/internal/render"
	"github.com/chenen3/glyphpad/internal/scene"
	"github.com/chenen3/glyphpad/internal/syntax"
	"github.com/chenen3/glyphpad/internal/tracing"
)

// Config is the whole configuration file.
type Config struct {
	CacheDir     string         `mapstructure:"cache_dir" yaml:"cache_dir"` // thumbnails and scene artifacts
	Debounce     time.Duration  `mapstructure:"debounce" yaml:"debounce"`
	Highlight    bool           `mapstructure:"highlight" yaml:"highlight"`
	Colors       ColorsConfig   `mapstructure:"colors" yaml:"colors"`
	LinkFontSize string         `mapstructure:"link_font_size" yaml:"link_font_size"`
	Scene        SceneConfig    `mapstructure:"scene" yaml:"scene"`
	Syntax       SyntaxConfig   `mapstructure:"syntax" yaml:"syntax"`
	Debug        bool           `mapstructure:"debug" yaml:"debug"`
	LogFile      string         `mapstructure:"log_file" yaml:"log_file"`
	Tracing      tracing.Config `mapstructure:"tracing" yaml:"tracing"`
}

// ColorsConfig names the colors of anchors and bracket highlights.
type ColorsConfig struct {
	Table   string `mapstructure:"table" yaml:"table"`
	Link    string `mapstructure:"link" yaml:"link"`
	Brace   string `mapstructure:"brace" yaml:"brace"`
	Bracket string `mapstructure:"bracket" yaml:"bracket"`
	Paren   string `mapstructure:"paren" yaml:"paren"`
	Missing string `mapstructure:"missing" yaml:"missing"` // unresolved placeholders
}

// SceneConfig describes the external scene tool. Arguments may use {src}
// and {out}.
type SceneConfig struct {
	Command     string   `mapstructure:"command" yaml:"command"`
	SummaryArgs []string `mapstructure:"summary_args" yaml:"summary_args"`
	PreviewArgs []string `mapstructure:"preview_args" yaml:"preview_args"`
	// Extensions are the dropped files treated as scenes.
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// SyntaxConfig adds keywords on top of the built-in sets.
type SyntaxConfig struct {
	Extra map[string]string `mapstructure:"extra" yaml:"extra"` // keyword -> color
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	style := render.DefaultStyle()
	return Config{
		CacheDir:  filepath.Join(os.TempDir(), "glyphpad"),
		Debounce:  500 * time.Millisecond,
		Highlight: true,
		Colors: ColorsConfig{
			Table:   style.Table,
			Link:    style.Link,
			Brace:   style.Brace,
			Bracket: style.Bracket,
			Paren:   style.Paren,
			Missing: style.Missing,
		},
		LinkFontSize: style.LinkFontSize,
		Scene: SceneConfig{
			Command: "blender",
			SummaryArgs: []string{"--background", "{src}", "--python-expr",
				"import bpy, json; json.dump({o.name: {'parent': o.parent.name if o.parent else '', " +
					"'location': list(o.location), 'rotation': list(o.rotation_euler), 'scale': list(o.scale), " +
					"'materials': [s.material.name for s in o.material_slots if s.material]} " +
					"for o in bpy.data.objects}, open('{out}', 'w'))"},
			PreviewArgs: []string{"--background", "{src}", "--python-expr",
				"import bpy; s = bpy.context.scene; s.render.resolution_x = s.render.resolution_y = 256; " +
					"s.render.resolution_percentage = 100; s.render.image_settings.file_format = 'PNG'; " +
					"s.render.filepath = '{out}'; bpy.ops.render.render(write_still=True)"},
			Extensions: []string{".blend"},
		},
		LogFile: log.DefaultPath,
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks values that would break a pass at run time.
func (c Config) Validate() error {
	var errs []error
	if c.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("debounce must be positive, got %s", c.Debounce))
	}
	if c.CacheDir == "" {
		errs = append(errs, errors.New("cache_dir is required"))
	}
	colors := map[string]string{
		"table": c.Colors.Table, "link": c.Colors.Link, "brace": c.Colors.Brace,
		"bracket": c.Colors.Bracket, "paren": c.Colors.Paren, "missing": c.Colors.Missing,
	}
	for _, name := range []string{"table", "link", "brace", "bracket", "paren", "missing"} {
		if colors[name] == "" {
			errs = append(errs, fmt.Errorf("colors.%s is empty", name))
		}
	}
	for word, color := range c.Syntax.Extra {
		if color == "" {
			errs = append(errs, fmt.Errorf("syntax.extra.%s has no color", word))
		}
	}
	if c.Tracing.Enabled && !slices.Contains(tracing.Exporters, c.Tracing.Exporter) {
		errs = append(errs, fmt.Errorf("tracing.exporter must be one of %v, got %q", tracing.Exporters, c.Tracing.Exporter))
	}
	return errors.Join(errs...)
}

// Style returns the render style for the configured colors.
func (c Config) Style() render.Style {
	return render.Style{
		Table:        c.Colors.Table,
		Link:         c.Colors.Link,
		LinkFontSize: c.LinkFontSize,
		Brace:        c.Colors.Brace,
		Bracket:      c.Colors.Bracket,
		Paren:        c.Colors.Paren,
		Missing:      c.Colors.Missing,
	}
}

// SyntaxTable returns the keyword table with syntax.extra merged last.
func (c Config) SyntaxTable() *syntax.Table {
	return syntax.WithExtra(c.Syntax.Extra)
}

// SceneTool returns the scene tool writing its artifacts under the cache
// directory.
func (c Config) SceneTool() *scene.Tool {
	return &scene.Tool{
		Command:     c.Scene.Command,
		SummaryArgs: c.Scene.SummaryArgs,
		PreviewArgs: c.Scene.PreviewArgs,
		ScratchDir:  filepath.Join(c.CacheDir, "scenes"),
	}
}

// ThumbDir is where image thumbnails go.
func (c Config) ThumbDir() string { return filepath.Join(c.CacheDir, "thumbs") }

// IsScene reports whether path has one of the scene extensions.
func (c Config) IsScene(path string) bool {
	return slices.Contains(c.Scene.Extensions, filepath.Ext(path))
}

const defaultHeader = `# glyphpad configuration
#
# Colors are names understood by both the terminal and HTML (cyan, orange,
# purple, ...). Scene tool arguments may use {src} for the scene file and
# {out} for the file the tool must write.

`

// DefaultConfigTemplate renders Defaults as YAML.
func DefaultConfigTemplate() (string, error) {
	var buf bytes.Buffer
	buf.WriteString(defaultHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Defaults()); err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}
	_ = enc.Close()
	return buf.String(), nil
}

// WriteDefaultConfig writes the default configuration to configPath.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	content, err := DefaultConfigTemplate()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
