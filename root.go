package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chenen3/glyphpad/internal/config"
	"github.com/chenen3/glyphpad/internal/highlight"
	"github.com/chenen3/glyphpad/internal/log"
	"github.com/chenen3/glyphpad/internal/registry"
	"github.com/chenen3/glyphpad/internal/richdoc"
	"github.com/chenen3/glyphpad/internal/scene"
	"github.com/chenen3/glyphpad/internal/thumb"
	"github.com/chenen3/glyphpad/internal/tracing"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "glyphpad [file]",
	Short: "A terminal rich-text editor that highlights the code typed into it",
	Long: `glyphpad edits rich text in the terminal. Keywords, brackets and braces are
colored as you type, and tables, images and linked scene files can be
embedded by pasting them.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runEdit,
}

var editCmd = &cobra.Command{
	Use:   "edit [file]",
	Short: "Open a document in the terminal editor",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEdit,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/glyphpad/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write a debug log to the configured log file")
	rootCmd.PersistentFlags().Bool("no-highlight", false,
		"start with highlighting turned off")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	rootCmd.AddCommand(editCmd)
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("cache_dir", defaults.CacheDir)
	viper.SetDefault("debounce", defaults.Debounce)
	viper.SetDefault("highlight", defaults.Highlight)
	viper.SetDefault("colors.table", defaults.Colors.Table)
	viper.SetDefault("colors.link", defaults.Colors.Link)
	viper.SetDefault("colors.brace", defaults.Colors.Brace)
	viper.SetDefault("colors.bracket", defaults.Colors.Bracket)
	viper.SetDefault("colors.paren", defaults.Colors.Paren)
	viper.SetDefault("colors.missing", defaults.Colors.Missing)
	viper.SetDefault("link_font_size", defaults.LinkFontSize)
	viper.SetDefault("scene.command", defaults.Scene.Command)
	viper.SetDefault("scene.summary_args", defaults.Scene.SummaryArgs)
	viper.SetDefault("scene.preview_args", defaults.Scene.PreviewArgs)
	viper.SetDefault("scene.extensions", defaults.Scene.Extensions)
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	// GLYPHPAD_DEBUG=1 and friends
	viper.SetEnvPrefix("glyphpad")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .glyphpad/config.yaml (current directory)
		// 2. ~/.config/glyphpad/config.yaml (user config)
		if _, err := os.Stat(".glyphpad/config.yaml"); err == nil {
			viper.SetConfigFile(".glyphpad/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "glyphpad"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default at .glyphpad/config.yaml
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := ".glyphpad/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// session holds what every command sets up before doing its work: the
// validated configuration, the debug log and the tracer provider.
type session struct {
	tracer   *tracing.Provider
	closeLog func()
}

func openSession() (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &session{closeLog: func() {}}
	if cfg.Debug {
		closeLog, err := log.Init(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		s.closeLog = closeLog
		log.Info(log.CatConfig, "config loaded", "file", viper.ConfigFileUsed())
	}
	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		s.closeLog()
		return nil, fmt.Errorf("starting tracing: %w", err)
	}
	s.tracer = tp
	return s, nil
}

func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.tracer.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatConfig, "flushing traces failed", err)
	}
	s.closeLog()
}

// newSceneWorker returns nil when no scene tool is configured.
func newSceneWorker() *scene.Worker {
	if cfg.Scene.Command == "" {
		return nil
	}
	return scene.NewWorker(scene.NewLoader(cfg.SceneTool()))
}

func newEngine(doc highlight.Document, panel highlight.Panel, worker *scene.Worker) *highlight.Engine {
	return highlight.New(doc, panel, registry.New(), highlight.Options{
		Syntax: cfg.SyntaxTable(),
		Style:  cfg.Style(),
		Thumbs: thumb.New(cfg.ThumbDir()),
		Scenes: worker,
	})
}

// loadDocument opens path, or starts an empty document when it does not
// exist yet.
func loadDocument(path string) (*richdoc.Document, error) {
	if path == "" {
		return richdoc.New(), nil
	}
	doc, err := richdoc.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return richdoc.New(), nil
	}
	return doc, err
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if off, _ := cmd.Flags().GetBool("no-highlight"); off {
		cfg.Highlight = false
	}

	var filename string
	if len(args) == 1 {
		filename = args[0]
	}
	doc, err := loadDocument(filename)
	if err != nil {
		return err
	}

	tc, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := tc.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	tc.SetStyle(tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset))
	tc.EnableMouse()
	tc.EnablePaste()
	tc.SetCursorStyle(tcell.CursorStyleDefault)
	screen = tc
	defer tc.Fini()

	newPad(cmd.Context(), doc, filename).Run()
	return nil
}
