package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chenen3/glyphpad/internal/log"
	"github.com/chenen3/glyphpad/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Highlight a document again every time it changes",
	Long: `watch renders a document like the render command, then again after each
change to the file, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringP("output", "o", "", "write the markup to this file")
	watchCmd.Flags().BoolP("diff", "d", false, "print a diff against the document before each pass")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	diff, _ := cmd.Flags().GetBool("diff")
	if output == path {
		return fmt.Errorf("output %s is the watched file", output)
	}

	w, err := watcher.New(watcher.Config{Path: path, DebounceDur: cfg.Debounce})
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return watchLoop(ctx, path, changes, func(r rendering) error {
		return writeRendering(cmd.OutOrStdout(), cmd.ErrOrStderr(), r, output, diff)
	}, cmd.ErrOrStderr())
}

// watchLoop renders path once and then after every change until ctx is
// done. A document that fails to render is reported and skipped.
func watchLoop(ctx context.Context, path string, changes <-chan struct{}, emit func(rendering) error, errOut io.Writer) error {
	render := func() error {
		r, err := renderFile(ctx, path)
		if err != nil {
			log.ErrorErr(log.CatWatcher, "render failed", err, "file", path)
			fmt.Fprintf(errOut, "error: %v\n", err)
			return nil
		}
		return emit(r)
	}

	if err := render(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			log.Debug(log.CatWatcher, "document changed", "file", path)
			if err := render(); err != nil {
				return err
			}
		}
	}
}
