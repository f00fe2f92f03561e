package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/chenen3/glyphpad/internal/highlight"
	"github.com/chenen3/glyphpad/internal/registry"
	"github.com/chenen3/glyphpad/internal/richdoc"
	"github.com/chenen3/glyphpad/internal/thumb"
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Highlight a document once and print the resulting markup",
	Long: `render runs one highlight pass over a document without opening the editor.
The markup goes to standard output, or to the file given with --output.
With --diff a diff against the markup before the pass is printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "write the markup to this file")
	renderCmd.Flags().BoolP("diff", "d", false, "print a diff against the document before the pass")
	rootCmd.AddCommand(renderCmd)
}

// headlessPanel discards what a pass would show when no terminal is
// attached.
type headlessPanel struct{}

func (headlessPanel) ShowTable(*registry.Table)  {}
func (headlessPanel) ShowImage(thumb.Thumbnail)  {}
func (headlessPanel) ShowLink(*registry.Link)    {}
func (headlessPanel) SetLineNumbers(lines []int) {}

// rendering is the outcome of one pass over a file.
type rendering struct {
	Before string
	After  string
	Result highlight.Result
}

func renderFile(ctx context.Context, path string) (rendering, error) {
	doc, err := richdoc.Load(path)
	if err != nil {
		return rendering{}, err
	}
	before := doc.Markup()
	res, err := newEngine(doc, headlessPanel{}, nil).Pass(ctx)
	if err != nil {
		return rendering{}, fmt.Errorf("rendering %s: %w", path, err)
	}
	return rendering{Before: before, After: doc.Markup(), Result: res}, nil
}

// writeRendering prints r to out, or to output when set.
func writeRendering(out, errOut io.Writer, r rendering, output string, diff bool) error {
	for _, m := range r.Result.Misses {
		fmt.Fprintf(errOut, "warning: %s placeholder %d: %v\n", m.Object, m.Index, m.Err)
	}
	if diff {
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(r.Before, r.After, false)
		diffs = dmp.DiffCleanupSemantic(diffs)
		_, err := fmt.Fprintln(out, dmp.DiffPrettyText(diffs))
		return err
	}
	if output != "" {
		if err := os.WriteFile(output, []byte(r.After), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		return nil
	}
	_, err := fmt.Fprintln(out, r.After)
	return err
}

func runRender(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	output, _ := cmd.Flags().GetString("output")
	diff, _ := cmd.Flags().GetBool("diff")

	r, err := renderFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeRendering(cmd.OutOrStdout(), cmd.ErrOrStderr(), r, output, diff)
}
