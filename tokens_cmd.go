package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chenen3/glyphpad/internal/syntax"
	"github.com/chenen3/glyphpad/internal/token"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print the tokens of a document",
	Long: `tokens splits the text of a document the way the highlighter does and
prints one token per line, keywords in their highlight color.`,
	Args: cobra.ExactArgs(1),
	RunE: runTokens,
}

func init() {
	tokensCmd.Flags().Bool("all", false, "also print whitespace and newline tokens")
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")
	tokens := token.Tokenize(doc.PlainText(), cfg.SyntaxTable())
	return printTokens(cmd.OutOrStdout(), tokens, all)
}

// lipglossColor converts a color name to the hex form lipgloss expects.
func lipglossColor(c syntax.Color) lipgloss.Color {
	hex := termColor(string(c)).Hex()
	if hex < 0 {
		return lipgloss.Color(string(c))
	}
	return lipgloss.Color(fmt.Sprintf("#%06x", hex))
}

// printTokens writes one line per token: its offset in runes, kind and
// text. Color is only emitted when w is a terminal.
func printTokens(w io.Writer, tokens []token.Token, all bool) error {
	r := lipgloss.NewRenderer(w)
	dim := r.NewStyle().Faint(true)
	off := 0
	for _, t := range tokens {
		start := off
		off += len([]rune(t.Text))
		if !all && (t.Kind == token.Whitespace || t.Kind == token.Newline) {
			continue
		}

		text := fmt.Sprintf("%q", t.Text)
		detail := ""
		switch t.Kind {
		case token.Keyword:
			text = r.NewStyle().Foreground(lipglossColor(t.Color)).Bold(true).Render(text)
			detail = " " + string(t.Color)
		case token.Object:
			detail = fmt.Sprintf(" %s #%d", t.Object, t.Index)
		}
		kind := t.Kind.String()
		gap := strings.Repeat(" ", max(8-len(kind), 0))
		if _, err := fmt.Fprintf(w, "%5d %s%s %s%s\n", start, dim.Render(kind), gap, text, detail); err != nil {
			return err
		}
	}
	return nil
}
