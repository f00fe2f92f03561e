package main

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/chenen3/glyphpad/internal/highlight"
	"github.com/chenen3/glyphpad/internal/registry"
	"github.com/chenen3/glyphpad/internal/thumb"
)

const panelWidth = 40

type panelRow struct {
	text  string
	style tcell.Style
	// object is the scene object a click on the row toggles.
	object string
	action func()
}

// sidePanel shows the embedded object that was last clicked or dropped.
// It also forwards line numbers to the editor gutter so that the pair
// satisfies highlight.Panel.
type sidePanel struct {
	baseView
	editor *editor
	style  tcell.Style

	title string
	rows  []panelRow
	link  *registry.Link

	// Toggle flips a scene object of the shown link.
	Toggle func(linkID, object string)
	// Open starts the external tool on a scene source.
	Open func(src string)
}

var _ highlight.Panel = (*sidePanel)(nil)

func newSidePanel(e *editor) *sidePanel {
	p := &sidePanel{
		editor: e,
		style:  tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset),
		title:  "nothing selected",
	}
	p.width = panelWidth
	p.fixedSize = true
	return p
}

func (p *sidePanel) SetLineNumbers(lines []int) { p.editor.SetLineNumbers(lines) }

func (p *sidePanel) ShowTable(t *registry.Table) {
	p.link = nil
	p.title = fmt.Sprintf("table %dx%d", t.Rows(), t.Cols())
	p.rows = nil
	for _, line := range tableGrid(t.Cells) {
		p.rows = append(p.rows, panelRow{text: line, style: p.style})
	}
	p.rows = append(p.rows, panelRow{})
	p.rows = append(p.rows, wrapRows(t.Flatten(), p.style.Foreground(tcell.ColorGray))...)
}

// wrapRows splits text into rows that fit the panel, breaking words only
// when they are longer than a row.
func wrapRows(text string, style tcell.Style) []panelRow {
	limit := panelWidth - 3
	lines := strings.Split(wrap.String(wordwrap.String(text, limit), limit), "\n")
	rows := make([]panelRow, len(lines))
	for i, line := range lines {
		rows[i] = panelRow{text: line, style: style}
	}
	return rows
}

// tableGrid draws cells as boxed text rows with padded columns.
func tableGrid(cells [][]string) []string {
	if len(cells) == 0 {
		return nil
	}
	widths := make([]int, len(cells[0]))
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}
	border := func(left, mid, right string) string {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return left + strings.Join(parts, mid) + right
	}

	lines := []string{border("┌", "┬", "┐")}
	for i, row := range cells {
		if i > 0 {
			lines = append(lines, border("├", "┼", "┤"))
		}
		parts := make([]string, len(row))
		for j, c := range row {
			parts[j] = " " + runewidth.FillRight(c, widths[j]) + " "
		}
		lines = append(lines, "│"+strings.Join(parts, "│")+"│")
	}
	return append(lines, border("└", "┴", "┘"))
}

func (p *sidePanel) ShowImage(th thumb.Thumbnail) {
	p.link = nil
	p.title = "image"
	p.rows = append(wrapRows(th.Source, p.style), []panelRow{
		{text: "preview " + th.Preview + imageSize(th.Preview), style: p.style.Foreground(tcell.ColorGray)},
		{text: "inline  " + th.Inline + imageSize(th.Inline), style: p.style.Foreground(tcell.ColorGray)},
	}...)
}

func imageSize(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" (%dx%d)", cfg.Width, cfg.Height)
}

func (p *sidePanel) ShowLink(l *registry.Link) {
	p.link = l
	p.title = fmt.Sprintf("scene %c", l.Glyph)
	p.rows = wrapRows(l.Source, p.style)
	dim := p.style.Foreground(tcell.ColorGray)
	switch {
	case l.Err != nil:
		p.rows = append(p.rows, wrapRows("error: "+l.Err.Error(), p.style.Foreground(tcell.ColorRed))...)
	case !l.Ready():
		p.rows = append(p.rows, panelRow{text: "loading...", style: dim})
	default:
		p.rows = append(p.rows, panelRow{text: "preview " + l.Artifact.Preview, style: dim}, panelRow{})
		for _, o := range l.Artifact.Summary.Outline() {
			box := "[ ]"
			if l.IsSelected(o.Name) {
				box = "[x]"
			}
			p.rows = append(p.rows, panelRow{
				text:   strings.Repeat("  ", o.Depth) + box + " " + o.Name,
				style:  p.style,
				object: o.Name,
			})
		}
	}
	if p.Open != nil {
		src := l.Source
		p.rows = append(p.rows, panelRow{}, panelRow{
			text:   "[open in scene tool]",
			style:  p.style.Foreground(tcell.ColorBlue),
			action: func() { p.Open(src) },
		})
	}
}

func (p *sidePanel) Draw() {
	p.fill(p.style)
	border := p.style.Foreground(tcell.ColorGray)
	for y := p.y; y < p.y+p.height; y++ {
		screen.SetContent(p.x, y, '│', nil, border)
	}
	if p.height == 0 {
		return
	}
	p.text(p.x+2, p.y, p.title, p.style.Bold(true))
	for i, row := range p.rows {
		if i+1 >= p.height {
			break
		}
		p.text(p.x+2, p.y+1+i, row.text, row.style)
	}
}

func (p *sidePanel) OnClick(x, y int) {
	i := y - p.y - 1
	if i < 0 || i >= len(p.rows) {
		return
	}
	row := p.rows[i]
	switch {
	case row.object != "" && p.link != nil && p.Toggle != nil:
		p.Toggle(p.link.ID, row.object)
	case row.action != nil:
		row.action()
	}
}
