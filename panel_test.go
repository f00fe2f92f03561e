package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/require"
)

func TestWrapRows(t *testing.T) {
	rows := wrapRows("short", tcell.StyleDefault)
	require.Len(t, rows, 1)
	require.Equal(t, "short", rows[0].text)

	long := strings.Repeat("x", panelWidth*2)
	rows = wrapRows(long, tcell.StyleDefault)
	require.Len(t, rows, 3)
	var joined string
	for _, r := range rows {
		require.LessOrEqual(t, len(r.text), panelWidth-3)
		joined += r.text
	}
	require.Equal(t, long, joined)
}

func TestTableGrid(t *testing.T) {
	got := tableGrid([][]string{{"a", "bb"}, {"", "c"}})
	require.Equal(t, []string{
		"┌───┬────┐",
		"│ a │ bb │",
		"├───┼────┤",
		"│   │ c  │",
		"└───┴────┘",
	}, got)
	require.Nil(t, tableGrid(nil))
}
