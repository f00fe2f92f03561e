package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	table := Default()
	tests := []struct {
		name  string
		word  string
		want  Color
		found bool
	}{
		{name: "python def", word: "def", want: Cyan, found: true},
		{name: "python return", word: "return", want: Red, found: true},
		{name: "prefix is not a match", word: "definitely", found: false},
		{name: "case sensitive", word: "Def", found: false},
		{name: "c type", word: "double", want: LightGreen, found: true},
		{name: "c keyword", word: "struct", want: Yellow, found: true},
		{name: "c3 attribute", word: "@packed", want: Pink, found: true},
		{name: "zig builtin", word: "@intCast", want: Orange, found: true},
		{name: "zig type", word: "u128", want: Orange, found: true},
		{name: "zig c type", word: "c_ulonglong", want: Orange, found: true},
		{name: "empty", word: "", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.Classify(tt.word)
			require.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_LastRegisteredWins(t *testing.T) {
	first := Set{Name: "a", Keywords: map[string]Color{"if": Red, "only": Cyan}}
	second := Set{Name: "b", Keywords: map[string]Color{"if": Orange}}

	table := New(first, second)
	c, ok := table.Classify("if")
	require.True(t, ok)
	require.Equal(t, Orange, c)

	table = New(second, first)
	c, _ = table.Classify("if")
	require.Equal(t, Red, c)
	require.Equal(t, 2, table.Len())
}

func TestWithExtra(t *testing.T) {
	table := WithExtra(map[string]string{"def": "green", "lambda": "pink"})
	c, _ := table.Classify("def")
	require.Equal(t, Color("green"), c)
	c, ok := table.Classify("lambda")
	require.True(t, ok)
	require.Equal(t, Pink, c)

	require.Equal(t, Default().Len(), WithExtra(nil).Len())
}

func TestHasKeywords(t *testing.T) {
	table := Default()
	require.True(t, table.HasKeywords("x = 1\nreturn x"))
	require.False(t, table.HasKeywords("returns nothing"))
}

func TestNilTable(t *testing.T) {
	var table *Table
	_, ok := table.Classify("def")
	require.False(t, ok)
}
