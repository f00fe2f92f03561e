package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/chenen3/glyphpad/internal/markup"
	"github.com/chenen3/glyphpad/internal/registry"
	"github.com/chenen3/glyphpad/internal/syntax"
	"github.com/chenen3/glyphpad/internal/thumb"
	"github.com/chenen3/glyphpad/internal/token"
)

type fakeResolver struct {
	tables []*registry.Table
	links  []*registry.Link
	images []thumb.Thumbnail
	// imageErr fails every image that has a Source
	imageErr error
}

func (f *fakeResolver) Table(i int) (*registry.Table, error) {
	if i >= len(f.tables) {
		return nil, &registry.DesyncError{Kind: token.Table, Index: i, Len: len(f.tables)}
	}
	return f.tables[i], nil
}

func (f *fakeResolver) Link(glyph rune, n int) (*registry.Link, error) {
	seen := 0
	for _, l := range f.links {
		if l.Glyph != glyph {
			continue
		}
		if seen == n {
			return l, nil
		}
		seen++
	}
	return nil, &registry.DesyncError{Kind: token.Link, Index: n, Len: seen, Glyph: glyph}
}

func (f *fakeResolver) Image(i int) (thumb.Thumbnail, error) {
	if i >= len(f.images) {
		return thumb.Thumbnail{}, &registry.DesyncError{Kind: token.Image, Index: i, Len: len(f.images)}
	}
	if f.imageErr != nil && f.images[i].Source != "" {
		return thumb.Thumbnail{Source: f.images[i].Source}, f.imageErr
	}
	return f.images[i], nil
}

func build(text string, r Resolver) Output {
	if r == nil {
		r = &fakeResolver{}
	}
	return Build(token.Tokenize(text, syntax.Default()), r, DefaultStyle())
}

// body strips the enclosing paragraph.
func body(t *testing.T, m string) string {
	t.Helper()
	prefix := `<p style="` + BlockStyle + `">`
	require.True(t, strings.HasPrefix(m, prefix), m)
	require.True(t, strings.HasSuffix(m, "</p>"), m)
	return strings.TrimSuffix(strings.TrimPrefix(m, prefix), "</p>")
}

const (
	openParen  = `<i style="background-color:black">(</i>`
	closeParen = `<i style="background-color:black">)</i>`
)

func TestBuild_Scenario(t *testing.T) {
	out := build("def f():\n    return 1\n", nil)

	want := `<font color="cyan">def</font> f` + openParen + closeParen + `:<br/>` +
		`    <font color="red">return</font> 1<br/>`
	require.Equal(t, want, body(t, out.Markup))
	require.Equal(t, []int{1, 2}, out.Lines)
	require.Empty(t, out.Misses)
}

func TestBuild_Braces(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "balanced line",
			text: "if (x) { y }",
			want: `<font color="red">if</font> ` + openParen + `x` + closeParen +
				` {<u style="background-color:blue"> y </u>}`,
		},
		{
			name: "unbalanced line left alone",
			text: "while {",
			want: `<font color="red">while</font> {`,
		},
		{
			name: "lines are independent",
			text: "{\n}",
			want: `{<br/>}`,
		},
		{
			name: "nested",
			text: "{a{b}}",
			want: `{<u style="background-color:blue">a{<u style="background-color:blue">b</u>}</u>}`,
		},
		{
			name: "stray closer stays text",
			text: "} {",
			want: `} {<u style="background-color:blue"></u>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, body(t, build(tt.text, nil).Markup))
		})
	}
}

func TestBuild_Brackets(t *testing.T) {
	out := build("a[1\n2]b]", nil)
	require.Equal(t, `a[<b style="background-color:purple">1<br/>2</b>]b]`, body(t, out.Markup))

	out = build("{[}]", nil)
	require.Equal(t,
		`{<u style="background-color:blue">[<b style="background-color:purple"></b></u>`+
			`<b style="background-color:purple">}</b>]`,
		body(t, out.Markup))
}

func TestBuild_PositionalCorrelation(t *testing.T) {
	t0, _ := registry.NewTable([][]string{{"a"}})
	t1, _ := registry.NewTable([][]string{{"b"}})
	r := &fakeResolver{
		tables: []*registry.Table{t0, t1},
		images: []thumb.Thumbnail{{Inline: "/c/a.png"}, {Inline: "/c/b.png"}},
	}

	out := build("▦\uFFFC\uFFFC▦", r)
	require.Equal(t,
		`<a href="0" style="color:cyan">▦</a>`+
			`<a href="/c/a.png"><img src="/c/a.png"/></a>`+
			`<a href="/c/b.png"><img src="/c/b.png"/></a>`+
			`<a href="1" style="color:cyan">▦</a>`,
		body(t, out.Markup))
}

func TestBuild_Links(t *testing.T) {
	reg := registry.New()
	l, err := reg.AddLink("/scenes/robot.blend")
	require.NoError(t, err)
	r := &fakeResolver{links: []*registry.Link{l}}

	out := build("see ①", r)
	require.Equal(t,
		`see <a href="link:`+l.ID+`" style="color:orange; font-size:16pt">①</a>`,
		body(t, out.Markup))
}

func TestBuild_LinksKeepTheirGlyph(t *testing.T) {
	reg := registry.New()
	a, err := reg.AddLink("/scenes/a.blend")
	require.NoError(t, err)
	b, err := reg.AddLink("/scenes/b.blend")
	require.NoError(t, err)
	again, err := reg.AddLink("/scenes/a.blend")
	require.NoError(t, err)
	r := &fakeResolver{links: []*registry.Link{a, b, again}}

	style := `" style="color:orange; font-size:16pt">`
	out := build("②①①", r)
	require.Empty(t, out.Misses)
	require.Equal(t,
		`<a href="link:`+b.ID+style+`②</a>`+
			`<a href="link:`+a.ID+style+`①</a>`+
			`<a href="link:`+again.ID+style+`①</a>`,
		body(t, out.Markup))

	out = build("②②", r)
	require.Len(t, out.Misses, 1)
	assert.Equal(t, 1, out.Misses[0].Index)
	assert.True(t, errors.Is(out.Misses[0].Err, registry.ErrDesync))
	assert.True(t, strings.HasSuffix(body(t, out.Markup), `<span style="color:grey">②</span>`))
}

func TestBuild_FailedImageKeepsSource(t *testing.T) {
	r := &fakeResolver{
		images:   []thumb.Thumbnail{{Source: "/pics/cat.webp"}},
		imageErr: errors.New("unsupported format"),
	}
	out := build("a \uFFFC", r)
	require.Len(t, out.Misses, 1)
	require.Equal(t, `a <span style="color:grey"><img src="/pics/cat.webp"/></span>`, body(t, out.Markup))

	out = build("\uFFFC", &fakeResolver{})
	require.Equal(t, "<span style=\"color:grey\">\uFFFC</span>", body(t, out.Markup), "no source to keep")
}

func TestBuild_DesyncIsPerItem(t *testing.T) {
	t0, _ := registry.NewTable([][]string{{"a"}})
	r := &fakeResolver{tables: []*registry.Table{t0}}

	out := build("▦ def ▦", r)
	require.Equal(t,
		`<a href="0" style="color:cyan">▦</a> <font color="cyan">def</font> <span style="color:grey">▦</span>`,
		body(t, out.Markup))
	require.Len(t, out.Misses, 1)
	assert.Equal(t, token.Table, out.Misses[0].Object)
	assert.Equal(t, 1, out.Misses[0].Index)
	assert.True(t, errors.Is(out.Misses[0].Err, registry.ErrDesync))
}

func TestBuild_EscapesText(t *testing.T) {
	out := build("a<b && c>d", nil)
	require.Equal(t, `a&lt;b &amp;&amp; c&gt;d`, body(t, out.Markup))
}

func TestLineNumbers(t *testing.T) {
	tests := map[string][]int{
		"":          {1},
		"x":         {1},
		"x\n":       {1},
		"x\ny":      {1, 2},
		"\n":        {1},
		"\n\n":      {1, 2},
		"a\nb\nc\n": {1, 2, 3},
	}
	for text, want := range tests {
		assert.Equal(t, want, LineNumbers(text), "%q", text)
	}
}

func TestBuild_AlwaysWellFormed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		runes := rapid.SliceOf(rapid.SampledFrom([]rune("{}[]()x \n:▦①\uFFFC"))).Draw(t, "text")
		out := build(string(runes), &fakeResolver{})
		if _, err := markup.Parse(out.Markup); err != nil {
			t.Fatalf("markup %q: %v", out.Markup, err)
		}
		if len(out.Lines) != len(LineNumbers(string(runes))) {
			t.Fatalf("lines %v", out.Lines)
		}
	})
}
