package previewer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/walteh/tshover/pkg/previewer"
	"github.com/walteh/tshover/pkg/quickinfo"
)

func text(s string) quickinfo.DisplayPart {
	return quickinfo.DisplayPart{Text: s, Kind: "text"}
}

func resolveFile(path string) string {
	return "file://" + path
}

func TestRenderDocumentation(t *testing.T) {
	tests := []struct {
		name   string
		doc    []quickinfo.DisplayPart
		tags   []quickinfo.Tag
		want   string
		wantOK bool
	}{
		{
			name:   "nothing to render",
			doc:    nil,
			tags:   nil,
			want:   "",
			wantOK: false,
		},
		{
			name:   "plain documentation",
			doc:    []quickinfo.DisplayPart{text("Adds two numbers.")},
			want:   "Adds two numbers.",
			wantOK: true,
		},
		{
			name: "link with target and text",
			doc: []quickinfo.DisplayPart{
				text("See "),
				{Text: "{@link ", Kind: quickinfo.KindLink},
				{Text: "Foo", Kind: quickinfo.KindLinkName, Target: &quickinfo.LinkTarget{File: "/src/foo.ts"}},
				{Text: "the foo", Kind: quickinfo.KindLinkText},
				{Text: "}", Kind: quickinfo.KindLink},
				text(" for details."),
			},
			want:   "See [the foo](file:///src/foo.ts) for details.",
			wantOK: true,
		},
		{
			name: "link with empty text keeps it empty",
			doc: []quickinfo.DisplayPart{
				{Text: "{@link ", Kind: quickinfo.KindLink},
				{Text: "Foo", Kind: quickinfo.KindLinkName, Target: &quickinfo.LinkTarget{File: "/src/foo.ts"}},
				{Text: "", Kind: quickinfo.KindLinkText},
				{Text: "}", Kind: quickinfo.KindLink},
			},
			want:   "[](file:///src/foo.ts)",
			wantOK: true,
		},
		{
			name: "link without text falls back to name",
			doc: []quickinfo.DisplayPart{
				{Text: "{@link ", Kind: quickinfo.KindLink},
				{Text: "Foo", Kind: quickinfo.KindLinkName, Target: &quickinfo.LinkTarget{File: "/src/foo.ts"}},
				{Text: "}", Kind: quickinfo.KindLink},
			},
			want:   "[Foo](file:///src/foo.ts)",
			wantOK: true,
		},
		{
			name: "inline link text is rewritten once",
			doc: []quickinfo.DisplayPart{
				text("see {@link https://example.com/a?b=c docs} and {@linkcode https://example.com/x run}"),
			},
			want:   "see [docs](https://example.com/a?b=c) and [`run`](https://example.com/x)",
			wantOK: true,
		},
		{
			name: "link with target location",
			doc: []quickinfo.DisplayPart{
				{Text: "{@link ", Kind: quickinfo.KindLink},
				{Text: "Foo", Kind: quickinfo.KindLinkName, Target: &quickinfo.LinkTarget{
					File:  "/src/foo.ts",
					Start: &quickinfo.LineAndColumn{Line: 3, Column: 14},
				}},
				{Text: "}", Kind: quickinfo.KindLink},
			},
			want:   "[Foo](file:///src/foo.ts#L3,14)",
			wantOK: true,
		},
		{
			name: "link without target keeps its text",
			doc: []quickinfo.DisplayPart{
				{Text: "{@link ", Kind: quickinfo.KindLink},
				{Text: "Missing", Kind: quickinfo.KindLinkName},
				{Text: "}", Kind: quickinfo.KindLink},
			},
			want:   "Missing",
			wantOK: true,
		},
		{
			name:   "inline url link",
			doc:    []quickinfo.DisplayPart{text("Read {@link https://example.com the docs}.")},
			want:   "Read [the docs](https://example.com).",
			wantOK: true,
		},
		{
			name:   "inline linkcode without label",
			doc:    []quickinfo.DisplayPart{text("{@linkcode https://example.com/x}")},
			want:   "[`https://example.com/x`](https://example.com/x)",
			wantOK: true,
		},
		{
			name: "tags only",
			tags: []quickinfo.Tag{
				{Name: "deprecated"},
			},
			want:   "*@deprecated*",
			wantOK: true,
		},
		{
			name: "documentation and tags",
			doc:  []quickinfo.DisplayPart{text("Adds two numbers.")},
			tags: []quickinfo.Tag{
				{Name: "param", Text: []quickinfo.DisplayPart{
					{Text: "a", Kind: "parameterName"},
					{Text: " ", Kind: "space"},
					{Text: "- the first", Kind: "text"},
				}},
				{Name: "param", Text: []quickinfo.DisplayPart{{Text: "b", Kind: "parameterName"}}},
				{Name: "returns", Text: []quickinfo.DisplayPart{text("the sum")}},
			},
			want:   "Adds two numbers.\n\n*@param* `a` — the first  \n\n*@param* `b`  \n\n*@returns* — the sum",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := previewer.Markdown{}.Render(tt.doc, tt.tags, resolveFile)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderTags(t *testing.T) {
	tests := []struct {
		name string
		tag  quickinfo.Tag
		want string
	}{
		{
			name: "multi-line param doc",
			tag:  quickinfo.Tag{Name: "param", Text: []quickinfo.DisplayPart{text("opts the options\nsee below")}},
			want: "*@param* `opts`  \nthe options\nsee below",
		},
		{
			name: "template",
			tag:  quickinfo.Tag{Name: "template", Text: []quickinfo.DisplayPart{text("T")}},
			want: "*@template* `T`",
		},
		{
			name: "example gets fenced",
			tag:  quickinfo.Tag{Name: "example", Text: []quickinfo.DisplayPart{text("add(1, 2)")}},
			want: "*@example*  \n```\nadd(1, 2)\n```",
		},
		{
			name: "example already fenced",
			tag:  quickinfo.Tag{Name: "example", Text: []quickinfo.DisplayPart{text("```ts\nadd(1, 2)\n```")}},
			want: "*@example*  \n```ts\nadd(1, 2)\n```",
		},
		{
			name: "example with caption",
			tag:  quickinfo.Tag{Name: "example", Text: []quickinfo.DisplayPart{text("<caption>Adding</caption>\nadd(1, 2)")}},
			want: "*@example*  \nAdding\n```\nadd(1, 2)\n```",
		},
		{
			name: "author email",
			tag:  quickinfo.Tag{Name: "author", Text: []quickinfo.DisplayPart{text("Jane Doe <jane@example.com>")}},
			want: "*@author* — Jane Doe jane@example.com",
		},
		{
			name: "default value",
			tag:  quickinfo.Tag{Name: "default", Text: []quickinfo.DisplayPart{text("42")}},
			want: "*@default*  \n```\n42\n```",
		},
		{
			name: "see with link",
			tag: quickinfo.Tag{Name: "see", Text: []quickinfo.DisplayPart{
				{Text: "{@link ", Kind: quickinfo.KindLink},
				{Text: "Bar", Kind: quickinfo.KindLinkName, Target: &quickinfo.LinkTarget{File: "/src/bar.ts"}},
				{Text: "}", Kind: quickinfo.KindLink},
			}},
			want: "*@see* — [Bar](file:///src/bar.ts)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := previewer.Markdown{}.Render(nil, []quickinfo.Tag{tt.tag}, resolveFile)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderResolvesEachTargetOnce(t *testing.T) {
	calls := map[string]int{}
	resolve := func(path string) string {
		calls[path]++
		return "file://" + path
	}

	link := func(file string) []quickinfo.DisplayPart {
		return []quickinfo.DisplayPart{
			{Text: "{@link ", Kind: quickinfo.KindLink},
			{Text: "X", Kind: quickinfo.KindLinkName, Target: &quickinfo.LinkTarget{File: file}},
			{Text: "}", Kind: quickinfo.KindLink},
		}
	}

	doc := append(append(link("/a.ts"), text(" and ")), link("/a.ts")...)
	tags := []quickinfo.Tag{{Name: "see", Text: link("/b.ts")}}

	_, ok := previewer.Markdown{}.Render(doc, tags, resolve)
	assert.True(t, ok)
	assert.Equal(t, map[string]int{"/a.ts": 1, "/b.ts": 1}, calls)
}
