package snbt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-localizer/internal/document"
)

const chapter = `{
	default_hide_dependency_lines: false
	filename: "chapter1"
	icon: "minecraft:diamond"
	order_index: 0
	quest_links: [ ]
	quests: [
		{
			dependencies: [
				"1A2B3C4D5E6F7A8B"
			]
			description: [
				"Line \"one\""
				""
				"Line two"
			]
			id: "0F1E2D3C4B5A6978"
			tasks: [
				{
					count: 16L
					id: "7A6B5C4D3E2F1A0B"
					item: "minecraft:dirt"
					type: "item"
				}
			]
			title: "Welcome"
			x: 0.0d
			y: -1.5d
		}
	]
	title: "Chapter 1"
	"weird key": [I; 1, 2, 3]
}
`

func TestParseChapter(t *testing.T) {
	root, err := ParseMap([]byte(chapter))
	require.NoError(t, err)

	title, ok := root.Get("title")
	require.True(t, ok)
	assert.Equal(t, "Chapter 1", title.(*document.String).Text)

	quests, _ := root.Get("quests")
	ql := quests.(*document.List)
	assert.Equal(t, document.KindMap, ql.Elem)

	desc, _ := document.Lookup(ql.Items[0].(*document.Map), "description")
	lines := desc.(*document.List)
	assert.Equal(t, document.KindString, lines.Elem)
	assert.Equal(t, `Line "one"`, lines.Items[0].(*document.String).Text)

	links, _ := root.Get("quest_links")
	assert.Equal(t, document.KindInvalid, links.(*document.List).Elem)

	arr, _ := root.Get("weird key")
	assert.Equal(t, "[I; 1, 2, 3]", arr.(*document.Scalar).Raw)
}

func TestMarshalRoundTrip(t *testing.T) {
	root, err := Parse([]byte(chapter))
	require.NoError(t, err)

	out, err := Marshal(root)
	require.NoError(t, err)
	assert.Equal(t, chapter, string(out))
}

func TestParseAcceptsCommasAndSingleLine(t *testing.T) {
	root, err := ParseMap([]byte(`{a: 1b, b: "x", c: ['y', "z"], d: {}}`))
	require.NoError(t, err)

	out, err := Marshal(root)
	require.NoError(t, err)
	assert.Equal(t, "{\n\ta: 1b\n\tb: \"x\"\n\tc: [\n\t\t\"y\"\n\t\t\"z\"\n\t]\n\td: { }\n}\n", string(out))
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		`{title: "open`,
		`{title "x"}`,
		`{a: 1 a: 2}`,
		`{a: [1, 2}`,
		`{a: 1} trailing`,
		`{a: ?}`,
	}
	for _, in := range cases {
		_, err := Parse([]byte(in))
		var se *SyntaxError
		assert.ErrorAs(t, err, &se, in)
	}
}

func TestParseMapRejectsNonCompoundRoot(t *testing.T) {
	_, err := ParseMap([]byte(`["a"]`))
	assert.Error(t, err)
}

func TestQuoteAndKey(t *testing.T) {
	assert.Equal(t, `"a\"b\\c\nd"`, Quote("a\"b\\c\nd"))
	assert.Equal(t, "title", Key("title"))
	assert.Equal(t, "quest.0A.title", Key("quest.0A.title"))
	assert.Equal(t, `"has space"`, Key("has space"))
	assert.Equal(t, `""`, Key(""))
}

func TestUnicodeEscape(t *testing.T) {
	n, err := Parse([]byte(`"caf\u00e9"`))
	require.NoError(t, err)
	assert.Equal(t, "café", n.(*document.String).Text)
}
