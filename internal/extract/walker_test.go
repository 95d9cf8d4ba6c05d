package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
	"quest-localizer/internal/snbt"
)

var chapter1 = Namespace{Modpack: "pack", Document: "chapter1"}

func parse(t *testing.T, src string) *document.Map {
	t.Helper()
	m, err := snbt.ParseMap([]byte(src))
	require.NoError(t, err)
	return m
}

func text(t *testing.T, m *document.Map, path ...string) string {
	t.Helper()
	n, ok := document.Lookup(m, path...)
	require.True(t, ok, path)
	return n.(*document.String).Text
}

func TestExtractScenarioA(t *testing.T) {
	root := parse(t, `{
		title: "Welcome"
		subtitle: "[ skip ]"
		description: ["Line one", "{already.key}"]
	}`)
	d := dict.New()

	n, err := NewWalker(FTBQuests).Extract(root, chapter1, d)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := dict.New()
	want.SetText("pack.chapter1.title", "Welcome")
	want.SetText("pack.chapter1.description0", "Line one")
	assert.True(t, want.Equal(d), "got %v", d.Keys())

	assert.Equal(t, "{pack.chapter1.title}", text(t, root, "title"))
	assert.Equal(t, "[ skip ]", text(t, root, "subtitle"))
	desc, _ := root.Get("description")
	items := desc.(*document.List).Items
	assert.Equal(t, "{pack.chapter1.description0}", items[0].(*document.String).Text)
	assert.Equal(t, "{already.key}", items[1].(*document.String).Text)
}

func TestExtractScenarioB(t *testing.T) {
	root := parse(t, `{
		questline: [
			{ title: "First" }
			{ title: "Second" }
		]
	}`)
	d := dict.New()

	_, err := NewWalker(FTBQuests).Extract(root, chapter1, d)
	require.NoError(t, err)
	assert.Equal(t, []string{"pack.chapter1.questline0.title", "pack.chapter1.questline1.title"}, d.Keys())
}

func TestExtractIndexCountsAcceptedLinesOnly(t *testing.T) {
	root := parse(t, `{description: ["", "A", "[img]", "B", "{k}", "C"]}`)
	d := dict.New()

	_, err := NewWalker(FTBQuests).Extract(root, chapter1, d)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"pack.chapter1.description0",
		"pack.chapter1.description1",
		"pack.chapter1.description2",
	}, d.Keys())
	v, _ := d.Get("pack.chapter1.description2")
	assert.Equal(t, "C", v.String())
}

const nested = `{
	title: "Chapter \"One\""
	quests: [
		{
			title: "100% done"
			description: ["a", "b"]
			tasks: [
				{ type: "item", title: "Get dirt", count: 3L }
				{ type: "checkmark" }
			]
			rewards: [
				{ type: "xp", xp: 10 }
			]
		}
		{
			subtitle: "Second"
			x: 1.5d
		}
	]
	images: [ { image: "ftbquests:textures/a.png", hover: ["not localized"] } ]
	settings: { title: "Nested map title" }
}`

func TestExtractNestedDocument(t *testing.T) {
	root := parse(t, nested)
	d := dict.New()

	n, err := NewWalker(FTBQuests).Extract(root, chapter1, d)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"pack.chapter1.title",
		"pack.chapter1.quests0.title",
		"pack.chapter1.quests0.description0",
		"pack.chapter1.quests0.description1",
		"pack.chapter1.quests0.tasks0.title",
		"pack.chapter1.quests1.subtitle",
		"pack.chapter1.settings.title",
	}, d.Keys())
	assert.Equal(t, d.Len(), n)

	v, _ := d.Get("pack.chapter1.title")
	assert.Equal(t, `Chapter \"One\"`, v.String())
	v, _ = d.Get("pack.chapter1.quests0.title")
	assert.Equal(t, "100%% done", v.String())

	hover, _ := document.Lookup(root, "images")
	img := hover.(*document.List).Items[0].(*document.Map)
	h, _ := img.Get("hover")
	assert.Equal(t, "not localized", h.(*document.List).Items[0].(*document.String).Text)
}

func TestExtractIsDeterministic(t *testing.T) {
	orig := parse(t, nested)

	d1, d2 := dict.New(), dict.New()
	_, err := NewWalker(FTBQuests).Extract(orig.CloneMap(), chapter1, d1)
	require.NoError(t, err)
	_, err = NewWalker(FTBQuests).Extract(orig.CloneMap(), chapter1, d2)
	require.NoError(t, err)

	assert.True(t, d1.Equal(d2))
}

func TestExtractTwiceIsNoop(t *testing.T) {
	root := parse(t, nested)
	w := NewWalker(FTBQuests)

	_, err := w.Extract(root, chapter1, dict.New())
	require.NoError(t, err)

	again := dict.New()
	n, err := w.Extract(root, chapter1, again)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, again.Len())
}

func TestExtractKeepsSeededValues(t *testing.T) {
	root := parse(t, `{title: "Welcome"}`)
	d := dict.New()
	d.SetText("pack.chapter1.title", "Bienvenue")

	_, err := NewWalker(FTBQuests).Extract(root, chapter1, d)
	require.NoError(t, err)

	v, _ := d.Get("pack.chapter1.title")
	assert.Equal(t, "Bienvenue", v.String())
	assert.Equal(t, "{pack.chapter1.title}", text(t, root, "title"))
}

func TestExtractStructuralErrors(t *testing.T) {
	cases := map[string]string{
		"map title":       `{quests: [{title: {text: "x"}}]}`,
		"scalar subtitle": `{subtitle: 1b}`,
		"list of maps":    `{description: [{a: 1}]}`,
		"list of numbers": `{description: [1, 2]}`,
		"empty map title": `{title: {}}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewWalker(FTBQuests).Extract(parse(t, src), chapter1, dict.New())
			var se *StructuralError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "chapter1", se.Document)
			assert.NotEmpty(t, se.Path)
		})
	}
}

func TestExtractSkipsEmptyValues(t *testing.T) {
	root := parse(t, `{title: "", description: [ ], subtitle: "ok"}`)
	d := dict.New()

	_, err := NewWalker(FTBQuests).Extract(root, chapter1, d)
	require.NoError(t, err)
	assert.Equal(t, []string{"pack.chapter1.subtitle"}, d.Keys())
}

func TestCustomDialect(t *testing.T) {
	root := parse(t, `{title: "kept", text: "moved"}`)
	d := dict.New()

	_, err := NewWalker(Dialect{Name: "custom", Fields: []string{"text"}}).Extract(root, chapter1, d)
	require.NoError(t, err)
	assert.Equal(t, []string{"pack.chapter1.text"}, d.Keys())
	assert.Equal(t, "kept", text(t, root, "title"))
}
