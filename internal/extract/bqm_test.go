package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
)

const databaseV1 = `{
	"format:8": "2.0.0",
	"questDatabase:9": {
		"0:10": {
			"questID:3": 0,
			"properties:10": {"betterquesting:10": {"name:8": "Gather wood", "desc:8": "Punch a tree.\nThen another."}}
		},
		"1:10": {
			"questID:3": 7,
			"properties:10": {"betterquesting:10": {"name:8": "Stone age"}}
		}
	},
	"questLines:9": {
		"0:10": {
			"lineID:3": 2,
			"properties:10": {"betterquesting:10": {"name:8": "Basics", "desc:8": "Start here"}}
		}
	}
}`

const databaseV2 = `{
	"questDatabase": [
		{"questID": 4, "name": "Find iron", "description": "Mine it"}
	],
	"questLines": [
		{"name": "Ores", "description": "Digging"},
		{"name": "Tools", "description": "Crafting"}
	]
}`

const databaseV3 = `{
	"questDatabase": [
		{"questID": 1, "properties": {"betterquesting": {"name": "Welcome", "desc": "Hi"}}}
	],
	"questLines": [
		{"lineID": 9, "properties": {"betterquesting": {"name": "Intro", "desc": ""}}}
	]
}`

func parseJSON(t *testing.T, src string) *document.Map {
	t.Helper()
	n, err := document.ParseJSON([]byte(src))
	require.NoError(t, err)
	return n.(*document.Map)
}

func TestDetectVersion(t *testing.T) {
	for src, want := range map[string]Version{databaseV1: V1, databaseV2: V2, databaseV3: V3} {
		v, err := DetectVersion(parseJSON(t, src))
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	_, err := DetectVersion(parseJSON(t, `{"quests": []}`))
	var se *StructuralError
	assert.ErrorAs(t, err, &se)

	_, err = DetectVersion(parseJSON(t, `{"questDatabase": {}}`))
	assert.ErrorAs(t, err, &se)
}

func extractDatabase(t *testing.T, src string) (*document.Map, *dict.Dictionary) {
	t.Helper()
	root := parseJSON(t, src)
	v, err := DetectVersion(root)
	require.NoError(t, err)
	s, err := StrategyFor(v)
	require.NoError(t, err)
	assert.Equal(t, v, s.Version())

	d := dict.New()
	_, err = s.Extract(root, "pack", d)
	require.NoError(t, err)
	return root, d
}

func TestExtractV1(t *testing.T) {
	root, d := extractDatabase(t, databaseV1)

	assert.Equal(t, []string{
		"pack.quests0.name", "pack.quests0.desc",
		"pack.quests7.name", "pack.quests7.desc",
		"pack.questlines2.name", "pack.questlines2.desc",
	}, d.Keys())

	v, _ := d.Get("pack.quests0.desc")
	assert.Equal(t, "Punch a tree.\nThen another.", v.String())
	v, _ = d.Get("pack.quests7.desc")
	assert.Equal(t, "No Description", v.String())

	name, ok := document.Lookup(root, "questDatabase:9", "1:10", "properties:10", "betterquesting:10", "name:8")
	require.True(t, ok)
	assert.Equal(t, "pack.quests7.name", name.(*document.String).Text)
}

func TestExtractV2UsesLinePosition(t *testing.T) {
	root, d := extractDatabase(t, databaseV2)

	assert.Equal(t, []string{
		"pack.quests4.name", "pack.quests4.desc",
		"pack.questlines0.name", "pack.questlines0.desc",
		"pack.questlines1.name", "pack.questlines1.desc",
	}, d.Keys())

	lines, _ := root.Get("questLines")
	second := lines.(*document.List).Items[1].(*document.Map)
	desc, _ := second.Get("description")
	assert.Equal(t, "pack.questlines1.desc", desc.(*document.String).Text)
}

func TestExtractV3(t *testing.T) {
	_, d := extractDatabase(t, databaseV3)

	assert.Equal(t, []string{
		"pack.quests1.name", "pack.quests1.desc",
		"pack.questlines9.name", "pack.questlines9.desc",
	}, d.Keys())
	v, _ := d.Get("pack.questlines9.desc")
	assert.Equal(t, "No Description", v.String())
}

func TestExtractEmptyTextGetsDefault(t *testing.T) {
	_, d := extractDatabase(t, `{
	"questDatabase": [
		{"questID": 1, "properties": {"betterquesting": {"name": "", "desc": "Go"}}}
	],
	"questLines": []
}`)

	name, _ := d.Get("pack.quests1.name")
	assert.Equal(t, "No Name", name.String())
	desc, _ := d.Get("pack.quests1.desc")
	assert.Equal(t, "Go", desc.String())
}

func TestExtractDatabaseTwiceKeepsDictionary(t *testing.T) {
	root, first := extractDatabase(t, databaseV3)

	s, _ := StrategyFor(V3)
	second := dict.New()
	dict.MergeExisting(second, first)
	_, err := s.Extract(root, "pack", second)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestExtractMissingQuestID(t *testing.T) {
	root := parseJSON(t, `{"questDatabase": [{"name": "x"}]}`)
	s, _ := StrategyFor(V2)
	_, err := s.Extract(root, "pack", dict.New())

	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Error(), "questID")
}

func TestStrategyForUnknown(t *testing.T) {
	_, err := StrategyFor(VersionUnknown)
	assert.Error(t, err)
}
