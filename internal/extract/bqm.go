package extract

import (
	"fmt"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
)

// Version is a Better Questing quest database layout.
type Version int

const (
	VersionUnknown Version = iota
	// V1 is the NBT-typed layout of Better Questing 1.x ("questDatabase:9").
	V1
	// V2 is the flat layout where names sit on the quest itself.
	V2
	// V3 is the layout with properties.betterquesting on each quest.
	V3
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	case V3:
		return "v3"
	default:
		return "unknown"
	}
}

const (
	defaultName        = "No Name"
	defaultDescription = "No Description"
)

// DetectVersion infers the quest database layout from its shape.
func DetectVersion(root *document.Map) (Version, error) {
	if root.Has("questDatabase:9") {
		return V1, nil
	}
	n, ok := root.Get("questDatabase")
	if !ok {
		return VersionUnknown, structuralf("", "no questDatabase found, not a Better Questing quest database")
	}
	quests, ok := n.(*document.List)
	if !ok {
		return VersionUnknown, structuralf("questDatabase", "holds a %s, want list", document.Describe(n))
	}
	if quests.Len() > 0 {
		if first, ok := quests.Items[0].(*document.Map); ok && first.Has("properties") {
			return V3, nil
		}
	}
	return V2, nil
}

// Strategy extracts quest and questline names for one database layout.
type Strategy interface {
	Version() Version
	// Extract records every quest and questline name and description in d under
	// <modpack>.quests<id>.name|desc and <modpack>.questlines<id>.name|desc and
	// stores the bare key in the database in their place.
	Extract(root *document.Map, modpack string, d *dict.Dictionary) (int, error)
}

// StrategyFor returns the strategy for a detected version.
func StrategyFor(v Version) (Strategy, error) {
	switch v {
	case V1:
		return layoutV1, nil
	case V2:
		return layoutV2, nil
	case V3:
		return layoutV3, nil
	default:
		return nil, structuralf("", "unsupported quest database version %s", v)
	}
}

// layout describes where one database version keeps its quests and their texts.
type layout struct {
	version    Version
	quests     string
	lines      string
	questID    string
	lineID     string
	properties []string
	name       string
	desc       string
	// positionalLines numbers questlines by list position instead of lineID.
	positionalLines bool
}

var (
	layoutV1 = &layout{
		version:    V1,
		quests:     "questDatabase:9",
		lines:      "questLines:9",
		questID:    "questID:3",
		lineID:     "lineID:3",
		properties: []string{"properties:10", "betterquesting:10"},
		name:       "name:8",
		desc:       "desc:8",
	}
	layoutV2 = &layout{
		version:         V2,
		quests:          "questDatabase",
		lines:           "questLines",
		questID:         "questID",
		name:            "name",
		desc:            "description",
		positionalLines: true,
	}
	layoutV3 = &layout{
		version:    V3,
		quests:     "questDatabase",
		lines:      "questLines",
		questID:    "questID",
		lineID:     "lineID",
		properties: []string{"properties", "betterquesting"},
		name:       "name",
		desc:       "desc",
	}
)

func (l *layout) Version() Version { return l.version }

func (l *layout) Extract(root *document.Map, modpack string, d *dict.Dictionary) (int, error) {
	quests, err := entries(root, l.quests)
	if err != nil {
		return 0, err
	}
	count := 0
	for i, q := range quests {
		id, err := idOf(q.node, l.questID, q.path)
		if err != nil {
			return count, err
		}
		n, err := l.extractEntry(q, fmt.Sprintf("%s.quests%s", modpack, id), d)
		if err != nil {
			return count, fmt.Errorf("quest %d: %w", i, err)
		}
		count += n
	}

	lines, err := entries(root, l.lines)
	if err != nil {
		return count, err
	}
	for i, ql := range lines {
		id := fmt.Sprint(i)
		if !l.positionalLines {
			if id, err = idOf(ql.node, l.lineID, ql.path); err != nil {
				return count, err
			}
		}
		n, err := l.extractEntry(ql, fmt.Sprintf("%s.questlines%s", modpack, id), d)
		if err != nil {
			return count, fmt.Errorf("questline %d: %w", i, err)
		}
		count += n
	}
	return count, nil
}

func (l *layout) extractEntry(e entry, prefix string, d *dict.Dictionary) (int, error) {
	props := e.node
	if len(l.properties) > 0 {
		var ok bool
		if props, ok = document.LookupMap(e.node, l.properties...); !ok {
			return 0, structuralf(e.path, "missing %v", l.properties)
		}
	}
	count := 0
	for _, field := range []struct{ name, key, fallback string }{
		{l.name, prefix + ".name", defaultName},
		{l.desc, prefix + ".desc", defaultDescription},
	} {
		text := field.fallback
		if n, ok := props.Get(field.name); ok {
			s, ok := document.Text(n)
			if !ok {
				return count, structuralf(e.path+"."+field.name, "holds a %s, want string", document.Describe(n))
			}
			if s != "" {
				text = s
			}
		}
		// Output of an earlier run already points at its key.
		if text != field.key {
			d.Add(field.key, dict.Text(text))
			count++
		}
		props.Set(field.name, document.NewString(field.key))
	}
	return count, nil
}

type entry struct {
	node *document.Map
	path string
}

// entries returns the quests or questlines stored under name, either as a list
// or as an NBT-style map of "N:10" children. A missing field yields nothing.
func entries(root *document.Map, name string) ([]entry, error) {
	n, ok := root.Get(name)
	if !ok {
		return nil, nil
	}
	var out []entry
	switch v := n.(type) {
	case *document.List:
		for i, it := range v.Items {
			m, ok := it.(*document.Map)
			if !ok {
				return nil, structuralf(fmt.Sprintf("%s[%d]", name, i), "holds a %s, want map", document.Describe(it))
			}
			out = append(out, entry{node: m, path: fmt.Sprintf("%s[%d]", name, i)})
		}
	case *document.Map:
		for _, f := range v.Fields() {
			m, ok := f.Value.(*document.Map)
			if !ok {
				return nil, structuralf(name+"."+f.Name, "holds a %s, want map", document.Describe(f.Value))
			}
			out = append(out, entry{node: m, path: name + "." + f.Name})
		}
	default:
		return nil, structuralf(name, "holds a %s, want list or map", document.Describe(n))
	}
	return out, nil
}

func idOf(m *document.Map, field, path string) (string, error) {
	n, ok := m.Get(field)
	if !ok {
		return "", structuralf(path, "missing %s", field)
	}
	id, ok := n.(*document.Scalar)
	if !ok {
		if s, isString := n.(*document.String); isString && s.Text != "" {
			return s.Text, nil
		}
		return "", structuralf(path+"."+field, "holds a %s, want number", document.Describe(n))
	}
	return id.Raw, nil
}
