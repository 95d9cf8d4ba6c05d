package translation

import (
	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
	"quest-localizer/internal/interpolation"
)

// protected is a batch with formatting tokens swapped for placeholders.
type protected struct {
	safe     *dict.Dictionary
	mappings map[string][][]interpolation.Mapping
}

func protect(batch *dict.Dictionary) protected {
	p := protected{safe: dict.New(), mappings: make(map[string][][]interpolation.Mapping)}
	batch.Each(func(key string, v dict.Value) bool {
		lines := make([]string, len(v.Lines))
		maps := make([][]interpolation.Mapping, len(v.Lines))
		for i, l := range v.Lines {
			if l == "" || document.IsWrapped(l) {
				lines[i] = l
				continue
			}
			lines[i], maps[i] = interpolation.Protect(l)
		}
		p.safe.Set(key, dict.Value{Lines: lines, List: v.List})
		p.mappings[key] = maps
		return true
	})
	return p
}

// restore puts the tokens back into reply. Lines whose shape no longer
// matches the request are left for validation to reject.
func (p protected) restore(reply *dict.Dictionary) *dict.Dictionary {
	out := dict.New()
	reply.Each(func(key string, v dict.Value) bool {
		maps, ok := p.mappings[key]
		if !ok || len(maps) != len(v.Lines) {
			out.Set(key, v)
			return true
		}
		lines := make([]string, len(v.Lines))
		for i, l := range v.Lines {
			lines[i] = interpolation.EscapeStrayAmpersands(interpolation.Restore(l, maps[i]))
		}
		out.Set(key, dict.Value{Lines: lines, List: v.List})
		return true
	})
	return out
}

// lineRef addresses one line of one batch entry.
type lineRef struct {
	key  string
	line int
}

// translatableLines lists the lines a per-line provider has to send.
func translatableLines(batch *dict.Dictionary) ([]lineRef, []string) {
	var refs []lineRef
	var texts []string
	batch.Each(func(key string, v dict.Value) bool {
		for i, l := range v.Lines {
			if l == "" || document.IsWrapped(l) {
				continue
			}
			refs = append(refs, lineRef{key: key, line: i})
			texts = append(texts, l)
		}
		return true
	})
	return refs, texts
}

// fillLines copies batch and replaces the referenced lines with translated.
func fillLines(batch *dict.Dictionary, refs []lineRef, translated []string) *dict.Dictionary {
	out := batch.Clone()
	for i, ref := range refs {
		v, _ := out.Get(ref.key)
		v.Lines[ref.line] = translated[i]
		out.Set(ref.key, v)
	}
	return out
}
