package extract

import (
	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
)

// Dialect names the fields whose text is localizable in one document format.
type Dialect struct {
	Name   string
	Fields []string
}

// FTBQuests is the field set of FTB Quests chapters, quests, tasks and rewards.
var FTBQuests = Dialect{Name: "ftbquests", Fields: []string{"title", "subtitle", "description"}}

// Walker moves localizable text of a tree document into a dictionary and
// leaves {key} placeholders behind.
type Walker struct {
	fields map[string]struct{}
}

// NewWalker creates a walker for the given dialect.
func NewWalker(dialect Dialect) *Walker {
	fields := make(map[string]struct{}, len(dialect.Fields))
	for _, f := range dialect.Fields {
		fields[f] = struct{}{}
	}
	return &Walker{fields: fields}
}

type walk struct {
	ns       Namespace
	out      *dict.Dictionary
	accepted int
}

// Extract walks root depth-first in field order. Every accepted string is
// recorded escaped under its synthesized key and replaced by {key}. Keys
// already present in d keep their value. root is modified in place; it returns
// the number of strings replaced.
func (w *Walker) Extract(root *document.Map, ns Namespace, d *dict.Dictionary) (int, error) {
	st := &walk{ns: ns, out: d}
	if err := w.walkMap(root, Path{}, st); err != nil {
		return st.accepted, WithDocument(err, ns.Document)
	}
	return st.accepted, nil
}

func (w *Walker) walkMap(m *document.Map, path Path, st *walk) error {
	for _, f := range m.Fields() {
		if _, ok := w.fields[f.Name]; ok {
			if err := w.localize(f, path, st); err != nil {
				return err
			}
			continue
		}
		if isEmpty(f.Value) {
			continue
		}

		switch v := f.Value.(type) {
		case *document.Map:
			if err := w.walkMap(v, path.Child(f.Name), st); err != nil {
				return err
			}
		case *document.List:
			if v.Elem != document.KindMap {
				continue
			}
			for i, it := range v.Items {
				if err := w.walkMap(it.(*document.Map), path.Item(f.Name, i), st); err != nil {
					return err
				}
			}
		case *document.String, *document.Scalar:
		default:
			return structuralf(path.Child(f.Name).String(), "unknown node type %T", f.Value)
		}
	}
	return nil
}

func (w *Walker) localize(f document.Field, path Path, st *walk) error {
	fieldPath := path.Child(f.Name)

	switch v := f.Value.(type) {
	case *document.String:
		if IsLocalizable(v.Text) {
			st.accept(v, fieldPath.Key(st.ns, -1))
		}
		return nil
	case *document.List:
		if v.Len() > 0 && v.Elem != document.KindString {
			return structuralf(fieldPath.String(), "localizable field %q holds a %s, want string or list of strings",
				f.Name, document.Describe(v))
		}
		// Indices count accepted lines only, so skipped lines leave no gaps.
		idx := 0
		for _, it := range v.Items {
			s := it.(*document.String)
			if !IsLocalizable(s.Text) {
				continue
			}
			st.accept(s, fieldPath.Key(st.ns, idx))
			idx++
		}
		return nil
	default:
		return structuralf(fieldPath.String(), "localizable field %q holds a %s, want string or list of strings",
			f.Name, document.Describe(f.Value))
	}
}

func (st *walk) accept(s *document.String, key string) {
	st.out.Add(key, dict.Text(Escape(s.Text)))
	s.Text = Placeholder(key)
	st.accepted++
}

func isEmpty(n document.Node) bool {
	switch v := n.(type) {
	case *document.String:
		return v.Text == ""
	case *document.List:
		return v.Len() == 0
	case *document.Map:
		return v.Len() == 0
	default:
		return false
	}
}
