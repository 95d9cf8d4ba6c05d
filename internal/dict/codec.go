package dict

import (
	"fmt"

	"quest-localizer/internal/document"
)

// FromDocument converts a flat map of key → string (or list of strings) into a
// dictionary. This is the shape of JSON language files and of FTB Quests
// lang/<locale>.snbt files.
func FromDocument(m *document.Map) (*Dictionary, error) {
	d := New()
	for _, f := range m.Fields() {
		switch v := f.Value.(type) {
		case *document.String:
			d.Set(f.Name, Text(v.Text))
		case *document.Scalar:
			// A null value holds no text; the key is left out.
			if v.Raw == "null" {
				continue
			}
			d.Set(f.Name, Text(v.Raw))
		case *document.List:
			lines := make([]string, 0, v.Len())
			for i, it := range v.Items {
				s, ok := it.(*document.String)
				if !ok {
					return nil, fmt.Errorf("key %q: item %d is a %s, want string", f.Name, i, document.Describe(it))
				}
				lines = append(lines, s.Text)
			}
			d.Set(f.Name, Lines(lines...))
		default:
			return nil, fmt.Errorf("key %q: unsupported %s", f.Name, document.Describe(f.Value))
		}
	}
	return d, nil
}

// Document converts d into a flat map, the inverse of FromDocument.
func (d *Dictionary) Document() *document.Map {
	m := document.NewMap()
	for _, k := range d.keys {
		v := d.values[k]
		if !v.List {
			m.Set(k, document.NewString(v.String()))
			continue
		}
		items := make([]document.Node, len(v.Lines))
		for i, l := range v.Lines {
			items[i] = document.NewString(l)
		}
		m.Set(k, document.NewList(items...))
	}
	return m
}

// ParseJSON reads a JSON language file, keeping its key order.
func ParseJSON(data []byte) (*Dictionary, error) {
	n, err := document.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*document.Map)
	if !ok {
		return nil, fmt.Errorf("language file root is a %s, want object", document.Describe(n))
	}
	return FromDocument(m)
}

// EncodeJSON renders d as a pretty-printed JSON object with UTF-8 text left unescaped.
func EncodeJSON(d *Dictionary) ([]byte, error) {
	return document.EncodeJSON(d.Document(), "    ")
}
