// Package render turns processed documents and dictionaries back into files.
package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
	"quest-localizer/internal/extract"
	"quest-localizer/internal/langfile"
	"quest-localizer/internal/snbt"
)

// Artifact is one output file.
type Artifact struct {
	Name string
	Data []byte
}

// Tree renders an FTB Quests document. Placeholders are written verbatim.
func Tree(doc *document.Map) ([]byte, error) {
	return snbt.Marshal(doc)
}

// QuestDatabase renders a Better Questing database with 4-space indentation.
func QuestDatabase(doc *document.Map) ([]byte, error) {
	return document.EncodeJSON(doc, "    ")
}

// Lang renders a .lang dictionary. Blank values are dropped unless template is set.
func Lang(d *dict.Dictionary, dialect langfile.Dialect, template bool) []byte {
	return langfile.Encode(d, dialect, template)
}

// JSONDictionary renders an ordered JSON language file.
func JSONDictionary(d *dict.Dictionary) ([]byte, error) {
	return dict.EncodeJSON(d)
}

// SNBTDictionary renders an FTB Quests lang/<locale>.snbt file.
func SNBTDictionary(d *dict.Dictionary) ([]byte, error) {
	return snbt.Marshal(d.Document())
}

// Inline returns a copy of doc with every {key} placeholder that d knows
// replaced by its unescaped text. Unknown placeholders stay.
func Inline(doc *document.Map, d *dict.Dictionary) *document.Map {
	out := doc.CloneMap()
	inlineNode(out, d)
	return out
}

func inlineNode(n document.Node, d *dict.Dictionary) {
	switch v := n.(type) {
	case *document.Map:
		for _, f := range v.Fields() {
			inlineNode(f.Value, d)
		}
	case *document.List:
		for _, it := range v.Items {
			inlineNode(it, d)
		}
	case *document.String:
		key, ok := extract.PlaceholderKey(v.Text)
		if !ok {
			return
		}
		if val, ok := d.Get(key); ok {
			v.Text = extract.Unescape(val.String())
		}
	case *document.Scalar:
	}
}

// Bundle packs artifacts into a zip archive in the given order.
func Bundle(artifacts []Artifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		name := strings.TrimLeft(strings.ReplaceAll(a.Name, "\\", "/"), "/")
		if name == "" || seen[name] {
			return nil, fmt.Errorf("bundle: bad or duplicate entry name %q", a.Name)
		}
		seen[name] = true

		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("bundle %s: %w", name, err)
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, fmt.Errorf("bundle %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	return buf.Bytes(), nil
}
