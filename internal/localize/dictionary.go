package localize

import (
	"fmt"
	"path"
	"strings"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/langfile"
	"quest-localizer/internal/render"
	"quest-localizer/internal/snbt"
	"quest-localizer/internal/textutil"
)

// DictKind is the file format of a dictionary upload.
type DictKind string

const (
	KindJSON DictKind = "json"
	KindLang DictKind = "lang"
	KindSNBT DictKind = "snbt"
)

// kindOf derives the dictionary format from a file name.
func kindOf(name string) (DictKind, error) {
	switch strings.ToLower(path.Ext(cleanName(name))) {
	case ".json":
		return KindJSON, nil
	case ".lang":
		return KindLang, nil
	case ".snbt":
		return KindSNBT, nil
	default:
		return "", &ValidationError{Field: "Dictionary", Reason: fmt.Sprintf("%s is not a .json, .lang or .snbt dictionary", name)}
	}
}

// LoadDictionary decodes an uploaded dictionary by its extension.
func LoadDictionary(u Upload, dialect langfile.Dialect) (*dict.Dictionary, DictKind, error) {
	kind, err := kindOf(u.Name)
	if err != nil {
		return nil, "", err
	}
	text := []byte(textutil.Decode(u.Data))

	var d *dict.Dictionary
	switch kind {
	case KindJSON:
		d, err = dict.ParseJSON(text)
	case KindLang:
		d, err = langfile.Parse(text, dialect)
	case KindSNBT:
		root, perr := snbt.ParseMap(text)
		if perr != nil {
			return nil, kind, fmt.Errorf("%s: %w", u.Name, perr)
		}
		d, err = dict.FromDocument(root)
	}
	if err != nil {
		return nil, kind, fmt.Errorf("%s: %w", u.Name, err)
	}
	return d, kind, nil
}

// EncodeDictionary renders d in the given format.
func EncodeDictionary(d *dict.Dictionary, kind DictKind, dialect langfile.Dialect, template bool) ([]byte, error) {
	switch kind {
	case KindJSON:
		return render.JSONDictionary(d)
	case KindLang:
		return render.Lang(d, dialect, template), nil
	case KindSNBT:
		return render.SNBTDictionary(d)
	default:
		return nil, fmt.Errorf("unknown dictionary format %q", kind)
	}
}

// cleanName turns an upload name into a relative slash path.
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}
