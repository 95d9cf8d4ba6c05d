package extract

import (
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// DefaultModpack is the namespace used when no modpack name is given.
const DefaultModpack = "modpack"

// Namespace scopes keys to one modpack and one document.
type Namespace struct {
	Modpack  string
	Document string
}

// Path is the chain of segments from a document root to a field.
type Path struct {
	segments []string
}

// Child appends a map field name.
func (p Path) Child(name string) Path {
	return Path{segments: append(slices.Clip(p.segments), name)}
}

// Item appends a list-of-map child, e.g. "questline3".
func (p Path) Item(name string, index int) Path {
	return p.Child(name + strconv.Itoa(index))
}

// Segments returns a copy of the accumulated segments.
func (p Path) Segments() []string {
	return slices.Clone(p.segments)
}

func (p Path) String() string {
	if len(p.segments) == 0 {
		return "<root>"
	}
	return strings.Join(p.segments, ".")
}

// Key synthesizes the dictionary key for this path. index < 0 means the field
// is not repeated.
func (p Path) Key(ns Namespace, index int) string {
	return Synthesize(ns.Modpack, ns.Document, p.segments, index)
}

// Synthesize joins the namespace, document id and path segments with dots and
// appends index to the final segment when index >= 0. Empty namespace parts
// are left out.
func Synthesize(namespace, documentID string, segments []string, index int) string {
	var sb strings.Builder
	write := func(s string) {
		if s == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(s)
	}
	write(namespace)
	write(documentID)
	for _, s := range segments {
		write(s)
	}
	if index >= 0 {
		sb.WriteString(strconv.Itoa(index))
	}
	return sb.String()
}

// Slug lower-cases s, turns spaces into underscores and drops every rune that is
// not a letter, digit or underscore.
func Slug(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), " ", "_")
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			return r
		}
		return -1
	}, s)
}

// ModpackNamespace derives the key namespace from a modpack name.
func ModpackNamespace(name string) string {
	if ns := Slug(name); ns != "" {
		return ns
	}
	return DefaultModpack
}

// DocumentIDs hands out document identifiers that are unique within one run.
type DocumentIDs struct {
	used map[string]int
}

// NewDocumentIDs creates an empty allocator.
func NewDocumentIDs() *DocumentIDs {
	return &DocumentIDs{used: make(map[string]int)}
}

// Next derives an id from a file name (extension stripped, slugged). A repeated
// id gets a numeric suffix starting at _2.
func (a *DocumentIDs) Next(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	id := Slug(base)
	if id == "" {
		id = "document"
	}
	n := a.used[id]
	a.used[id] = n + 1
	if n == 0 {
		return id
	}
	for {
		n++
		candidate := id + "_" + strconv.Itoa(n)
		if _, taken := a.used[candidate]; !taken {
			a.used[candidate] = 1
			return candidate
		}
	}
}
