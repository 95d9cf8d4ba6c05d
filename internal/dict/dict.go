// Package dict holds the ordered key/value dictionaries produced by extraction
// and consumed by translation and rendering.
package dict

import (
	"slices"
	"strings"
)

// Value is a dictionary entry: a single text, or a list of lines for the
// dictionary dialects that allow arrays.
type Value struct {
	Lines []string
	List  bool
}

// Text creates a single-text value.
func Text(s string) Value {
	return Value{Lines: []string{s}}
}

// Lines creates a list value.
func Lines(lines ...string) Value {
	return Value{Lines: slices.Clone(lines), List: true}
}

// String returns the text of a single value, or the lines joined by newlines.
func (v Value) String() string {
	if !v.List {
		if len(v.Lines) == 0 {
			return ""
		}
		return v.Lines[0]
	}
	return strings.Join(v.Lines, "\n")
}

// IsBlank reports whether every line is empty.
func (v Value) IsBlank() bool {
	for _, l := range v.Lines {
		if l != "" {
			return false
		}
	}
	return true
}

// Len is the number of lines (1 for a single text).
func (v Value) Len() int {
	if !v.List {
		return 1
	}
	return len(v.Lines)
}

// Equal compares two values including their shape.
func (v Value) Equal(o Value) bool {
	if v.List != o.List {
		return false
	}
	if !v.List {
		return v.String() == o.String()
	}
	return slices.Equal(v.Lines, o.Lines)
}

func (v Value) clone() Value {
	return Value{Lines: slices.Clone(v.Lines), List: v.List}
}

// Dictionary is a mapping from key to value that remembers insertion order.
// It is not safe for concurrent use.
type Dictionary struct {
	keys   []string
	values map[string]Value
}

// New creates an empty dictionary.
func New() *Dictionary {
	return &Dictionary{values: make(map[string]Value)}
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() []string {
	return slices.Clone(d.keys)
}

// Get returns the value for key.
func (d *Dictionary) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Dictionary) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Set stores value under key. A new key goes to the end; an existing key keeps its position.
func (d *Dictionary) Set(key string, v Value) {
	if d.values == nil {
		d.values = make(map[string]Value)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

// SetText is Set with a single-text value.
func (d *Dictionary) SetText(key, text string) {
	d.Set(key, Text(text))
}

// Add stores value under key unless the key already exists. It reports whether it stored.
func (d *Dictionary) Add(key string, v Value) bool {
	if d.Has(key) {
		return false
	}
	d.Set(key, v)
	return true
}

// Delete removes key.
func (d *Dictionary) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == key })
}

// Each calls fn for every entry in order until fn returns false.
func (d *Dictionary) Each(fn func(key string, v Value) bool) {
	for _, k := range d.keys {
		if !fn(k, d.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy.
func (d *Dictionary) Clone() *Dictionary {
	out := &Dictionary{
		keys:   slices.Clone(d.keys),
		values: make(map[string]Value, len(d.values)),
	}
	for k, v := range d.values {
		out.values[k] = v.clone()
	}
	return out
}

// Subset returns a new dictionary with the given keys that are present in d, in d's order.
func (d *Dictionary) Subset(keys []string) *Dictionary {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	out := New()
	for _, k := range d.keys {
		if _, ok := want[k]; ok {
			out.Set(k, d.values[k].clone())
		}
	}
	return out
}

// Equal reports whether both dictionaries hold the same entries in the same order.
func (d *Dictionary) Equal(o *Dictionary) bool {
	if !slices.Equal(d.keys, o.keys) {
		return false
	}
	for _, k := range d.keys {
		if !d.values[k].Equal(o.values[k]) {
			return false
		}
	}
	return true
}

// MergeExisting seeds dst with every entry of supplied that dst does not hold yet.
// Entries already in dst are kept. Extraction afterwards only adds keys, so a
// supplied value always wins over a freshly extracted one.
func MergeExisting(dst, supplied *Dictionary) {
	if supplied == nil {
		return
	}
	for _, k := range supplied.keys {
		dst.Add(k, supplied.values[k].clone())
	}
}

// Template returns a copy of d with every value blanked. List values become a
// single empty text.
func Template(d *Dictionary) *Dictionary {
	out := New()
	for _, k := range d.keys {
		out.Set(k, Text(""))
	}
	return out
}

// Reconcile prepares target to receive translations of source. An empty target
// becomes a full copy of source; otherwise only missing keys are copied and
// existing target values stay untouched. target may be nil.
func Reconcile(source, target *Dictionary) *Dictionary {
	if target == nil || target.Len() == 0 {
		return source.Clone()
	}
	for _, k := range source.keys {
		target.Add(k, source.values[k].clone())
	}
	return target
}
