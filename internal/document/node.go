package document

import "fmt"

// Kind identifies the variant of a Node.
type Kind int

const (
	KindInvalid Kind = iota
	KindMap
	KindList
	KindString
	KindScalar
	// KindMixed marks a list whose items do not share one kind (JSON arrays only).
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindString:
		return "string"
	case KindScalar:
		return "scalar"
	case KindMixed:
		return "mixed"
	default:
		return "invalid"
	}
}

// Node is a value in a quest document tree. The set of implementations is closed:
// *Map, *List, *String and *Scalar.
type Node interface {
	Kind() Kind
	Clone() Node
	node()
}

// Field is a named child of a Map.
type Field struct {
	Name  string
	Value Node
}

// Map is an ordered mapping from field name to child node.
type Map struct {
	fields []Field
	index  map[string]int
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

func (*Map) Kind() Kind { return KindMap }
func (*Map) node() {}

// Set stores value under name. An existing field keeps its position.
func (m *Map) Set(name string, value Node) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[name]; ok {
		m.fields[i].Value = value
		return
	}
	m.index[name] = len(m.fields)
	m.fields = append(m.fields, Field{Name: name, Value: value})
}

// Get returns the child stored under name.
func (m *Map) Get(name string) (Node, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.fields[i].Value, true
}

// Has reports whether name is present.
func (m *Map) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Fields returns the fields in stored order. The slice must not be modified.
func (m *Map) Fields() []Field {
	return m.fields
}

// Len returns the number of fields.
func (m *Map) Len() int {
	return len(m.fields)
}

// Clone returns a deep copy.
func (m *Map) Clone() Node {
	out := &Map{
		fields: make([]Field, len(m.fields)),
		index:  make(map[string]int, len(m.fields)),
	}
	for i, f := range m.fields {
		out.fields[i] = Field{Name: f.Name, Value: f.Value.Clone()}
		out.index[f.Name] = i
	}
	return out
}

// CloneMap is Clone with the concrete type preserved.
func (m *Map) CloneMap() *Map {
	return m.Clone().(*Map)
}

// List is an ordered sequence of nodes.
type List struct {
	// Elem is the kind shared by all items, KindInvalid for an empty list
	// and KindMixed for heterogeneous JSON arrays.
	Elem  Kind
	Items []Node
}

// NewList builds a list and derives its element kind from items.
func NewList(items ...Node) *List {
	l := &List{Items: items}
	l.Elem = elemKind(items)
	return l
}

func elemKind(items []Node) Kind {
	if len(items) == 0 {
		return KindInvalid
	}
	k := items[0].Kind()
	for _, it := range items[1:] {
		if it.Kind() != k {
			return KindMixed
		}
	}
	return k
}

func (*List) Kind() Kind { return KindList }
func (*List) node() {}

// Clone returns a deep copy.
func (l *List) Clone() Node {
	items := make([]Node, len(l.Items))
	for i, it := range l.Items {
		items[i] = it.Clone()
	}
	return &List{Elem: l.Elem, Items: items}
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// String is a text leaf.
type String struct {
	Text string
}

// NewString creates a text leaf.
func NewString(text string) *String {
	return &String{Text: text}
}

func (*String) Kind() Kind { return KindString }
func (*String) node() {}
func (s *String) Clone() Node { return &String{Text: s.Text} }

// IsPlaceholder reports whether the text is wrapped in braces or brackets.
func (s *String) IsPlaceholder() bool {
	return IsWrapped(s.Text)
}

// IsWrapped reports whether text starts with '{' and ends with '}', or starts
// with '[' and ends with ']'.
func IsWrapped(text string) bool {
	if len(text) < 2 {
		return false
	}
	first, last := text[0], text[len(text)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// Scalar is an opaque leaf: numbers, booleans, typed arrays, null. Raw is the
// token exactly as it appeared in the source.
type Scalar struct {
	Raw string
}

// NewScalar creates an opaque leaf.
func NewScalar(raw string) *Scalar {
	return &Scalar{Raw: raw}
}

func (*Scalar) Kind() Kind { return KindScalar }
func (*Scalar) node() {}
func (s *Scalar) Clone() Node { return &Scalar{Raw: s.Raw} }

// Lookup follows a chain of map field names from m.
func Lookup(m *Map, path ...string) (Node, bool) {
	var cur Node = m
	for _, name := range path {
		mm, ok := cur.(*Map)
		if !ok {
			return nil, false
		}
		if cur, ok = mm.Get(name); !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupMap is Lookup restricted to a map result.
func LookupMap(m *Map, path ...string) (*Map, bool) {
	n, ok := Lookup(m, path...)
	if !ok {
		return nil, false
	}
	mm, ok := n.(*Map)
	return mm, ok
}

// Text returns the text of a String node, or the raw token of a Scalar.
func Text(n Node) (string, bool) {
	switch v := n.(type) {
	case *String:
		return v.Text, true
	case *Scalar:
		return v.Raw, true
	default:
		return "", false
	}
}

// Describe renders a short human description of a node for error messages.
func Describe(n Node) string {
	switch v := n.(type) {
	case *Map:
		return fmt.Sprintf("map with %d fields", v.Len())
	case *List:
		return fmt.Sprintf("%s list with %d items", v.Elem, v.Len())
	case *String:
		return "string"
	case *Scalar:
		return fmt.Sprintf("scalar %s", v.Raw)
	case nil:
		return "nothing"
	default:
		return fmt.Sprintf("%T", n)
	}
}
