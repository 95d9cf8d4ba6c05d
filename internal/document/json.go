package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/valyala/fastjson"
)

// ParseJSON reads a JSON document into a tree, keeping object keys in file order.
// Numbers, booleans and null become Scalars holding their original text.
func ParseJSON(data []byte) (Node, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return fromValue(v)
}

func fromValue(v *fastjson.Value) (Node, error) {
	switch v.Type() {
	case fastjson.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return nil, err
		}
		m := NewMap()
		var visitErr error
		obj.Visit(func(key []byte, child *fastjson.Value) {
			if visitErr != nil {
				return
			}
			n, err := fromValue(child)
			if err != nil {
				visitErr = fmt.Errorf("field %q: %w", key, err)
				return
			}
			m.Set(string(key), n)
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return m, nil
	case fastjson.TypeArray:
		arr, err := v.Array()
		if err != nil {
			return nil, err
		}
		items := make([]Node, 0, len(arr))
		for i, child := range arr {
			n, err := fromValue(child)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, n)
		}
		return NewList(items...), nil
	case fastjson.TypeString:
		b, err := v.StringBytes()
		if err != nil {
			return nil, err
		}
		return NewString(string(b)), nil
	case fastjson.TypeNumber, fastjson.TypeTrue, fastjson.TypeFalse, fastjson.TypeNull:
		return NewScalar(v.String()), nil
	default:
		return nil, fmt.Errorf("unsupported json type %s", v.Type())
	}
}

// EncodeJSON renders a tree as indented JSON. Non-ASCII text is written as
// UTF-8 and HTML characters are not escaped.
func EncodeJSON(n Node, indent string) ([]byte, error) {
	w := &jsonWriter{indent: indent}
	if err := w.write(n, 0); err != nil {
		return nil, err
	}
	w.buf.WriteByte('\n')
	return w.buf.Bytes(), nil
}

type jsonWriter struct {
	buf    bytes.Buffer
	indent string
}

func (w *jsonWriter) newline(depth int) {
	w.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		w.buf.WriteString(w.indent)
	}
}

func (w *jsonWriter) write(n Node, depth int) error {
	switch v := n.(type) {
	case *Map:
		if v.Len() == 0 {
			w.buf.WriteString("{}")
			return nil
		}
		w.buf.WriteByte('{')
		for i, f := range v.Fields() {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			w.buf.Write(QuoteJSON(f.Name))
			w.buf.WriteString(": ")
			if err := w.write(f.Value, depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte('}')
	case *List:
		if v.Len() == 0 {
			w.buf.WriteString("[]")
			return nil
		}
		w.buf.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.newline(depth + 1)
			if err := w.write(it, depth+1); err != nil {
				return err
			}
		}
		w.newline(depth)
		w.buf.WriteByte(']')
	case *String:
		w.buf.Write(QuoteJSON(v.Text))
	case *Scalar:
		w.buf.WriteString(v.Raw)
	default:
		return fmt.Errorf("encode json: unexpected node %T", n)
	}
	return nil
}

// QuoteJSON returns s as a JSON string literal without HTML escaping.
func QuoteJSON(s string) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return bytes.TrimRight(b.Bytes(), "\n")
}
