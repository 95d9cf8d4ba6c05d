package snbt

import (
	"bytes"
	"fmt"
	"strings"

	"quest-localizer/internal/document"
)

// Marshal renders a tree in the layout FTB Quests writes: tab indentation,
// one entry per line, no separating commas.
func Marshal(n document.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := write(&buf, n, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func indent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteByte('\t')
	}
}

func write(buf *bytes.Buffer, n document.Node, depth int) error {
	switch v := n.(type) {
	case *document.Map:
		if v.Len() == 0 {
			buf.WriteString("{ }")
			return nil
		}
		buf.WriteString("{\n")
		for _, f := range v.Fields() {
			indent(buf, depth+1)
			buf.WriteString(Key(f.Name))
			buf.WriteString(": ")
			if err := write(buf, f.Value, depth+1); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			buf.WriteByte('\n')
		}
		indent(buf, depth)
		buf.WriteByte('}')
	case *document.List:
		if v.Len() == 0 {
			buf.WriteString("[ ]")
			return nil
		}
		buf.WriteString("[\n")
		for i, it := range v.Items {
			indent(buf, depth+1)
			if err := write(buf, it, depth+1); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
			buf.WriteByte('\n')
		}
		indent(buf, depth)
		buf.WriteByte(']')
	case *document.String:
		buf.WriteString(Quote(v.Text))
	case *document.Scalar:
		buf.WriteString(v.Raw)
	default:
		return fmt.Errorf("snbt: cannot write %T", n)
	}
	return nil
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Quote returns text as a double-quoted SNBT string.
func Quote(text string) string {
	return `"` + quoteReplacer.Replace(text) + `"`
}

// Key returns name bare when it only holds key-safe characters, quoted otherwise.
func Key(name string) string {
	if name == "" {
		return `""`
	}
	for i := 0; i < len(name); i++ {
		if !isBare(name[i]) {
			return Quote(name)
		}
	}
	return name
}
