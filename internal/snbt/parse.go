// Package snbt reads and writes the stringified NBT dialect used by FTB Quests
// (newline separated, optional commas, suffixed numbers, typed arrays).
package snbt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"quest-localizer/internal/document"
)

// SyntaxError reports malformed SNBT input.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("snbt: line %d column %d: %s", e.Line, e.Column, e.Msg)
}

// Parse reads one SNBT value. FTB Quests files hold a single compound.
func Parse(data []byte) (document.Node, error) {
	p := &parser{src: data, line: 1, col: 1}
	p.skipBOM()
	p.skipSpace()
	n, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q after value", p.peek())
	}
	return n, nil
}

// ParseMap is Parse for inputs whose root must be a compound.
func ParseMap(data []byte) (*document.Map, error) {
	n, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*document.Map)
	if !ok {
		return nil, fmt.Errorf("snbt: root is a %s, want compound", document.Describe(n))
	}
	return m, nil
}

type parser struct {
	src  []byte
	pos  int
	line int
	col  int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line, Column: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipBOM() {
	if len(p.src) >= 3 && p.src[0] == 0xEF && p.src[1] == 0xBB && p.src[2] == 0xBF {
		p.pos = 3
	}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n':
			p.advance()
		default:
			return
		}
	}
}

// skipSeparators skips whitespace and the optional commas between entries.
func (p *parser) skipSeparators() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\r', '\n', ',':
			p.advance()
		default:
			return
		}
	}
}

func (p *parser) value() (document.Node, error) {
	if p.eof() {
		return nil, p.errorf("unexpected end of input")
	}
	switch c := p.peek(); c {
	case '{':
		return p.compound()
	case '[':
		if raw, ok, err := p.typedArray(); ok || err != nil {
			if err != nil {
				return nil, err
			}
			return document.NewScalar(raw), nil
		}
		return p.list()
	case '"', '\'':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return document.NewString(s), nil
	default:
		tok := p.bare()
		if tok == "" {
			return nil, p.errorf("unexpected %q", c)
		}
		return document.NewScalar(tok), nil
	}
}

func (p *parser) compound() (*document.Map, error) {
	p.advance() // {
	m := document.NewMap()
	for {
		p.skipSeparators()
		if p.eof() {
			return nil, p.errorf("unterminated compound")
		}
		if p.peek() == '}' {
			p.advance()
			return m, nil
		}
		key, err := p.key()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.advance()
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		if m.Has(key) {
			return nil, p.errorf("duplicate key %q", key)
		}
		m.Set(key, v)
	}
}

func (p *parser) key() (string, error) {
	if c := p.peek(); c == '"' || c == '\'' {
		return p.quoted()
	}
	k := p.bare()
	if k == "" {
		return "", p.errorf("expected key, found %q", p.peek())
	}
	return k, nil
}

func (p *parser) list() (*document.List, error) {
	p.advance() // [
	var items []document.Node
	for {
		p.skipSeparators()
		if p.eof() {
			return nil, p.errorf("unterminated list")
		}
		if p.peek() == ']' {
			p.advance()
			return document.NewList(items...), nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

// typedArray consumes "[B; ...]", "[I; ...]" or "[L; ...]" and returns it in
// canonical form. ok is false when the list is an ordinary one.
func (p *parser) typedArray() (string, bool, error) {
	rest := p.src[p.pos+1:]
	if len(rest) < 2 || rest[1] != ';' {
		return "", false, nil
	}
	kind := rest[0]
	if kind != 'B' && kind != 'I' && kind != 'L' {
		return "", false, nil
	}
	p.advance() // [
	p.advance() // kind
	p.advance() // ;
	var elems []string
	for {
		p.skipSeparators()
		if p.eof() {
			return "", true, p.errorf("unterminated typed array")
		}
		if p.peek() == ']' {
			p.advance()
			break
		}
		tok := p.bare()
		if tok == "" {
			return "", true, p.errorf("unexpected %q in typed array", p.peek())
		}
		elems = append(elems, tok)
	}
	if len(elems) == 0 {
		return "[" + string(kind) + ";]", true, nil
	}
	return "[" + string(kind) + "; " + strings.Join(elems, ", ") + "]", true, nil
}

func isBare(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.', c == '+':
		return true
	}
	return false
}

func (p *parser) bare() string {
	start := p.pos
	for !p.eof() && isBare(p.peek()) {
		p.advance()
	}
	return string(p.src[start:p.pos])
}

func (p *parser) quoted() (string, error) {
	quote := p.advance()
	var sb strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.advance()
		switch c {
		case quote:
			return sb.String(), nil
		case '\\':
			if p.eof() {
				return "", p.errorf("unterminated escape")
			}
			e := p.advance()
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'u':
				r, err := p.unicodeEscape()
				if err != nil {
					return "", err
				}
				sb.WriteRune(r)
			default:
				// \\, \", \' and anything unknown keep the escaped byte.
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
		}
	}
}

func (p *parser) unicodeEscape() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.errorf("short \\u escape")
	}
	var r rune
	for i := 0; i < 4; i++ {
		c := p.advance()
		var d byte
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, p.errorf("bad hex digit %q in \\u escape", c)
		}
		r = r<<4 | rune(d)
	}
	if !utf8.ValidRune(r) {
		return utf8.RuneError, nil
	}
	return r, nil
}
