package translation

import (
	"fmt"
	"unicode/utf8"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
)

// entryOverhead covers the quotes, colon and separators around one JSON entry.
const entryOverhead = 4

type entry struct {
	key   string
	value dict.Value
}

type batch struct {
	index   int
	entries []entry
}

func (b batch) keys() []string {
	keys := make([]string, len(b.entries))
	for i, e := range b.entries {
		keys[i] = e.key
	}
	return keys
}

func (b batch) dictionary() *dict.Dictionary {
	d := dict.New()
	for _, e := range b.entries {
		d.Set(e.key, e.value)
	}
	return d
}

// EstimateTokens approximates the prompt cost of one entry: four ASCII bytes
// per token, one token per other rune.
func EstimateTokens(key string, v dict.Value) int {
	n := entryOverhead + estimateText(key)
	for _, l := range v.Lines {
		n += estimateText(l)
	}
	return n
}

func estimateText(s string) int {
	ascii, other := 0, 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r < utf8.RuneSelf {
			ascii++
		} else {
			other++
		}
		i += size
	}
	return (ascii+3)/4 + other
}

// untranslatable reports whether every line is blank or a bracketed or braced
// literal, so the value reads the same in every language.
func untranslatable(v dict.Value) bool {
	for _, l := range v.Lines {
		if l != "" && !document.IsWrapped(l) {
			return false
		}
	}
	return true
}

// validate checks a translator reply against its request. Accepted entries
// follow the request order.
func validate(request, reply *dict.Dictionary) (*dict.Dictionary, []*ShapeError) {
	accepted := dict.New()
	var rejected []*ShapeError
	request.Each(func(key string, want dict.Value) bool {
		got, ok := reply.Get(key)
		if !ok {
			rejected = append(rejected, &ShapeError{Key: key, Reason: "missing from reply"})
			return true
		}
		// A one-line list for a single text is a common reply slip.
		if !want.List && got.List && len(got.Lines) == 1 {
			got = dict.Text(got.Lines[0])
		}
		switch {
		case want.List != got.List:
			rejected = append(rejected, &ShapeError{Key: key, Reason: fmt.Sprintf("want %s, got %s", shapeName(want), shapeName(got))})
		case want.List && len(want.Lines) != len(got.Lines):
			rejected = append(rejected, &ShapeError{Key: key, Reason: fmt.Sprintf("want %d lines, got %d", len(want.Lines), len(got.Lines))})
		case got.IsBlank() && !want.IsBlank():
			rejected = append(rejected, &ShapeError{Key: key, Reason: "empty translation"})
		default:
			accepted.Set(key, got)
		}
		return true
	})
	return accepted, rejected
}

func shapeName(v dict.Value) string {
	if v.List {
		return "list"
	}
	return "text"
}
