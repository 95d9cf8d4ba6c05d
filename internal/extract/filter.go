package extract

import (
	"strings"

	"quest-localizer/internal/document"
)

// IsLocalizable reports whether text should be moved into the dictionary.
// Empty text, {placeholder} references and [bracketed] markers stay in place.
func IsLocalizable(text string) bool {
	if text == "" {
		return false
	}
	return !document.IsWrapped(text)
}

var (
	escaper   = strings.NewReplacer(`%`, `%%`, `"`, `\"`)
	unescaper = strings.NewReplacer(`%%`, `%`, `\"`, `"`)
)

// Escape prepares text for the dictionary: '%' becomes "%%" and '"' becomes `\"`.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Unescape reverses Escape.
func Unescape(text string) string {
	return unescaper.Replace(text)
}

// Placeholder returns the token that replaces an extracted literal.
func Placeholder(key string) string {
	return "{" + key + "}"
}

// PlaceholderKey returns the key inside a {key} token.
func PlaceholderKey(text string) (string, bool) {
	if len(text) < 3 || text[0] != '{' || text[len(text)-1] != '}' {
		return "", false
	}
	return text[1 : len(text)-1], true
}
