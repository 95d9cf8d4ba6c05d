package interpolation

import (
	"fmt"
	"regexp"
	"strings"
)

// Mapping stores the original token and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

// varMatch stores a detected token position.
type varMatch struct {
	start, end int
	value      string
}

// patterns detect tokens in quest text that a translator must not touch.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`[&§][0-9a-z]`),                         // &a, §l color and format codes
	regexp.MustCompile(`\\[&"]`),                               // \& and \" escapes
	regexp.MustCompile(`%(?:[0-9]+\$)?[-+0-9]*\.?[0-9]*[sdf]`), // %s, %d, %1$s
	regexp.MustCompile(`%%`),                                   // escaped percent literal
	regexp.MustCompile(`\{[^{}\s]+\}`),                         // {@pagebreak}, {pack.chapter.title}
	regexp.MustCompile(`\{\{var_[0-9]+\}\}`),                   // already protected
}

// Protect replaces all tokens with safe {{var_N}} placeholders.
// Returns the safe string and a mapping to restore originals after translation.
func Protect(text string) (string, []Mapping) {
	var allMatches []varMatch
	for _, p := range patterns {
		locs := p.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			allMatches = append(allMatches, varMatch{
				start: loc[0],
				end:   loc[1],
				value: text[loc[0]:loc[1]],
			})
		}
	}

	if len(allMatches) == 0 {
		return text, nil
	}

	sortVarMatches(allMatches)

	// Remove overlapping matches (keep the first/longest).
	var filtered []varMatch
	lastEnd := -1
	for _, m := range allMatches {
		if m.start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.end
		}
	}

	mappings := make([]Mapping, len(filtered))
	var sb strings.Builder
	prev := 0
	for i, m := range filtered {
		placeholder := fmt.Sprintf("{{var_%d}}", i+1)
		mappings[i] = Mapping{Original: m.value, Placeholder: placeholder, Index: i + 1}
		sb.WriteString(text[prev:m.start])
		sb.WriteString(placeholder)
		prev = m.end
	}
	sb.WriteString(text[prev:])

	return sb.String(), mappings
}

// Restore replaces {{var_N}} placeholders back with the original tokens.
// Translators sometimes add spaces inside the braces; those forms are accepted too.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		if strings.Contains(result, m.Placeholder) {
			result = strings.Replace(result, m.Placeholder, m.Original, 1)
			continue
		}
		loose := regexp.MustCompile(fmt.Sprintf(`\{\s*\{\s*var_%d\s*\}\s*\}`, m.Index))
		if loc := loose.FindStringIndex(result); loc != nil {
			result = result[:loc[0]] + m.Original + result[loc[1]:]
		}
	}
	return result
}

// Missing returns the original tokens of mappings that do not occur in text.
func Missing(text string, mappings []Mapping) []string {
	var missing []string
	for _, m := range mappings {
		if !strings.Contains(text, m.Original) {
			missing = append(missing, m.Original)
		}
	}
	return missing
}

// EscapeStrayAmpersands prefixes '\' to every '&' that does not start a color
// code and is not escaped already, so FTB Quests renders it literally.
func EscapeStrayAmpersands(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	var sb strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '&' && (i == 0 || text[i-1] != '\\') && !isCodeChar(text, i+1) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isCodeChar(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	c := text[i]
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')
}

// sortVarMatches sorts by start position, then by length (descending) for overlaps.
func sortVarMatches(matches []varMatch) {
	for i := 1; i < len(matches); i++ {
		key := matches[i]
		j := i - 1
		for j >= 0 && (matches[j].start > key.start ||
			(matches[j].start == key.start && (matches[j].end-matches[j].start) < (key.end-key.start))) {
			matches[j+1] = matches[j]
			j--
		}
		matches[j+1] = key
	}
}
