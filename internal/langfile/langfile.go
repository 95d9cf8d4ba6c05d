// Package langfile reads and writes Minecraft .lang files: one key=value pair
// per line, '#' comments, newlines inside values escape-coded.
package langfile

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"quest-localizer/internal/dict"
)

// ParseEscapesHeader tells Better Questing to decode escape sequences in values.
const ParseEscapesHeader = "#PARSE_ESCAPES"

// Dialect selects how newlines inside values are written.
type Dialect struct {
	Name string
	// Newline is the two-character sequence standing for a line break.
	Newline string
	// Header writes ParseEscapesHeader and a blank line before the entries.
	Header bool
}

var (
	// BackslashN is the dialect Better Questing reads when the file starts with #PARSE_ESCAPES.
	BackslashN = Dialect{Name: "backslash-n", Newline: `\n`, Header: true}
	// PercentN is the legacy dialect where %n marks a line break.
	PercentN = Dialect{Name: "percent-n", Newline: "%n"}
)

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", BackslashN.Name, `\n`:
		return BackslashN, nil
	case PercentN.Name, "%n":
		return PercentN, nil
	default:
		return Dialect{}, fmt.Errorf("unknown lang dialect %q", name)
	}
}

// Parse reads a .lang file. Empty lines and lines starting with '#' are skipped,
// the key ends at the first '=', and the dialect's newline sequence becomes a
// line break.
func Parse(data []byte, dialect Dialect) (*dict.Dictionary, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	d := dict.New()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		eqIdx := strings.Index(line, "=")
		if eqIdx < 0 {
			log.Debug().Int("line", lineNum).Msg("Skipping lang line without '='")
			continue
		}

		key := line[:eqIdx]
		value := strings.ReplaceAll(line[eqIdx+1:], dialect.Newline, "\n")
		d.SetText(key, value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lang file: %w", err)
	}

	return d, nil
}

// Encode writes d as a .lang file in insertion order. Blank values are dropped
// unless keepBlank is set (template files). List values are joined with line breaks.
func Encode(d *dict.Dictionary, dialect Dialect, keepBlank bool) []byte {
	var buf bytes.Buffer
	if dialect.Header {
		buf.WriteString(ParseEscapesHeader)
		buf.WriteString("\n\n")
	}
	d.Each(func(key string, v dict.Value) bool {
		if v.IsBlank() && !keepBlank {
			return true
		}
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(strings.ReplaceAll(v.String(), "\n", dialect.Newline))
		buf.WriteByte('\n')
		return true
	})
	return buf.Bytes()
}
