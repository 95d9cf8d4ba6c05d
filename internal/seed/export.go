package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// ExportTSV writes entries as a tab-separated corpus with a header row.
func ExportTSV(w io.Writer, entries []SeedEntry) error {
	if _, err := fmt.Fprintln(w, "key\tsource_text\ttranslated_text\tlang"); err != nil {
		return fmt.Errorf("write TSV header: %w", err)
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			escapeTSV(e.Key),
			escapeTSV(e.SourceText),
			escapeTSV(e.TranslatedText),
			e.Lang,
		); err != nil {
			return fmt.Errorf("write TSV row: %w", err)
		}
	}
	return nil
}

// ExportJSON writes entries as an indented JSON array.
func ExportJSON(w io.Writer, entries []SeedEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
