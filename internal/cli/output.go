package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quest-localizer/internal/extract"
	"quest-localizer/internal/langfile"
	"quest-localizer/internal/localize"
)

// finish writes the artifacts of run into outDir and prints a summary.
func finish(cmd *cobra.Command, run *localize.Run, outDir string) error {
	paths, err := writeArtifacts(outDir, run)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(out, p)
	}

	if r := run.Report; r != nil {
		log.Info().
			Str("run_id", run.ID).
			Int("batches", r.Batches).
			Int("translated", r.Translated).
			Int("cached", r.Cached).
			Int("kept", r.Kept).
			Int("skipped", len(r.Skipped)).
			Dur("duration", r.Duration).
			Msg("Translation summary")
		if failed := r.FailedKeys(); len(failed) > 0 {
			log.Warn().Strs("keys", failed).Msg("Keys left untranslated, retry them with the fix command")
		}
	}
	return nil
}

// writeArtifacts stores every artifact below outDir and returns the written paths.
func writeArtifacts(outDir string, run *localize.Run) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	paths := make([]string, 0, len(run.Artifacts))
	for _, a := range run.Artifacts {
		outPath := filepath.Join(outDir, filepath.FromSlash(a.Name))
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return paths, fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(outPath, a.Data, 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", a.Name, err)
		}
		paths = append(paths, outPath)
	}
	return paths, nil
}

// describeError renders the error kinds a user can act on.
func describeError(err error) string {
	var (
		ve *localize.ValidationError
		se *extract.StructuralError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return "Cancelled"
	case errors.As(err, &ve):
		return "Request rejected:\n" + bullets(err)
	case errors.As(err, &se):
		return "Quest files have an unexpected structure:\n" + bullets(err)
	default:
		return err.Error()
	}
}

func bullets(err error) string {
	lines := strings.Split(err.Error(), "\n")
	for i, l := range lines {
		lines[i] = "  - " + l
	}
	return strings.Join(lines, "\n")
}

func dialectOrDefault(name string) langfile.Dialect {
	d, err := langfile.DialectByName(name)
	if err != nil {
		log.Warn().Str("dialect", name).Msg("Unknown lang dialect, using backslash-n")
		return langfile.BackslashN
	}
	return d
}
