package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists the quest file types picked up from directories.
var SupportedExtensions = map[string]bool{
	".snbt": true,
}

// skippedDirs hold FTB Quests output rather than quests.
var skippedDirs = map[string]bool{
	"lang": true,
}

// Walker discovers quest files under the paths given on the command line.
type Walker struct {
	extensions map[string]bool
}

// NewWalker creates a Walker for the given extensions, SupportedExtensions when none are given.
func NewWalker(extensions ...string) *Walker {
	exts := SupportedExtensions
	if len(extensions) > 0 {
		exts = make(map[string]bool, len(extensions))
		for _, e := range extensions {
			exts[strings.ToLower(e)] = true
		}
	}
	return &Walker{extensions: exts}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path string
	// Rel is the slash path below the walked root, or the base name for a file argument.
	Rel string
	Ext string
}

// Collect walks every path and returns the entries in argument order. File
// arguments are taken as they are, whatever their extension.
func (w *Walker) Collect(paths []string) ([]FileEntry, error) {
	var entries []FileEntry
	for _, p := range paths {
		found, err := w.Walk(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	return entries, nil
}

// Walk discovers all supported files under root. A file root yields itself.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return []FileEntry{{
			Path: root,
			Rel:  filepath.Base(root),
			Ext:  strings.ToLower(filepath.Ext(root)),
		}}, nil
	}

	var entries []FileEntry

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if info.IsDir() {
			if path != root && skippedDirs[strings.ToLower(info.Name())] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if !w.extensions[ext] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", path, err)
		}
		entries = append(entries, FileEntry{
			Path: path,
			Rel:  filepath.ToSlash(rel),
			Ext:  ext,
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

// ReadFile loads the content of a discovered file.
func (w *Walker) ReadFile(entry FileEntry) ([]byte, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", entry.Rel, err)
	}
	return data, nil
}
