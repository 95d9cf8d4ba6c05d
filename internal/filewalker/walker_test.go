package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func rels(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Rel
	}
	return out
}

func TestWalkFindsQuestFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data.snbt"), "{}")
	writeFile(t, filepath.Join(root, "chapters", "mining.snbt"), "{}")
	writeFile(t, filepath.Join(root, "chapters", "Basics.SNBT"), "{}")
	writeFile(t, filepath.Join(root, "chapters", "notes.txt"), "x")
	writeFile(t, filepath.Join(root, "lang", "en_us.snbt"), "{}")

	entries, err := NewWalker().Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"chapters/Basics.SNBT", "chapters/mining.snbt", "data.snbt"}, rels(entries))
	assert.Equal(t, ".snbt", entries[0].Ext)

	data, err := NewWalker().ReadFile(entries[2])
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestCollectTakesFilesAsGiven(t *testing.T) {
	root := t.TempDir()
	db := filepath.Join(root, "DefaultQuests.json")
	writeFile(t, db, "{}")
	writeFile(t, filepath.Join(root, "quests", "a.snbt"), "{}")

	entries, err := NewWalker().Collect([]string{db, filepath.Join(root, "quests")})
	require.NoError(t, err)
	assert.Equal(t, []string{"DefaultQuests.json", "a.snbt"}, rels(entries))

	_, err = NewWalker().Collect([]string{filepath.Join(root, "missing")})
	assert.Error(t, err)
}

func TestWalkerExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "en_us.lang"), "a=b")
	writeFile(t, filepath.Join(root, "c.snbt"), "{}")

	entries, err := NewWalker(".LANG").Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"en_us.lang"}, rels(entries))
}
