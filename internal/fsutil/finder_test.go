package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isYAML(p string) bool { return strings.HasSuffix(p, ".yaml") }

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yaml", "notes.txt", "nested/c.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
	}
	return dir
}

func TestFindFiles(t *testing.T) {
	dir := setup(t)
	files, err := FindFiles(dir, isYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	assert.Panics(t, func() { _, _ = FindFiles(dir, nil) })
}

func TestExpand(t *testing.T) {
	dir := setup(t)
	txt := filepath.Join(dir, "notes.txt")
	files, err := Expand([]string{txt, filepath.Join(dir, "nested"), filepath.Join(dir, "nested", "c.yaml")}, isYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{txt, filepath.Join(dir, "nested", "c.yaml")}, files)

	_, err = Expand([]string{filepath.Join(dir, "absent")}, isYAML)
	assert.ErrorContains(t, err, "cannot access")
}
