package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Resolve(t *testing.T) {
	m := NewManager("/srv/thumbs")

	assert.Equal(t, filepath.Join("/srv/thumbs", "res", "thumbnails.csv"), m.Resolve(filepath.Join("res", "thumbnails.csv")))
	assert.Equal(t, "/tmp/out.pptx", m.Resolve("/tmp/out.pptx"))
	assert.Equal(t, "", m.Resolve(""))
	assert.Equal(t, "rel.csv", NewManager("").Resolve("rel.csv"))
}

func TestManager_FileExists(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0644))

	assert.True(t, m.FileExists("a.csv"))
	assert.False(t, m.FileExists("b.csv"))
	assert.False(t, m.FileExists("."))
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "deck.pptx")

	err := WriteAtomic(path, func(w io.Writer) error {
		_, err := fmt.Fprint(w, "first")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWriteAtomic_FailureKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	boom := errors.New("boom")
	err := WriteAtomic(path, func(w io.Writer) error {
		_, _ = fmt.Fprint(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be cleaned up")
}

func TestStagingPath(t *testing.T) {
	path := filepath.Join("out", "slides.xlsx")
	a, b := StagingPath(path), StagingPath(path)

	assert.NotEqual(t, a, b)
	assert.Equal(t, "out", filepath.Dir(a))
	assert.Equal(t, ".xlsx", filepath.Ext(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), ".stage-"))
	assert.True(t, strings.HasSuffix(a, "slides.xlsx"))
}

func TestCommit_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))

	staged := StagingPath(path)
	require.NoError(t, os.WriteFile(staged, []byte("new"), 0644))
	require.NoError(t, Commit(staged, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}

func TestCommit_DirectoryMerges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "previews")
	require.NoError(t, os.MkdirAll(path, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "slide-001.png"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "notes.txt"), []byte("keep"), 0644))

	staged := StagingPath(path)
	require.NoError(t, os.MkdirAll(staged, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staged, "slide-001.png"), []byte("new"), 0644))
	require.NoError(t, Commit(staged, path))

	data, err := os.ReadFile(filepath.Join(path, "slide-001.png"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	data, err = os.ReadFile(filepath.Join(path, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))
}

func TestCommit_MissingStaged(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, Commit(filepath.Join(dir, ".stage-x-deck.pptx"), filepath.Join(dir, "deck.pptx")))
}

func TestDiscard(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".stage-a-deck.pptx")
	sub := filepath.Join(dir, ".stage-b-previews")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "slide-001.png"), []byte("x"), 0644))

	Discard(file, sub, filepath.Join(dir, "never-created"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
