package safeio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFSAllowsAbsoluteUnderRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	fs, err := NewSafeFS(dir)
	require.NoError(t, err)
	b, err := fs.SafeReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestSafeFSRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewSafeFS(dir)
	require.NoError(t, err)

	_, err = fs.SafeReadFile("../etc/passwd")
	assert.Error(t, err)
	assert.Error(t, fs.SafeWriteFile("../x.txt", []byte("x"), 0o644))
}

func TestSafeFSRejectsSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	root := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(target, []byte("s"), 0o644))
	if err := os.Symlink(target, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}

	fs, err := NewSafeFS(root)
	require.NoError(t, err)
	_, err = fs.SafeReadFile("link.txt")
	assert.Error(t, err)
	assert.Error(t, fs.SafeWriteFile("link.txt", []byte("x"), 0o644))
}

func TestSafeWriteFileKeepsModeAndCreates(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "Run.java")
	require.NoError(t, os.WriteFile(p, []byte("old"), 0o600))

	fs, err := NewSafeFS(dir)
	require.NoError(t, err)
	require.NoError(t, fs.SafeWriteFile(p, []byte("new"), 0o644))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	b, _ := os.ReadFile(p)
	assert.Equal(t, "new", string(b))

	require.NoError(t, fs.SafeWriteFile("fresh.java", []byte("x"), 0o644))
	b, err = os.ReadFile(filepath.Join(dir, "fresh.java"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(b))
}
