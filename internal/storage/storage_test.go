package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:6543/")
	require.NoError(t, err)

	name, err := s.Save("Poster.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Len(t, name, 32+len(".png"))

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	url := s.URL(&name)
	require.NotNil(t, url)
	assert.Equal(t, "http://localhost:6543/static/uploads/"+name, *url)

	require.NoError(t, s.Delete(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(name), "deleting twice is fine")
}

func TestSaveRejectsNonImages(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://x")
	require.NoError(t, err)

	for _, n := range []string{"evil.exe", "noext", "archive.tar.gz"} {
		_, err := s.Save(n, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidImage, n)
	}
}

func TestDeleteRejectsPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://x")
	require.NoError(t, err)
	assert.Error(t, s.Delete("../etc/passwd"))
}

func TestURLNil(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://x")
	require.NoError(t, err)
	empty := ""
	assert.Nil(t, s.URL(nil))
	assert.Nil(t, s.URL(&empty))
}
