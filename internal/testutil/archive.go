package testutil

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Entry is one file written into a test archive. Entries are written in
// slice order, which is also the order the scanner will traverse them.
type Entry struct {
	Name string
	Data []byte
}

// Link returns the bytes of a link unit pointing at a native implementation.
func Link(key string) []byte {
	return []byte(key + "\n")
}

// WriteArchive creates dir/name as a zip archive holding the given entries and
// returns its path.
func WriteArchive(t *testing.T, dir, name string, entries ...Entry) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		_, err = w.Write(e.Data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}
