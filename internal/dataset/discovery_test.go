package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/almk-dev/nadac/internal/errors"
)

func touch(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestDiscovery_FindDatasets(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "nadac-comparison-dir.csv"), 0755))

	now := time.Now()
	touch(t, dataDir, "nadac-comparison-01-10-2024.csv", now.Add(-48*time.Hour))
	touch(t, dataDir, "nadac-comparison-04-17-2024.csv.lzma", now)
	touch(t, dataDir, "nadac-comparison-02-01-2024.csv.gz", now.Add(-time.Hour))
	touch(t, dataDir, "unrelated.csv", now.Add(time.Hour))

	files, err := NewDiscovery(base, "").FindDatasets("data")
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "nadac-comparison-04-17-2024.csv.lzma", files[0].Name)
	assert.Equal(t, CompressionLZMA, files[0].Compression)
	assert.Equal(t, CompressionGzip, files[1].Compression)
	assert.Equal(t, CompressionNone, files[2].Compression)
}

func TestDiscovery_Latest(t *testing.T) {
	dir := t.TempDir()
	d := NewDiscovery(dir, "")

	_, err := d.Latest(".")
	assert.True(t, errors.Is(err, apperrors.ErrSourceUnavailable))

	want := touch(t, dir, "nadac-comparison-04-17-2024.csv.xz", time.Now())
	got, err := d.Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got.Path)
}

func TestDiscovery_Resolve(t *testing.T) {
	base := t.TempDir()
	d := NewDiscovery(base, "*.csv")

	path, err := d.Resolve("data/explicit.csv", "data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "data", "explicit.csv"), path)

	abs := filepath.Join(base, "abs.csv")
	path, err = d.Resolve(abs, "ignored")
	require.NoError(t, err)
	assert.Equal(t, abs, path)

	touch(t, base, "found.csv", time.Now())
	path, err = d.Resolve("", ".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "found.csv"), path)
}
