package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "github.com/almk-dev/nadac/internal/errors"
)

// DefaultPattern matches published comparison files in any supported encoding.
const DefaultPattern = "nadac-comparison-*.csv*"

// FileInfo represents information about a discovered dataset file
type FileInfo struct {
	Path        string
	Name        string
	Size        int64
	ModTime     time.Time
	Compression Compression
}

// Discovery finds dataset files under a base path.
type Discovery struct {
	basePath string
	pattern  string
}

// NewDiscovery creates a discovery rooted at basePath. An empty pattern uses
// DefaultPattern.
func NewDiscovery(basePath, pattern string) *Discovery {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Discovery{basePath: basePath, pattern: pattern}
}

// resolve joins relative directories onto the base path
func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindDatasets lists matching files in dir, newest first.
func (d *Discovery) FindDatasets(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	matches, err := filepath.Glob(filepath.Join(fullPath, d.pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", d.pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:        match,
			Name:        info.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			Compression: compressionFromName(info.Name()),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// Latest returns the newest dataset in dir.
func (d *Discovery) Latest(dir string) (FileInfo, error) {
	files, err := d.FindDatasets(dir)
	if err != nil {
		return FileInfo{}, apperrors.NewSourceUnavailableError(d.resolve(dir), err)
	}
	if len(files) == 0 {
		return FileInfo{}, apperrors.NewSourceUnavailableError(d.resolve(dir),
			fmt.Errorf("no file matching %s", d.pattern))
	}
	return files[0], nil
}

// Resolve returns path when set, otherwise the newest dataset in dir.
func (d *Discovery) Resolve(path, dir string) (string, error) {
	if path != "" {
		return d.resolve(path), nil
	}
	latest, err := d.Latest(dir)
	if err != nil {
		return "", err
	}
	return latest.Path, nil
}

// compressionFromName guesses the encoding from the file suffix; Open still
// trusts the magic bytes.
func compressionFromName(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xz":
		return CompressionXZ
	case ".lzma":
		return CompressionLZMA
	case ".gz":
		return CompressionGzip
	case ".zst":
		return CompressionZstd
	default:
		return CompressionNone
	}
}
