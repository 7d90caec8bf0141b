package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	apperrors "github.com/almk-dev/nadac/internal/errors"
)

// Compression identifies how a dataset file is encoded on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionXZ   Compression = "xz"
	CompressionLZMA Compression = "lzma"
	CompressionZstd Compression = "zstd"
)

var (
	magicXZ   = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}
	magicGzip = []byte{0x1F, 0x8B}
	magicZstd = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

const sniffLen = 6

// DetectCompression picks the compression from the file header, falling back to
// the file extension for formats without a reliable magic number.
func DetectCompression(header []byte, path string) Compression {
	switch {
	case bytes.HasPrefix(header, magicXZ):
		return CompressionXZ
	case bytes.HasPrefix(header, magicGzip):
		return CompressionGzip
	case bytes.HasPrefix(header, magicZstd):
		return CompressionZstd
	}
	if strings.EqualFold(filepath.Ext(path), ".lzma") {
		return CompressionLZMA
	}
	return CompressionNone
}

// Open opens a dataset file and returns its decompressed contents.
// Any failure is reported as errors.ErrSourceUnavailable.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(path, err)
	}

	br := bufio.NewReaderSize(f, 64*1024)
	header, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, apperrors.NewSourceUnavailableError(path, err)
	}

	compression := DetectCompression(header, path)
	r, closeFn, err := decompress(br, compression)
	if err != nil {
		f.Close()
		return nil, apperrors.NewSourceUnavailableError(path,
			fmt.Errorf("open %s stream: %w", compression, err))
	}

	return &readCloser{
		Reader:      &sourceReader{r: r, path: path},
		compression: compression,
		closers:     []func() error{closeFn, f.Close},
	}, nil
}

func decompress(r io.Reader, c Compression) (io.Reader, func() error, error) {
	noop := func() error { return nil }

	switch c {
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return xr, noop, nil
	case CompressionLZMA:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return lr, noop, nil
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, gr.Close, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() error { zr.Close(); return nil }, nil
	default:
		return r, noop, nil
	}
}

// sourceReader reports mid-stream read failures, such as a truncated archive,
// as an unavailable source.
type sourceReader struct {
	r    io.Reader
	path string
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		return n, apperrors.NewSourceUnavailableError(s.path, err)
	}
	return n, err
}

type readCloser struct {
	io.Reader
	compression Compression
	closers     []func() error
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// CompressionOf reports the compression detected by Open.
func CompressionOf(rc io.ReadCloser) Compression {
	if r, ok := rc.(*readCloser); ok {
		return r.compression
	}
	return CompressionNone
}
