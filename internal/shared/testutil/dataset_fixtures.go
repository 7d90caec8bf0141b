package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// DatasetHeader is the header row of the published NADAC comparison file.
var DatasetHeader = []string{
	"NDC Description", "NDC", "Old NADAC Per Unit", "New NADAC Per Unit",
	"Classification for Rate Setting", "Percent Change", "Primary Reason",
	"Start Date", "End Date", "Effective Date",
}

// DatasetRow builds a full ten-column row from the fields the report reads.
func DatasetRow(desc, oldPrice, newPrice, effectiveDate string) []string {
	return []string{desc, "00000000000", oldPrice, newPrice, "G", "", "Survey Rate",
		effectiveDate, "", effectiveDate}
}

// DatasetFixtures writes NADAC comparison files for tests.
type DatasetFixtures struct {
	t   *testing.T
	Dir string
}

// NewDatasetFixtures creates fixtures in a fresh temporary directory.
func NewDatasetFixtures(t *testing.T) *DatasetFixtures {
	t.Helper()
	return &DatasetFixtures{t: t, Dir: t.TempDir()}
}

// EncodeCSV renders rows, preceded by the header when header is true.
func EncodeCSV(t *testing.T, header bool, rows ...[]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if header {
		if err := w.Write(DatasetHeader); err != nil {
			t.Fatalf("write header: %v", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return buf.Bytes()
}

// Compress encodes data with codec: "none", "gzip", "xz", "lzma" or "zstd".
func Compress(t *testing.T, codec string, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser
	var err error

	switch codec {
	case "none", "":
		return append([]byte(nil), data...)
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "xz":
		w, err = xz.NewWriter(&buf)
	case "lzma":
		w, err = lzma.NewWriter(&buf)
	case "zstd":
		w, err = zstd.NewWriter(&buf)
	default:
		t.Fatalf("unknown codec %q", codec)
	}
	if err != nil {
		t.Fatalf("create %s writer: %v", codec, err)
	}

	if _, err := w.Write(data); err != nil {
		t.Fatalf("compress %s: %v", codec, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %s writer: %v", codec, err)
	}
	return buf.Bytes()
}

// WriteFile stores data under name in the fixture directory and returns its path.
func (f *DatasetFixtures) WriteFile(name string, data []byte) string {
	f.t.Helper()

	path := filepath.Join(f.Dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		f.t.Fatalf("create directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		f.t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteDataset writes a comparison file with a header row, encoded with codec.
func (f *DatasetFixtures) WriteDataset(name, codec string, rows ...[]string) string {
	f.t.Helper()
	return f.WriteFile(name, Compress(f.t, codec, EncodeCSV(f.t, true, rows...)))
}

// CopyTestdata copies a file from the calling package's testdata directory.
func (f *DatasetFixtures) CopyTestdata(name, codec string) string {
	f.t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		f.t.Fatalf("read testdata %s: %v", name, err)
	}
	target := name
	if ext := codecExtension(codec); ext != "" {
		target = fmt.Sprintf("%s%s", name, ext)
	}
	return f.WriteFile(target, Compress(f.t, codec, data))
}

// WriteCorrupted writes a damaged file of the given kind: "truncated_xz",
// "truncated_gzip", "bare_quote" or "empty". A bare_quote file is
// readable; its description holds a literal quote.
func (f *DatasetFixtures) WriteCorrupted(name, kind string) string {
	f.t.Helper()

	rows := [][]string{
		DatasetRow("DRUG A 10 MG TABLET", "1.00", "2.00", "01/01/2020"),
		DatasetRow("DRUG B 20 MG TABLET", "3.00", "1.00", "02/01/2020"),
	}

	var data []byte
	switch kind {
	case "truncated_xz":
		full := Compress(f.t, "xz", EncodeCSV(f.t, true, rows...))
		data = full[:len(full)/2]
	case "truncated_gzip":
		full := Compress(f.t, "gzip", EncodeCSV(f.t, true, rows...))
		data = full[:len(full)-12]
	case "bare_quote":
		data = []byte("DRUG 5\" GAUZE,1,1.00,2.00,G,,,01/01/2020,,01/01/2020\n")
	case "empty":
		data = []byte{}
	default:
		f.t.Fatalf("unknown corruption kind %q", kind)
	}
	return f.WriteFile(name, data)
}

func codecExtension(codec string) string {
	switch codec {
	case "gzip":
		return ".gz"
	case "xz":
		return ".xz"
	case "lzma":
		return ".lzma"
	case "zstd":
		return ".zst"
	default:
		return ""
	}
}
