package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// repeating pattern. A size <= 0 writes a single byte. Stages only check
// artifact presence and size, so patterned bytes stand in for real BAM and
// bigWig payloads.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteText writes the given content to path, creating parent directories.
func WriteText(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSummits writes a MACS2-style summits BED with one line per row. Each
// row is chrom, summit position, and peak name; the end coordinate and score
// are filled in the way MACS2 emits them.
func WriteSummits(t testing.TB, path string, rows ...SummitRow) {
	t.Helper()

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(row.Chrom)
		sb.WriteByte('\t')
		sb.WriteString(strconv.Itoa(row.Pos))
		sb.WriteByte('\t')
		sb.WriteString(strconv.Itoa(row.Pos + 1))
		sb.WriteByte('\t')
		sb.WriteString(row.Name)
		sb.WriteString("\t1.00000\n")
	}
	WriteText(t, path, sb.String())
}

// SummitRow is one peak summit for WriteSummits.
type SummitRow struct {
	Chrom string
	Pos   int
	Name  string
}
