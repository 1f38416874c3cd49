// Package inspect dumps the first bytes of a corpus file and reports which
// encodings can decode them.
package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/digesto/internal/charset"
	"github.com/kailas-cloud/digesto/internal/domain"
)

const (
	bytesPerRow  = 16
	previewRunes = 100
)

// Inspector writes a diagnostic report for a file prefix.
type Inspector struct {
	encodings []string
	logger    *zap.Logger
}

// NewInspector creates an inspector trying the given encodings in order.
func NewInspector(encodings []string, logger *zap.Logger) *Inspector {
	return &Inspector{encodings: encodings, logger: logger}
}

// Inspect reads up to n bytes of path and writes the report to w.
// A missing file is reported on w and returned as domain.ErrInputNotFound.
func (i *Inspector) Inspect(ctx context.Context, w io.Writer, path string, n int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if n <= 0 {
		return fmt.Errorf("byte count must be > 0, got %d", n)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- inspecting '%s' ---\n", path)

	prefix, err := readPrefix(path, n)
	if err != nil {
		if errors.Is(err, domain.ErrInputNotFound) {
			fmt.Fprintf(&buf, "✗ file not found: '%s'\n", path)
		} else {
			fmt.Fprintf(&buf, "✗ read error: %v\n", err)
		}
		if _, werr := w.Write(buf.Bytes()); werr != nil {
			return fmt.Errorf("write report: %w", werr)
		}
		return err
	}

	fmt.Fprintf(&buf, "\n[1] first %d bytes (%d read) as hex:\n", n, len(prefix))
	Dump(&buf, prefix)

	fmt.Fprintf(&buf, "\n[2] decode attempts:\n")
	for _, enc := range i.encodings {
		text, err := charset.Decode(prefix, enc)
		if err != nil {
			i.logger.Debug("Decode attempt failed", zap.String("encoding", enc), zap.Error(err))
			fmt.Fprintf(&buf, "  ✗ failed to decode as '%s'\n", enc)
			continue
		}
		fmt.Fprintf(&buf, "  ✓ as '%s': %q...\n", enc, firstRunes(text, previewRunes))
	}

	fmt.Fprintf(&buf, "\n[3] auto-detected encoding: %s\n", charset.Detect(prefix))
	fmt.Fprintf(&buf, "\n--- end of report ---\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Dump writes b as rows of 16 bytes: offset, hex column padded to 48 chars
// and the printable ASCII rendering with '.' for everything else.
func Dump(w io.Writer, b []byte) {
	for off := 0; off < len(b); off += bytesPerRow {
		row := b[off:min(off+bytesPerRow, len(b))]

		hex := make([]string, len(row))
		var ascii strings.Builder
		for j, c := range row {
			hex[j] = fmt.Sprintf("%02x", c)
			if c >= 32 && c <= 126 {
				ascii.WriteByte(c)
			} else {
				ascii.WriteByte('.')
			}
		}
		fmt.Fprintf(w, "%08x: %-48s |%s|\n", off, strings.Join(hex, " "), ascii.String())
	}
}

func readPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, n)
	k, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf[:k], nil
}

func firstRunes(s string, n int) string {
	count := 0
	for idx := range s {
		if count == n {
			return s[:idx]
		}
		count++
	}
	return s
}
