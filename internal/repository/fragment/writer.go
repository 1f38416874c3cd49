// Package fragment persists fragment lists as JSON documents.
package fragment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/digesto/internal/domain"
)

// Format selects the shape of the output document.
type Format string

// Output formats.
const (
	FormatFragments  Format = "fragments"  // [{citation, text}]
	FormatTranslated Format = "translated" // [{citation, text_original, text_translated}]
	FormatTexts      Format = "texts"      // ["text", ...]
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatFragments, FormatTranslated, FormatTexts:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

const indent = "    "

// Writer writes output documents atomically: the document is encoded into a
// temp file next to the target and renamed into place only when complete.
type Writer struct {
	perm fs.FileMode
}

// NewWriter creates a Writer producing files with mode 0644.
func NewWriter() *Writer {
	return &Writer{perm: 0o644}
}

// Write encodes frags under format and replaces path with the result.
// On any failure the target is left untouched and the temp file is removed.
func (w *Writer) Write(path string, format Format, frags []domain.Fragment) (err error) {
	data, err := Encode(format, frags)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file for %s: %w", domain.ErrOutputWrite, path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrOutputWrite, tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %w", domain.ErrOutputWrite, tmp.Name(), err)
	}
	if err = tmp.Chmod(w.perm); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", domain.ErrOutputWrite, tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrOutputWrite, tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: rename into %s: %w", domain.ErrOutputWrite, path, err)
	}
	return nil
}

// Encode renders frags as an indented JSON array. Non-ASCII text is kept
// as UTF-8 and HTML characters are not escaped.
func Encode(format Format, frags []domain.Fragment) ([]byte, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrOutputWrite, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(buildDocument(format, frags)); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", domain.ErrOutputWrite, err)
	}
	return buf.Bytes(), nil
}

// Read decodes a document written under format. Fragments read from the
// texts format carry no citation.
func Read(path string, format Format) ([]domain.Fragment, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, format)
}

// Decode parses an encoded document.
func Decode(data []byte, format Format) ([]domain.Fragment, error) {
	switch format {
	case FormatTexts:
		var texts []string
		if err := json.Unmarshal(data, &texts); err != nil {
			return nil, fmt.Errorf("decode texts: %w", err)
		}
		frags := make([]domain.Fragment, 0, len(texts))
		for _, t := range texts {
			frags = append(frags, domain.Fragment{Text: t})
		}
		return frags, nil
	case FormatTranslated:
		var docs []jsonTranslated
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode translated: %w", err)
		}
		frags := make([]domain.Fragment, 0, len(docs))
		for _, d := range docs {
			frags = append(frags, domain.Fragment{
				Citation:    d.Citation,
				Text:        d.TextOriginal,
				Translation: d.TextTranslated,
				Translated:  true,
			})
		}
		return frags, nil
	case FormatFragments:
		var docs []jsonFragment
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("decode fragments: %w", err)
		}
		frags := make([]domain.Fragment, 0, len(docs))
		for _, d := range docs {
			frags = append(frags, domain.Fragment{Citation: d.Citation, Text: d.Text})
		}
		return frags, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
