package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Supported output encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1251 = "windows-1251"
)

// ErrUnknownEncoding is returned for an output encoding other than the supported ones.
var ErrUnknownEncoding = errors.New("unknown output encoding")

// FileWriter stores exchange files with Windows line endings.
type FileWriter struct {
	Encoding string
}

// NewFileWriter validates encoding and returns a writer for it.
func NewFileWriter(encoding string) (*FileWriter, error) {
	enc, err := normalizeEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &FileWriter{Encoding: enc}, nil
}

// WriteFile writes content to path, replacing any existing file.
func (w *FileWriter) WriteFile(path string, content string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, content); err != nil {
		return err
	}
	return f.Close()
}

// Write encodes content and writes it to out.
func (w *FileWriter) Write(out io.Writer, content string) error {
	enc, err := normalizeEncoding(w.Encoding)
	if err != nil {
		return err
	}

	text := toCRLF(content)
	if enc == EncodingWindows1251 {
		text, err = charmap.Windows1251.NewEncoder().String(text)
		if err != nil {
			return fmt.Errorf("failed to encode output as %s: %w", enc, err)
		}
	}

	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func normalizeEncoding(encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-1251", "cp1251", "win1251":
		return EncodingWindows1251, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, encoding)
	}
}

func toCRLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
