package request

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSourceBytes bounds the code sent to the model provider.
const DefaultMaxSourceBytes = 256 * 1024

var (
	ErrEmptySource    = errors.New("source is empty")
	ErrSourceTooLarge = errors.New("source is too large")
	ErrBinaryContent  = errors.New("binary content detected, analysis is available only for text-based files")
)

// Request is a single file submitted for sustainability analysis.
type Request struct {
	FileName string `json:"file_name"`
	Source   string `json:"source"`
	// MonthlyExecutions is the caller's estimate; 0 lets the model assume the default.
	MonthlyExecutions int64 `json:"monthly_executions,omitempty"`
}

// FromFile reads path into a request named after the file's base name.
func FromFile(path string, monthlyExecutions int64) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Request{
		FileName:          filepath.Base(path),
		Source:            string(data),
		MonthlyExecutions: monthlyExecutions,
	}, nil
}

// Validate checks the request can be sent to the model. maxBytes <= 0 disables the size bound.
func (r Request) Validate(maxBytes int) error {
	if strings.TrimSpace(r.Source) == "" {
		return ErrEmptySource
	}
	if maxBytes > 0 && len(r.Source) > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrSourceTooLarge, len(r.Source), maxBytes)
	}
	if r.MonthlyExecutions < 0 {
		return fmt.Errorf("monthly executions must be non-negative, got %d", r.MonthlyExecutions)
	}
	if !IsText([]byte(r.Source)) {
		return ErrBinaryContent
	}
	return nil
}

// printableDocuments are non-text formats whose files may contain only printable bytes.
var printableDocuments = []string{"application/pdf", "application/postscript"}

// IsText reports whether data looks like text: valid UTF-8 free of NUL and
// C0 control bytes other than whitespace and ESC, and not sniffed as a
// document format. Other signature hits on clean text, such as a leading
// "BM" or "ID3", are treated as coincidental prefixes.
func IsText(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) || hasControlBytes(data) {
		return false
	}
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return !mimetype.EqualsAny(detected.String(), printableDocuments...)
}

func hasControlBytes(data []byte) bool {
	for _, c := range data {
		switch {
		case c == '\t', c == '\n', c == '\v', c == '\f', c == '\r', c == 0x1b:
		case c < 0x20:
			return true
		}
	}
	return false
}
