package request

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFile(t *testing.T) {
	t.Run("should read a text file", func(t *testing.T) {
		req, err := FromFile("testdata/inefficient.py", 1000)
		require.NoError(t, err)
		assert.Equal(t, "inefficient.py", req.FileName)
		assert.Contains(t, req.Source, "def pair_sums():")
		assert.Equal(t, int64(1000), req.MonthlyExecutions)
		assert.NoError(t, req.Validate(DefaultMaxSourceBytes))
	})

	t.Run("should reject a binary file on validation", func(t *testing.T) {
		req, err := FromFile("testdata/pixel.png", 0)
		require.NoError(t, err)
		assert.ErrorIs(t, req.Validate(DefaultMaxSourceBytes), ErrBinaryContent)
	})

	t.Run("should return error for a missing file", func(t *testing.T) {
		_, err := FromFile("testdata/missing.py", 0)
		assert.Error(t, err)
	})
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		maxBytes int
		wantErr  error
		errText  string
	}{
		{
			name:     "valid source",
			req:      Request{FileName: "a.go", Source: "package main\n"},
			maxBytes: DefaultMaxSourceBytes,
		},
		{
			name:     "empty source",
			req:      Request{Source: "  \n\t"},
			maxBytes: DefaultMaxSourceBytes,
			wantErr:  ErrEmptySource,
		},
		{
			name:     "too large",
			req:      Request{Source: strings.Repeat("a", 11)},
			maxBytes: 10,
			wantErr:  ErrSourceTooLarge,
		},
		{
			name:     "unbounded when maxBytes is 0",
			req:      Request{Source: strings.Repeat("a", 1<<20)},
			maxBytes: 0,
		},
		{
			name:     "NUL byte",
			req:      Request{Source: "abc\x00def"},
			maxBytes: DefaultMaxSourceBytes,
			wantErr:  ErrBinaryContent,
		},
		{
			name:     "invalid utf-8",
			req:      Request{Source: "abc\xff\xfe"},
			maxBytes: DefaultMaxSourceBytes,
			wantErr:  ErrBinaryContent,
		},
		{
			name:     "source sharing a bitmap signature",
			req:      Request{FileName: "bmi.py", Source: "BMI = 70 / 1.8 ** 2\nprint(BMI)\n"},
			maxBytes: DefaultMaxSourceBytes,
		},
		{
			name:     "source sharing an mp3 signature",
			req:      Request{FileName: "tags.py", Source: "ID3_TAG = \"x\"\n"},
			maxBytes: DefaultMaxSourceBytes,
		},
		{
			name:     "negative monthly executions",
			req:      Request{Source: "x = 1", MonthlyExecutions: -1},
			maxBytes: DefaultMaxSourceBytes,
			errText:  "monthly executions must be non-negative, got -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.maxBytes)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errText != "":
				assert.EqualError(t, err, tt.errText)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "go source", data: []byte("func main() {}\n"), want: true},
		{name: "html", data: []byte("<html><body>hi</body></html>"), want: true},
		{name: "non-ascii utf-8", data: []byte("héllo wörld"), want: true},
		{name: "python starting with BM", data: []byte("BMI = 70 / 1.8 ** 2\nprint(BMI)\n"), want: true},
		{name: "python starting with ID3", data: []byte("ID3_TAG = \"x\"\n"), want: true},
		{name: "ansi escape in text", data: []byte("print('\x1b[32mok\x1b[0m')\n"), want: true},
		{name: "pdf header", data: []byte("%PDF-1.7\n"), want: false},
		{name: "postscript header", data: []byte("%!PS-Adobe-3.0\n"), want: false},
		{name: "gzip magic", data: []byte{0x1f, 0x8b, 0x08, 0x00}, want: false},
		{name: "control bytes", data: []byte("BM\x02\x03abc"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsText(tt.data))
		})
	}
}
