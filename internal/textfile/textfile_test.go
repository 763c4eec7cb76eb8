package textfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadFile(t *testing.T) {
	text := "[Interface]\nPrivateKey = abc=\nAddress = 10.0.0.1/24\n"

	tests := []struct {
		name     string
		encoding Encoding
		prefix   []byte
	}{
		{"utf8", UTF8, []byte("[I")},
		{"utf16", UTF16, []byte{0xff, 0xfe, '[', 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.conf")
			require.NoError(t, WriteFile(path, text, tt.encoding, 0o600))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, raw[:len(tt.prefix)])

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, text, got)
		})
	}
}

func TestWriteNewFileRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, WriteNewFile(path, "first\n", UTF8, 0o600))

	err := WriteNewFile(path, "second\n", UTF8, 0o600)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrExist))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n", got)
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		input   string
		want    Encoding
		wantErr bool
	}{
		{"utf8", UTF8, false},
		{"UTF-8", UTF8, false},
		{"utf16", UTF16, false},
		{"utf-16", UTF16, false},
		{"latin1", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEncoding(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input: %s", tt.input)
			continue
		}
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.want, got)
	}
}
