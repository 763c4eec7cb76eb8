// Package textfile reads and writes the small text files the provisioner
// produces (configs and keys) in either UTF-8 or UTF-16.
package textfile

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Encoding string

const (
	UTF8  Encoding = "utf8"
	UTF16 Encoding = "utf16"
)

// DefaultEncoding matches what WireGuard for Windows writes for imported
// tunnels; everywhere else plain UTF-8 is expected.
func DefaultEncoding() Encoding {
	if runtime.GOOS == "windows" {
		return UTF16
	}
	return UTF8
}

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ReplaceAll(strings.ToLower(s), "-", "") {
	case "utf8":
		return UTF8, nil
	case "utf16":
		return UTF16, nil
	default:
		return "", fmt.Errorf("invalid encoding: %s (supported: utf8, utf16)", s)
	}
}

func (e Encoding) encode(text string) ([]byte, error) {
	switch e {
	case UTF8, "":
		return []byte(text), nil
	case UTF16:
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
		if err != nil {
			return nil, fmt.Errorf("failed to encode utf16: %w", err)
		}
		return []byte(out), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", e)
	}
}

// WriteFile replaces the content of path.
func WriteFile(path, text string, enc Encoding, perm os.FileMode) error {
	data, err := enc.encode(text)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// WriteNewFile fails with an error satisfying errors.Is(err, fs.ErrExist) if
// path is already present.
func WriteNewFile(path, text string, enc Encoding, perm os.FileMode) error {
	data, err := enc.encode(text)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes path as UTF-8 unless it starts with a UTF-16 or UTF-8 BOM.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(data)
}

func Decode(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(out), nil
}
