// Package qr renders client configs as QR codes for the mobile WireGuard apps.
package qr

import (
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"
)

// Size is the edge length of generated images in pixels.
const Size = 512

// Encode returns content as a PNG QR code.
func Encode(content string) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

func WriteFile(path, content string) error {
	png, err := Encode(content)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o600); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	return nil
}
