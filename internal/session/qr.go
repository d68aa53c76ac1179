// ABOUTME: Renders pairing payloads as inline PNG data URLs.
// ABOUTME: Output is directly usable as an <img> src attribute.

package session

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// encodeQRDataURL renders content as a QR code PNG and wraps it in a
// base64 data URL.
func encodeQRDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("encoding qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
