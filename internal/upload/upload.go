// Package upload converts a local image file into a self-contained data
// URL, so logos and avatars can be embedded without external storage.
package upload

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// MaxSize is the largest accepted image payload.
const MaxSize = 2 << 20 // 2 MiB

// DataURL validates that data is an image and returns it encoded as a
// data URL ("data:image/png;base64,..."). Non-image payloads and
// payloads over MaxSize are rejected.
func DataURL(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload: %s is empty", filename)
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("upload: %s exceeds the %d MiB limit", filename, MaxSize>>20)
	}

	mime := sniffImageType(filename, data)
	if mime == "" {
		return "", fmt.Errorf("upload: %s is not an image", filename)
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// FromFile reads the file at path and returns it as a data URL.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("upload: reading %s: %w", path, err)
	}
	return DataURL(filepath.Base(path), data)
}

// sniffImageType returns the image MIME type of data, or "" when the
// payload is not an image. Content sniffing cannot detect SVG (it is
// XML), so .svg files fall back to the extension.
func sniffImageType(filename string, data []byte) string {
	mime := http.DetectContentType(data)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}

	if strings.EqualFold(filepath.Ext(filename), ".svg") &&
		(strings.HasPrefix(mime, "text/xml") || strings.HasPrefix(mime, "text/plain")) &&
		strings.Contains(string(data[:min(len(data), 512)]), "<svg") {
		return "image/svg+xml"
	}

	return ""
}
