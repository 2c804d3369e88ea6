package generation

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffImage reports whether data is an image. The body decides, not the header:
// providers answer errors with 200 and a JSON or HTML body.
func sniffImage(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	mt := mimetype.Detect(data)
	if strings.HasPrefix(mt.String(), "image/") {
		return baseType(mt.String()), true
	}
	return "", false
}

// sniffVideo reports whether data looks like a playable clip. Containers mimetype
// recognizes win; otherwise a video or octet-stream header is trusted for any
// non-text body of at least minSize bytes.
func sniffVideo(data []byte, header string, minSize int) (string, bool) {
	if len(data) == 0 || len(data) < minSize {
		return "", false
	}
	mt := mimetype.Detect(data)
	detected := baseType(mt.String())
	if strings.HasPrefix(detected, "video/") || detected == "image/gif" {
		return detected, true
	}
	if isTextual(detected) {
		return "", false
	}
	h := strings.ToLower(header)
	if strings.Contains(h, "video") || strings.Contains(h, "mp4") || strings.Contains(h, "application/octet-stream") {
		return "video/mp4", true
	}
	return "", false
}

func isTextual(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") || contentType == "application/json"
}

func baseType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(t)
}

// Extension returns the file extension for a media content type.
func Extension(contentType string) string {
	switch baseType(contentType) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/webm":
		return ".webm"
	case "video/mp4", "application/octet-stream":
		return ".mp4"
	}
	if ext := mimetype.Lookup(baseType(contentType)); ext != nil {
		return ext.Extension()
	}
	return ".bin"
}
