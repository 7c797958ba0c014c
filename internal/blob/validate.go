package blob

import (
	"bytes"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"

	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"inkwell/internal/models"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Validate checks that in is a non-empty jpeg, png, gif or webp image no
// larger than maxBytes, and that a declared image content type agrees with
// the decoded format. It returns the canonical extension for the format.
func Validate(in Upload, maxBytes int64) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("image", "Image is required")
	}
	if maxBytes > 0 && int64(len(in.Content)) > maxBytes {
		return "", models.NewValidationError("image", fmt.Sprintf("File too large (max %dMB)", maxBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(in.Content)) {
		return "", models.NewValidationError("image", "Invalid image type")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("image", "Invalid image file")
	}
	detected := decodedFormatToMime(format)
	if detected == "" {
		return "", models.NewValidationError("image", "Unsupported image format")
	}

	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detected) {
		return "", models.NewValidationError("image", "Image content type mismatch")
	}
	return extensionFor(format), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionFor(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + strings.ToLower(format)
}
