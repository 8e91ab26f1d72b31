package mediatypes

import (
	"mime"
	"path/filepath"
	"strings"
)

// ApprovedImageExtensions lists the image formats that survive into the
// published dataset. Everything else is downloaded and kept on disk but never
// rendered.
var ApprovedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// MimeTypes maps file extensions to their MIME types. It covers what Drive
// hands back for form uploads, approved or not.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".avi":  "video/x-msvideo",
}

// preferredExtensions picks one extension for MIME types that several
// extensions share.
var preferredExtensions = map[string]string{
	"image/jpeg":  ".jpg",
	"image/pjpeg": ".jpg",
	"image/tiff":  ".tiff",
}

// Ext returns the lower-cased extension of name, including the leading dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if m, ok := MimeTypes[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// IsApprovedImage reports whether filename ends in one of the approved image
// extensions, ignoring case.
func IsApprovedImage(filename string) bool {
	return ApprovedImageExtensions[Ext(filename)]
}

// ExtensionForMime returns the extension for a Content-Type header value.
// Parameters such as charset are ignored. Returns "" when the type is unknown.
func ExtensionForMime(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	mediaType = strings.ToLower(mediaType)

	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}

	// Shortest, then lexically first, so the result does not depend on map order.
	var best string
	for ext, m := range MimeTypes {
		if m != mediaType {
			continue
		}
		if best == "" || len(ext) < len(best) || (len(ext) == len(best) && ext < best) {
			best = ext
		}
	}
	return best
}
