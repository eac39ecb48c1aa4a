// Package library reads a local photo library from disk: it scans directories
// for supported photos, derives stable content IDs and capture timestamps, and
// produces the capture items the triage engine groups into bursts.
//
// Photo identity is the MD5 of the file content, hex-encoded. The Android
// client hashes photos the same way before syncing decisions, so a photo
// decided on one device is recognised on another regardless of its path.
package library

import (
	"fmt"
	"strings"
)

// PhotoExtensions defines the file extensions that are treated as photos,
// mapped to their MIME types.
var PhotoExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// IsPhoto returns true if the file extension corresponds to a supported photo.
func IsPhoto(ext string) bool {
	_, ok := PhotoExtensions[strings.ToLower(ext)]
	return ok
}

// MIMEType returns the MIME type for a given photo file extension.
func MIMEType(ext string) (string, error) {
	if mimeType, ok := PhotoExtensions[strings.ToLower(ext)]; ok {
		return mimeType, nil
	}
	return "", fmt.Errorf("unsupported file extension: %s", ext)
}
