package library

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// CaptureTime extracts the capture timestamp from a photo's EXIF metadata.
// It follows the fallback chain DateTimeOriginal > CreateDate > ModifyDate
// and reports false if the photo carries no usable timestamp at all.
//
// The imagemeta library reads only the metadata bytes (roughly 64KB of a
// 20MB photo) and handles JPEG, HEIC, TIFF, and WebP containers. PNGs and
// GIFs rarely carry EXIF; callers fall back to the file modification time.
func CaptureTime(path string) (time.Time, bool) {
	f, err := os.Open(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Failed to open photo for EXIF read")
		return time.Time{}, false
	}
	defer f.Close()

	exifData, err := imagemeta.Decode(f)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("No EXIF metadata decoded")
		return time.Time{}, false
	}

	if t := exifData.DateTimeOriginal(); !t.IsZero() {
		return t, true
	}
	if t := exifData.CreateDate(); !t.IsZero() {
		return t, true
	}
	if t := exifData.ModifyDate(); !t.IsZero() {
		return t, true
	}
	return time.Time{}, false
}

// ContentID computes the hex-encoded MD5 of the file content. This is the
// same hash the mobile client stores in photo_md5, so server-side action
// records and local scans agree on photo identity.
func ContentID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
