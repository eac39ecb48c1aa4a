package library

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultThumbnailMaxDimension is the maximum dimension (width or height) for thumbnails.
const DefaultThumbnailMaxDimension = 1024

// Thumbnail creates a low-resolution preview of a photo for the triage grid.
// Returns the thumbnail bytes, MIME type, and any error.
//
// Strategy:
//   - JPEG/PNG: Resize using pure Go (golang.org/x/image/draw) and encode as WebP
//   - HEIC/HEIF: Use ffmpeg to convert to WebP thumbnail (cross-platform)
//   - GIF/WebP: Return original file (typically small)
func Thumbnail(path string, maxDimension int) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	log.Debug().
		Str("path", path).
		Int("maxDimension", maxDimension).
		Msg("Generating thumbnail")

	var data []byte
	var mimeType string
	var err error
	method := ""

	switch ext {
	case ".jpg", ".jpeg", ".png":
		data, mimeType, err = thumbnailPureGo(path, ext, maxDimension)
		method = "pure-go"

	case ".heic", ".heif":
		data, mimeType, err = thumbnailHEIC(path, maxDimension)
		method = "ffmpeg-heic"

	case ".gif", ".webp":
		// Return original file for small formats
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read file: %w", err)
		}
		mimeType, _ = MIMEType(ext)
		method = "original"

	default:
		return nil, "", fmt.Errorf("unsupported format for thumbnail: %s", ext)
	}

	if err != nil {
		return nil, "", err
	}

	log.Debug().
		Str("path", path).
		Int("outputSize", len(data)).
		Str("method", method).
		Msg("Thumbnail generation complete")

	return data, mimeType, nil
}

// thumbnailPureGo resizes JPEG/PNG images using pure Go.
func thumbnailPureGo(filePath, ext string, maxDimension int) ([]byte, string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var img image.Image
	switch ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	default:
		return nil, "", fmt.Errorf("unsupported format: %s", ext)
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Calculate new dimensions maintaining aspect ratio
	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	newWidth, newHeight := thumbnailDimensions(origWidth, origHeight, maxDimension)

	// Skip resize if already smaller - but still convert to WebP for consistency
	if origWidth <= maxDimension && origHeight <= maxDimension {
		var buf bytes.Buffer
		err = webp.Encode(&buf, img, &webp.Options{Quality: 80})
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode thumbnail as WebP: %w", err)
		}
		return buf.Bytes(), "image/webp", nil
	}

	// Create resized image
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	// Encode to WebP (optimized format for thumbnails)
	var buf bytes.Buffer
	err = webp.Encode(&buf, resized, &webp.Options{Quality: 80})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	log.Debug().
		Str("path", filePath).
		Int("origWidth", origWidth).
		Int("origHeight", origHeight).
		Int("newWidth", newWidth).
		Int("newHeight", newHeight).
		Int("outputSize", buf.Len()).
		Msg("Thumbnail generated (pure Go)")

	return buf.Bytes(), "image/webp", nil
}

// thumbnailHEIC uses ffmpeg to convert HEIC/HEIF to a WebP thumbnail.
// Works cross-platform: locally (if ffmpeg is installed) and in Lambda
// (ffmpeg bundled in the container image). Falls back to returning the
// original HEIC file if ffmpeg is unavailable.
func thumbnailHEIC(filePath string, maxDimension int) ([]byte, string, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		log.Warn().
			Str("file", filePath).
			Msg("ffmpeg not found, falling back to original HEIC file for thumbnail")

		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read original file: %w", err)
		}
		return data, "image/heic", nil
	}

	// Create temp file for output (PNG first, then convert to WebP)
	tmpFile, err := os.CreateTemp("", "thumb-*.png")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	// ffmpeg -i input.heic -vf "scale='min(1024,iw)':-2" -frames:v 1 -y output.png
	// - scale filter: downscale only if larger than maxDimension, preserve aspect ratio
	// - -2 ensures even height (required by some encoders)
	// - -frames:v 1: extract single frame (HEIC is a single image)
	vf := fmt.Sprintf("scale='min(%d,iw)':-2", maxDimension)
	cmd := exec.Command(ffmpegPath,
		"-i", filePath,
		"-vf", vf,
		"-frames:v", "1",
		"-y", tmpPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warn().
			Err(err).
			Str("output", string(output)).
			Str("file", filePath).
			Msg("ffmpeg HEIC conversion failed, falling back to original file")

		// Fallback: return original HEIC file
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read original file: %w", err)
		}
		return data, "image/heic", nil
	}

	// Read the extracted frame and convert to WebP
	frameFile, err := os.Open(tmpPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read thumbnail: %w", err)
	}
	defer frameFile.Close()

	img, err := png.Decode(frameFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode extracted frame: %w", err)
	}

	// Encode as WebP
	var buf bytes.Buffer
	err = webp.Encode(&buf, img, &webp.Options{Quality: 80, Lossless: false})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail as WebP: %w", err)
	}

	log.Debug().
		Str("file", filepath.Base(filePath)).
		Int("thumbSize", buf.Len()).
		Msg("Thumbnail generated (ffmpeg HEIC)")

	return buf.Bytes(), "image/webp", nil
}

// thumbnailDimensions calculates new dimensions maintaining aspect ratio.
func thumbnailDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width > height {
		newWidth := maxDimension
		newHeight := int(float64(height) * float64(maxDimension) / float64(width))
		return newWidth, newHeight
	}

	newHeight := maxDimension
	newWidth := int(float64(width) * float64(maxDimension) / float64(height))
	return newWidth, newHeight
}
