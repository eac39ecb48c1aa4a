package library

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
)

func TestThumbnailDimensions(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		max        int
		wantWidth  int
		wantHeight int
	}{
		{"landscape downscale", 4000, 3000, 1024, 1024, 768},
		{"portrait downscale", 3000, 4000, 1024, 768, 1024},
		{"already small", 800, 600, 1024, 800, 600},
		{"square", 2048, 2048, 1024, 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := thumbnailDimensions(tt.width, tt.height, tt.max)
			if w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("thumbnailDimensions(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.width, tt.height, tt.max, w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestThumbnail_ResizesPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")

	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for x := 0; x < 64; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 8), B: 50, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	data, mime, err := Thumbnail(path, 16)
	if err != nil {
		t.Fatalf("Thumbnail error: %v", err)
	}
	if mime != "image/webp" {
		t.Errorf("mime = %q, want image/webp", mime)
	}

	decoded, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() != 16 || bounds.Dy() != 8 {
		t.Errorf("thumbnail size = %dx%d, want 16x8", bounds.Dx(), bounds.Dy())
	}
}

func TestThumbnail_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := Thumbnail(path, 1024); err == nil {
		t.Error("expected error for unsupported format")
	}
}
