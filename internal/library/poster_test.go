package library

import (
	"image"
	"testing"
)

func TestCenterSquare(t *testing.T) {
	tests := []struct {
		name string
		in   image.Rectangle
		want image.Rectangle
	}{
		{"landscape", image.Rect(0, 0, 100, 50), image.Rect(25, 0, 75, 50)},
		{"portrait", image.Rect(0, 0, 40, 80), image.Rect(0, 20, 40, 60)},
		{"already square", image.Rect(0, 0, 64, 64), image.Rect(0, 0, 64, 64)},
		{"offset origin", image.Rect(10, 10, 110, 60), image.Rect(35, 10, 85, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := centerSquare(tt.in); got != tt.want {
				t.Errorf("centerSquare(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderPosterGridDimensions(t *testing.T) {
	mkImgs := func(n int) []image.Image {
		imgs := make([]image.Image, n)
		for i := range imgs {
			imgs[i] = image.NewRGBA(image.Rect(0, 0, 10, 10))
		}
		return imgs
	}

	tests := []struct {
		name    string
		count   int
		columns int
		wantW   int
		wantH   int
	}{
		{"two photos default grid", 2, 0, 1024, 512},
		{"single column", 2, 1, 512, 1024},
		{"five photos default grid", 5, 0, 1536, 1024},
		{"columns capped at photo count", 3, 10, 1536, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas := RenderPosterGrid(mkImgs(tt.count), tt.columns, DefaultPosterCell)
			b := canvas.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("canvas = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestRenderPosterGridFillsBackground(t *testing.T) {
	// Three photos on a 2-column grid leave the bottom-right cell empty.
	imgs := make([]image.Image, 3)
	for i := range imgs {
		imgs[i] = image.NewRGBA(image.Rect(0, 0, 10, 10))
	}

	canvas := RenderPosterGrid(imgs, 2, 64)
	got := canvas.RGBAAt(96, 96)
	if got != posterBackground {
		t.Errorf("empty cell pixel = %v, want background %v", got, posterBackground)
	}
}
