package library

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// DefaultPosterCell is the pixel size of one square grid cell in a poster
// collage.
const DefaultPosterCell = 512

// posterBackground fills cells left empty when the grid is not full.
var posterBackground = color.RGBA{R: 26, G: 29, B: 39, A: 255}

// RenderPosterGrid lays the photos out left to right, top to bottom.
// Each photo is center-cropped to a square and scaled into its cellPx-sized
// cell with Catmull-Rom resampling. With no explicit column count the grid
// is kept as close to square as possible.
func RenderPosterGrid(imgs []image.Image, columns, cellPx int) *image.RGBA {
	cols := columns
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(len(imgs)))))
	}
	if cols > len(imgs) {
		cols = len(imgs)
	}
	rows := (len(imgs) + cols - 1) / cols

	canvas := image.NewRGBA(image.Rect(0, 0, cols*cellPx, rows*cellPx))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: posterBackground}, image.Point{}, draw.Src)

	for i, img := range imgs {
		col := i % cols
		row := i / cols
		cell := image.Rect(col*cellPx, row*cellPx, (col+1)*cellPx, (row+1)*cellPx)
		draw.CatmullRom.Scale(canvas, cell, img, centerSquare(img.Bounds()), draw.Src, nil)
	}
	return canvas
}

// centerSquare returns the largest centered square inside b.
func centerSquare(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}
