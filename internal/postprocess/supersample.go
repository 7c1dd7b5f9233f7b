// Package postprocess holds image-space passes applied to presented frames.
package postprocess

import (
	"image"
	stddraw "image/draw"

	"golang.org/x/image/draw"
)

// Downsample reduces a supersampled frame to w×h with premultiplied-alpha
// CatmullRom filtering, so transparent edges do not pick up dark halos.
// Frames already at or below the target size are returned unchanged.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() <= w && b.Dy() <= h) {
		return img
	}

	// NRGBA -> RGBA premultiplies
	premul := image.NewRGBA(b)
	stddraw.Draw(premul, b, img, b.Min, stddraw.Src)

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, b, draw.Src, nil)

	result := image.NewNRGBA(scaled.Bounds())
	stddraw.Draw(result, result.Bounds(), scaled, image.Point{}, stddraw.Src)
	return result
}
