package stego

import (
	"image"
	"image/color"
)

// raster is an opaque 8-bit RGB copy of an image, samples interleaved
// row-major. Alpha is discarded.
type raster struct {
	w, h int
	pix  []uint8
}

func newRaster(img image.Image) *raster {
	b := img.Bounds()
	r := &raster{w: b.Dx(), h: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy()*3)}
	i := 0
	switch src := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < r.w; x++ {
				copy(r.pix[i:i+3], row[x*4:x*4+3])
				i += 3
			}
		}
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := 0; x < r.w; x++ {
				copy(r.pix[i:i+3], row[x*4:x*4+3])
				i += 3
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				r.pix[i], r.pix[i+1], r.pix[i+2] = c.R, c.G, c.B
				i += 3
			}
		}
	}
	return r
}

// at returns the offset of the pixel (x, y) in pix.
func (r *raster) at(x, y int) int {
	return (y*r.w + x) * 3
}

// channel extracts one plane (0 red, 1 green, 2 blue).
func (r *raster) channel(c int) []uint8 {
	out := make([]uint8, r.w*r.h)
	for i := range out {
		out[i] = r.pix[i*3+c]
	}
	return out
}

func (r *raster) image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.w, r.h))
	for i, j := 0, 0; i < len(r.pix); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = r.pix[i], r.pix[i+1], r.pix[i+2], 0xFF
	}
	return img
}
