package stego_test

import (
	"bytes"
	"image"
	"image/png"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// grayCover is a near-gray textured image: low chroma keeps luma edits
// away from RGB clipping.
func grayCover(w, h int, seed uint64) *image.NRGBA {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		base := 100 + rng.IntN(50)
		img.Pix[i] = uint8(base + rng.IntN(9) - 4)
		img.Pix[i+1] = uint8(base + rng.IntN(9) - 4)
		img.Pix[i+2] = uint8(base + rng.IntN(9) - 4)
		img.Pix[i+3] = 0xFF
	}
	return img
}

// checkerCover has a hard-edged green checkerboard and noisy red/blue.
func checkerCover(w, h, cell int, seed uint64) *image.NRGBA {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.PixOffset(x, y)
			g := uint8(40)
			if (x/cell+y/cell)%2 == 1 {
				g = 210
			}
			img.Pix[o] = uint8(rng.IntN(256))
			img.Pix[o+1] = g
			img.Pix[o+2] = uint8(rng.IntN(256))
			img.Pix[o+3] = 0xFF
		}
	}
	return img
}

func flatCover(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 0xFF
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
