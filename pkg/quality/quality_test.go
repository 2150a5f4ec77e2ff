package quality_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"stegosuite/pkg/quality"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.PixOffset(x, y)
			img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = uint8(x*8), uint8(y*8), uint8((x+y)*4), 0xFF
		}
	}
	return img
}

func TestCompareIdentical(t *testing.T) {
	img := gradient(16, 12)
	m, err := quality.Compare(img, img)
	require.NoError(t, err)
	require.Equal(t, 100.0, m.PSNR)
	require.InDelta(t, 1.0, m.SSIM, 1e-9)
	require.Zero(t, m.BER)
}

func TestCompareSingleBitFlip(t *testing.T) {
	cover := gradient(16, 12)
	stego := gradient(16, 12)
	stego.Pix[0] ^= 1

	m, err := quality.Compare(cover, stego)
	require.NoError(t, err)
	require.InDelta(t, 1.0/float64(16*12*3*8), m.BER, 1e-12)
	require.Greater(t, m.PSNR, 50.0)
	require.Less(t, m.PSNR, 100.0)
	require.Less(t, m.SSIM, 1.0)
	require.Greater(t, m.SSIM, 0.99)
}

func TestCompareErrors(t *testing.T) {
	_, err := quality.Compare(gradient(16, 12), gradient(12, 16))
	require.ErrorIs(t, err, quality.ErrSizeMismatch)

	_, err = quality.Compare(gradient(4, 4), gradient(4, 4))
	require.ErrorIs(t, err, quality.ErrTooSmall)
}

func TestCompareBytes(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, png.Encode(&a, gradient(10, 10)))
	require.NoError(t, png.Encode(&b, gradient(10, 10)))

	m, err := quality.CompareBytes(a.Bytes(), b.Bytes())
	require.NoError(t, err)
	require.Equal(t, 100.0, m.PSNR)

	_, err = quality.CompareBytes([]byte("nope"), b.Bytes())
	require.Error(t, err)
}
