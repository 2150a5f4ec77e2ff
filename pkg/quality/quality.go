// Package quality measures how much an embedding disturbed its cover.
package quality

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"math/bits"
)

const (
	// maxPSNR replaces the infinite PSNR of identical images.
	maxPSNR = 100.0

	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
)

var (
	ErrSizeMismatch = errors.New("cover and stego dimensions differ")
	ErrTooSmall     = errors.New("image smaller than the SSIM window")
)

// Metrics compares a cover image with its stego counterpart.
type Metrics struct {
	PSNR float64 `json:"psnr"`
	SSIM float64 `json:"ssim"`
	BER  float64 `json:"ber"`
}

// CompareBytes decodes both image files and compares them.
func CompareBytes(cover, stego []byte) (Metrics, error) {
	a, _, err := image.Decode(bytes.NewReader(cover))
	if err != nil {
		return Metrics{}, fmt.Errorf("decode cover: %w", err)
	}
	b, _, err := image.Decode(bytes.NewReader(stego))
	if err != nil {
		return Metrics{}, fmt.Errorf("decode stego: %w", err)
	}
	return Compare(a, b)
}

// Compare computes PSNR, SSIM and BER over the RGB samples of both images.
func Compare(cover, stego image.Image) (Metrics, error) {
	if cover.Bounds().Size() != stego.Bounds().Size() {
		return Metrics{}, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, cover.Bounds().Size(), stego.Bounds().Size())
	}
	w, h := cover.Bounds().Dx(), cover.Bounds().Dy()
	a, b := samples(cover), samples(stego)

	s, err := ssim(a, b, w, h)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{PSNR: psnr(a, b), SSIM: s, BER: ber(a, b)}, nil
}

// samples returns the RGB bytes of img, row-major and interleaved.
func samples(img image.Image) []uint8 {
	bnd := img.Bounds()
	out := make([]uint8, 0, bnd.Dx()*bnd.Dy()*3)
	for y := bnd.Min.Y; y < bnd.Max.Y; y++ {
		for x := bnd.Min.X; x < bnd.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out = append(out, c.R, c.G, c.B)
		}
	}
	return out
}

func psnr(a, b []uint8) float64 {
	if len(a) == 0 {
		return maxPSNR
	}
	var sum float64
	for i := range a {
		d := (float64(a[i]) - float64(b[i])) / 255
		sum += d * d
	}
	mse := sum / float64(len(a))
	if mse == 0 {
		return maxPSNR
	}
	return 10 * math.Log10(1/mse)
}

func ber(a, b []uint8) float64 {
	if len(a) == 0 {
		return 0
	}
	var diff int
	for i := range a {
		diff += bits.OnesCount8(a[i] ^ b[i])
	}
	return float64(diff) / float64(len(a)*8)
}

// ssim is the mean structural similarity over every 7x7 window that fits
// in the image, averaged across the three channels. Values are scaled to
// [0,1] and window statistics use the sample covariance.
func ssim(a, b []uint8, w, h int) (float64, error) {
	if w < ssimWindow || h < ssimWindow {
		return 0, fmt.Errorf("%w: %dx%d", ErrTooSmall, w, h)
	}
	const (
		n  = ssimWindow * ssimWindow
		c1 = ssimK1 * ssimK1
		c2 = ssimK2 * ssimK2
	)
	cov := float64(n) / float64(n-1)

	var total float64
	windows := (w - ssimWindow + 1) * (h - ssimWindow + 1)
	for ch := 0; ch < 3; ch++ {
		x := newIntegral(a, b, w, h, ch)
		for y0 := 0; y0+ssimWindow <= h; y0++ {
			for x0 := 0; x0+ssimWindow <= w; x0++ {
				sa, sb, saa, sbb, sab := x.window(x0, y0, ssimWindow)
				ma, mb := sa/n, sb/n
				va := (saa/n - ma*ma) * cov
				vb := (sbb/n - mb*mb) * cov
				vab := (sab/n - ma*mb) * cov
				num := (2*ma*mb + c1) * (2*vab + c2)
				den := (ma*ma + mb*mb + c1) * (va + vb + c2)
				total += num / den
			}
		}
	}
	return total / float64(3*windows), nil
}

// integral holds summed-area tables of one channel of two images.
type integral struct {
	w                int
	a, b, aa, bb, ab []float64
}

func newIntegral(pa, pb []uint8, w, h, ch int) *integral {
	size := (w + 1) * (h + 1)
	t := &integral{
		w:  w + 1,
		a:  make([]float64, size),
		b:  make([]float64, size),
		aa: make([]float64, size),
		bb: make([]float64, size),
		ab: make([]float64, size),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			va := float64(pa[(y*w+x)*3+ch]) / 255
			vb := float64(pb[(y*w+x)*3+ch]) / 255
			i := (y+1)*t.w + x + 1
			up, left, diag := i-t.w, i-1, i-t.w-1
			t.a[i] = va + t.a[up] + t.a[left] - t.a[diag]
			t.b[i] = vb + t.b[up] + t.b[left] - t.b[diag]
			t.aa[i] = va*va + t.aa[up] + t.aa[left] - t.aa[diag]
			t.bb[i] = vb*vb + t.bb[up] + t.bb[left] - t.bb[diag]
			t.ab[i] = va*vb + t.ab[up] + t.ab[left] - t.ab[diag]
		}
	}
	return t
}

func (t *integral) window(x, y, size int) (a, b, aa, bb, ab float64) {
	tl := y*t.w + x
	tr := tl + size
	bl := (y+size)*t.w + x
	br := bl + size
	sum := func(s []float64) float64 { return s[br] - s[tr] - s[bl] + s[tl] }
	return sum(t.a), sum(t.b), sum(t.aa), sum(t.bb), sum(t.ab)
}
