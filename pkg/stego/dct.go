package stego

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	dctBlock = 8
	dctStep  = 50.0
)

// dctCoefficients are the mid-frequency positions that carry one bit each.
var dctCoefficients = [][2]int{{3, 3}, {2, 3}, {3, 2}}

// dctScale makes the quarter wave transform orthonormal.
var dctScale = func() (s [dctBlock]float64) {
	s[0] = math.Sqrt(1.0 / dctBlock)
	for u := 1; u < dctBlock; u++ {
		s[u] = math.Sqrt(2.0 / dctBlock)
	}
	return s
}()

type block [dctBlock][dctBlock]float64

// dctPlan holds FFT scratch space and must not be shared between goroutines.
type dctPlan struct {
	fft *fourier.QuarterWaveFFT
	col [dctBlock]float64
}

func newDCTPlan() *dctPlan {
	return &dctPlan{fft: fourier.NewQuarterWaveFFT(dctBlock)}
}

// dct2 is the orthonormal DCT-II of v, in place. CosSequence yields
// 4*sum(x[k]*cos((2k+1)*u*pi/2n)).
func (p *dctPlan) dct2(v []float64) {
	p.fft.CosSequence(v, v)
	for u := range v {
		v[u] *= dctScale[u] / 4
	}
}

// dct3 inverts dct2, in place. CosCoefficients yields
// c[0] + 2*sum(c[u]*cos((2i+1)*u*pi/2n)).
func (p *dctPlan) dct3(v []float64) {
	v[0] *= dctScale[0]
	for u := 1; u < len(v); u++ {
		v[u] *= dctScale[u] / 2
	}
	p.fft.CosCoefficients(v, v)
}

// separable applies fn to every row and then every column of b.
func (p *dctPlan) separable(b block, fn func([]float64)) block {
	for y := range b {
		fn(b[y][:])
	}
	for x := 0; x < dctBlock; x++ {
		for y := 0; y < dctBlock; y++ {
			p.col[y] = b[y][x]
		}
		fn(p.col[:])
		for y := 0; y < dctBlock; y++ {
			b[y][x] = p.col[y]
		}
	}
	return b
}

// forward returns coefficients indexed [vertical][horizontal] frequency.
func (p *dctPlan) forward(in *block) block {
	return p.separable(*in, p.dct2)
}

func (p *dctPlan) inverse(in *block) block {
	return p.separable(*in, p.dct3)
}

func parity(q float64) uint8 {
	return uint8(((int64(q) % 2) + 2) % 2)
}

// DCT embeds in the parity of quantised mid-frequency coefficients of
// the luma channel, one 8x8 block at a time.
type DCT struct{}

// luma splits the raster into YCbCr planes.
func (DCT) luma(r *raster) (y, cb, cr []uint8) {
	n := r.w * r.h
	y, cb, cr = make([]uint8, n), make([]uint8, n), make([]uint8, n)
	for i := 0; i < n; i++ {
		y[i], cb[i], cr[i] = color.RGBToYCbCr(r.pix[i*3], r.pix[i*3+1], r.pix[i*3+2])
	}
	return y, cb, cr
}

func (DCT) loadBlock(y []uint8, w, bx, by int) (b block) {
	for j := 0; j < dctBlock; j++ {
		for i := 0; i < dctBlock; i++ {
			b[j][i] = float64(y[(by+j)*w+bx+i]) - 128
		}
	}
	return b
}

func (d DCT) Encode(ctx context.Context, img image.Image, msg []byte) (image.Image, error) {
	r := newRaster(img)
	cols, rows := r.w/dctBlock, r.h/dctBlock
	if cols == 0 || rows == 0 {
		return nil, fmt.Errorf("%w: DCT needs at least one 8x8 block", ErrImageTooSmall)
	}
	bits := withDelimiter(msg)
	if capacity := cols * rows * len(dctCoefficients); len(bits) > capacity {
		return nil, fmt.Errorf("%w: DCT max %d bytes", ErrCapacity, capacity/8)
	}

	y, cb, cr := d.luma(r)
	plan := newDCTPlan()
	next := 0
	for by := 0; by < rows*dctBlock && next < len(bits); by += dctBlock {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for bx := 0; bx < cols*dctBlock && next < len(bits); bx += dctBlock {
			in := d.loadBlock(y, r.w, bx, by)
			coeffs := plan.forward(&in)
			for _, c := range dctCoefficients {
				if next >= len(bits) {
					break
				}
				q := math.RoundToEven(coeffs[c[0]][c[1]] / dctStep)
				if parity(q) != bits[next] {
					if q > 0 {
						q--
					} else {
						q++
					}
				}
				coeffs[c[0]][c[1]] = q * dctStep
				next++
			}
			out := plan.inverse(&coeffs)
			for j := 0; j < dctBlock; j++ {
				for i := 0; i < dctBlock; i++ {
					p := (by+j)*r.w + bx + i
					v := math.Round(out[j][i] + 128)
					y[p] = uint8(min(max(v, 0), 255))
					o := p * 3
					r.pix[o], r.pix[o+1], r.pix[o+2] = color.YCbCrToRGB(y[p], cb[p], cr[p])
				}
			}
		}
	}
	return r.image(), nil
}

func (d DCT) Decode(ctx context.Context, img image.Image) ([]byte, error) {
	r := newRaster(img)
	cols, rows := r.w/dctBlock, r.h/dctBlock
	if cols == 0 || rows == 0 {
		return nil, ErrNoMessage
	}
	y, _, _ := d.luma(r)
	plan := newDCTPlan()
	var rd delimitedReader
	for by := 0; by < rows*dctBlock; by += dctBlock {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for bx := 0; bx < cols*dctBlock; bx += dctBlock {
			in := d.loadBlock(y, r.w, bx, by)
			coeffs := plan.forward(&in)
			for _, c := range dctCoefficients {
				q := math.RoundToEven(coeffs[c[0]][c[1]] / dctStep)
				if rd.push(parity(q)) {
					msg := packBits(rd.payload(), true)
					if len(msg) == 0 {
						return nil, ErrNoMessage
					}
					return msg, nil
				}
			}
		}
	}
	return nil, ErrNoMessage
}
