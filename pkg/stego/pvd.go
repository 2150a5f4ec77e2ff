package stego

import (
	"context"
	"fmt"
	"image"
	"math/bits"
)

// pvdRanges partition the absolute difference of a pixel pair.
var pvdRanges = [][2]int{
	{0, 7},
	{8, 15},
	{16, 31},
	{32, 63},
	{64, 127},
	{128, 255},
}

func pvdRange(d int) (lower, upper int) {
	for _, r := range pvdRanges {
		if d >= r[0] && d <= r[1] {
			return r[0], r[1]
		}
	}
	return pvdRanges[0][0], pvdRanges[0][1]
}

// pvdWidth is the number of bits a pair whose difference lies in
// [lower, upper] can carry.
func pvdWidth(upper int) int {
	return min(3, bits.Len(uint(upper))-1)
}

// PVD embeds in the blue difference of horizontal pixel pairs. Every
// byte travels with an even-parity bit and the stream ends with a zero
// byte.
type PVD struct{}

func (PVD) stream(msg []byte) []uint8 {
	out := make([]uint8, 0, (len(msg)+1)*9)
	for _, b := range msg {
		out = append(out, bitsOf([]byte{b})...)
		out = append(out, uint8(bits.OnesCount8(b)&1))
	}
	return append(out, make([]uint8, 9)...)
}

// place returns new values for the pair so that |p2-p1| == d, keeping the
// original orientation when it fits in 0..255.
func (PVD) place(p1, p2, d int) (int, int) {
	if p2 > p1 {
		if p1+d <= 0xFF {
			return p1, p1 + d
		}
		if p1-d >= 0 {
			return p1, p1 - d
		}
		return 0xFF - d, 0xFF
	}
	if p1-d >= 0 {
		return p1, p1 - d
	}
	if p1+d <= 0xFF {
		return p1, p1 + d
	}
	return d, 0
}

func (p PVD) Encode(ctx context.Context, img image.Image, msg []byte) (image.Image, error) {
	r := newRaster(img)
	stream := p.stream(msg)
	next := 0
	for y := 0; y < r.h && next < len(stream); y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x+1 < r.w && next < len(stream); x += 2 {
			o1, o2 := r.at(x, y)+2, r.at(x+1, y)+2
			p1, p2 := int(r.pix[o1]), int(r.pix[o2])
			lower, upper := pvdRange(abs(p2 - p1))
			n := pvdWidth(upper)
			value := 0
			for k := 0; k < n; k++ {
				value <<= 1
				if next < len(stream) {
					value |= int(stream[next])
					next++
				}
			}
			np1, np2 := p.place(p1, p2, min(lower+value, upper))
			r.pix[o1], r.pix[o2] = uint8(np1), uint8(np2)
		}
	}
	if next < len(stream) {
		return nil, fmt.Errorf("%w: PVD embedded %d of %d bits", ErrCapacity, next, len(stream))
	}
	return r.image(), nil
}

func (PVD) Decode(ctx context.Context, img image.Image) ([]byte, error) {
	r := newRaster(img)
	var (
		pending []uint8
		msg     []byte
	)
	for y := 0; y < r.h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x+1 < r.w; x += 2 {
			p1, p2 := int(r.pix[r.at(x, y)+2]), int(r.pix[r.at(x+1, y)+2])
			d := abs(p2 - p1)
			lower, upper := pvdRange(d)
			n := pvdWidth(upper)
			value := d - lower
			if n <= 0 || value > 1<<n-1 {
				continue
			}
			for k := n - 1; k >= 0; k-- {
				pending = append(pending, uint8(value>>k)&1)
			}
			for len(pending) >= 9 {
				b := packBits(pending[:8], false)[0]
				ok := uint8(bits.OnesCount8(b)&1) == pending[8]
				pending = pending[9:]
				if !ok {
					continue
				}
				if b == 0 {
					if len(msg) == 0 {
						return nil, ErrNoMessage
					}
					return msg, nil
				}
				msg = append(msg, b)
			}
		}
	}
	if len(msg) == 0 {
		return nil, ErrNoMessage
	}
	return msg, nil
}
