package stego

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
)

// LSBM embeds in the least significant bit of every RGB sample using
// LSB matching: a mismatching sample is moved up or down by one at random
// instead of having its low bit overwritten.
type LSBM struct {
	// Rand picks the direction of each adjustment. Nil uses the
	// package-level source.
	Rand *rand.Rand
}

func (l LSBM) coin() bool {
	if l.Rand != nil {
		return l.Rand.IntN(2) == 0
	}
	return rand.IntN(2) == 0
}

func (l LSBM) Encode(ctx context.Context, img image.Image, msg []byte) (image.Image, error) {
	r := newRaster(img)
	bits := withDelimiter(msg)
	if len(bits) > len(r.pix) {
		return nil, fmt.Errorf("%w: LSB-M max bits %d, required %d", ErrCapacity, len(r.pix), len(bits))
	}
	rowLen := r.w * 3
	for i, bit := range bits {
		if rowLen > 0 && i%rowLen == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v := r.pix[i]
		if v&1 == bit {
			continue
		}
		switch {
		case v == 0:
			v++
		case v == 0xFF:
			v--
		case l.coin():
			v++
		default:
			v--
		}
		r.pix[i] = v
	}
	return r.image(), nil
}

func (l LSBM) Decode(ctx context.Context, img image.Image) ([]byte, error) {
	r := newRaster(img)
	var rd delimitedReader
	rowLen := r.w * 3
	for i, v := range r.pix {
		if rowLen > 0 && i%rowLen == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rd.push(v & 1) {
			msg := packBits(rd.payload(), false)
			if len(msg) == 0 {
				return nil, ErrNoMessage
			}
			return msg, nil
		}
	}
	return nil, ErrNoMessage
}
