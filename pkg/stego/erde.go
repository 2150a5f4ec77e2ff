package stego

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
)

const (
	erdeLowThreshold  = 90
	erdeHighThreshold = 180
	erdeLengthBits    = 32
)

// ERDE hides a length-prefixed payload in the blue LSB of edge pixels.
// Edges are found on the green channel, which the encoder never touches,
// so the decoder recovers the same pixel sequence.
type ERDE struct{}

func (ERDE) edgeOffsets(ctx context.Context, r *raster) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	edges := cannyEdges(r.channel(1), r.w, r.h, erdeLowThreshold, erdeHighThreshold)
	var out []int
	for i, e := range edges {
		if e {
			out = append(out, i*3+2)
		}
	}
	return out, nil
}

func (e ERDE) Encode(ctx context.Context, img image.Image, msg []byte) (image.Image, error) {
	r := newRaster(img)
	offsets, err := e.edgeOffsets(ctx, r)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, 4, 4+len(msg))
	binary.BigEndian.PutUint32(payload, uint32(len(msg)))
	bits := bitsOf(append(payload, msg...))
	if len(bits) > len(offsets) {
		return nil, fmt.Errorf("%w: ERDE requires %d edge pixels, found %d", ErrCapacity, len(bits), len(offsets))
	}
	for i, bit := range bits {
		o := offsets[i]
		r.pix[o] = r.pix[o]&0xFE | bit
	}
	return r.image(), nil
}

func (e ERDE) Decode(ctx context.Context, img image.Image) ([]byte, error) {
	r := newRaster(img)
	offsets, err := e.edgeOffsets(ctx, r)
	if err != nil {
		return nil, err
	}
	if len(offsets) < erdeLengthBits {
		return nil, ErrNoMessage
	}
	bits := make([]uint8, len(offsets))
	for i, o := range offsets {
		bits[i] = r.pix[o] & 1
	}
	n := uint64(binary.BigEndian.Uint32(packBits(bits[:erdeLengthBits], false)))
	if n == 0 || erdeLengthBits+n*8 > uint64(len(bits)) {
		return nil, ErrNoMessage
	}
	return packBits(bits[erdeLengthBits:erdeLengthBits+n*8], false), nil
}
