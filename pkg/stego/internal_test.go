package stego

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitsPacking(t *testing.T) {
	bits := bitsOf([]byte{0xA5, 0x01})
	require.Equal(t, []uint8{1, 0, 1, 0, 0, 1, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1}, bits)
	require.Equal(t, []byte{0xA5, 0x01}, packBits(bits, false))

	require.Equal(t, []byte{0xA5}, packBits(bits[:11], false))
	require.Equal(t, []byte{0xA5, 0x00}, packBits(bits[:11], true))
	require.Equal(t, []byte{0xA5, 0x20}, packBits([]uint8{1, 0, 1, 0, 0, 1, 0, 1, 0, 0, 1}, true))
}

func TestDelimitedReader(t *testing.T) {
	var rd delimitedReader
	stream := withDelimiter([]byte("ok"))
	for i, b := range stream {
		done := rd.push(b)
		require.Equal(t, i == len(stream)-1, done, "bit %d", i)
	}
	require.Equal(t, []byte("ok"), packBits(rd.payload(), false))
}

func TestWithDelimiter(t *testing.T) {
	bits := withDelimiter([]byte{0x41})
	require.Len(t, bits, 8+delimiterBits)
	require.Equal(t, []uint8{0, 1, 0, 0, 0, 0, 0, 1}, bits[:8])
	require.Equal(t, []uint8{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0}, bits[8:])
}

func TestDCTIsOrthonormal(t *testing.T) {
	var in block
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			in[y][x] = float64((x*31+y*17)%64) - 32
		}
	}
	plan := newDCTPlan()
	coeffs := plan.forward(&in)
	out := plan.inverse(&coeffs)
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			require.InDelta(t, in[y][x], out[y][x], 1e-9)
		}
	}

	var flat block
	for y := range flat {
		for x := range flat[y] {
			flat[y][x] = 10
		}
	}
	dc := plan.forward(&flat)
	require.InDelta(t, 80.0, dc[0][0], 1e-9)
	require.InDelta(t, 0.0, dc[3][3], 1e-9)
}

func TestDCTFrequencyLayout(t *testing.T) {
	// horizontal cosine of frequency 3, constant down the columns
	var in block
	for y := 0; y < dctBlock; y++ {
		for x := 0; x < dctBlock; x++ {
			in[y][x] = math.Cos(float64(2*x+1) * 3 * math.Pi / (2 * dctBlock))
		}
	}
	coeffs := newDCTPlan().forward(&in)
	for u := 0; u < dctBlock; u++ {
		for v := 0; v < dctBlock; v++ {
			want := 0.0
			if u == 0 && v == 3 {
				want = 4 * math.Sqrt2
			}
			require.InDelta(t, want, coeffs[u][v], 1e-9, "coefficient (%d,%d)", u, v)
		}
	}
}

func TestParity(t *testing.T) {
	require.Equal(t, uint8(0), parity(0))
	require.Equal(t, uint8(1), parity(3))
	require.Equal(t, uint8(1), parity(-3))
	require.Equal(t, uint8(0), parity(-4))
}

func TestCannyVerticalStep(t *testing.T) {
	const w, h = 12, 6
	plane := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 6; x < w; x++ {
			plane[y*w+x] = 200
		}
	}
	edges := cannyEdges(plane, w, h, 90, 180)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			require.Equal(t, x == 5, edges[y*w+x], "pixel (%d,%d)", x, y)
		}
	}
}

func TestPVDRanges(t *testing.T) {
	tests := []struct {
		d, lower, upper, width int
	}{
		{0, 0, 7, 2},
		{7, 0, 7, 2},
		{8, 8, 15, 3},
		{40, 32, 63, 3},
		{255, 128, 255, 3},
	}
	for _, tt := range tests {
		lower, upper := pvdRange(tt.d)
		require.Equal(t, tt.lower, lower)
		require.Equal(t, tt.upper, upper)
		require.Equal(t, tt.width, pvdWidth(upper))
	}
}

func TestPVDPlaceStaysInRange(t *testing.T) {
	var p PVD
	for _, tt := range [][3]int{{10, 20, 9}, {250, 251, 9}, {3, 3, 6}, {128, 129, 130}, {128, 120, 131}} {
		a, b := p.place(tt[0], tt[1], tt[2])
		require.GreaterOrEqual(t, a, 0)
		require.LessOrEqual(t, b, 255)
		require.GreaterOrEqual(t, b, 0)
		require.LessOrEqual(t, a, 255)
		require.Equal(t, tt[2], abs(b-a))
	}
}

func TestPNGTextRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img, map[string]string{MetadataKey: "grape", "Comment": "hi"}))

	text, err := ReadPNGText(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, map[string]string{MetadataKey: "grape", "Comment": "hi"}, text)

	decoded, err := png.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())

	none, err := ReadPNGText([]byte("GIF89a"))
	require.NoError(t, err)
	require.Empty(t, none)
}
