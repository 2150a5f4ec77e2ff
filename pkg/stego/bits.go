package stego

// delimiter terminates LSB-M and DCT bitstreams: fifteen ones and a zero.
const (
	delimiterBits        = 16
	delimiterWord uint16 = 0xFFFE
)

// bitsOf expands b into bits, most significant first.
func bitsOf(b []byte) []uint8 {
	out := make([]uint8, 0, len(b)*8)
	for _, v := range b {
		for i := 7; i >= 0; i-- {
			out = append(out, (v>>uint(i))&1)
		}
	}
	return out
}

// withDelimiter appends the stream terminator to the message bits.
func withDelimiter(msg []byte) []uint8 {
	out := bitsOf(msg)
	for i := delimiterBits - 1; i >= 0; i-- {
		out = append(out, uint8(delimiterWord>>uint(i)&1))
	}
	return out
}

// packBits folds bits back into bytes. A trailing partial byte is
// zero-padded when pad is set and dropped otherwise.
func packBits(bits []uint8, pad bool) []byte {
	n := len(bits) / 8
	if pad && len(bits)%8 != 0 {
		n++
	}
	out := make([]byte, n)
	for i := 0; i < len(bits) && i < n*8; i++ {
		out[i/8] |= (bits[i] & 1) << uint(7-i%8)
	}
	return out
}

// delimitedReader accumulates bits until the delimiter shows up.
type delimitedReader struct {
	bits   []uint8
	window uint16
}

// push records one bit and reports whether the delimiter just completed.
func (r *delimitedReader) push(bit uint8) bool {
	r.bits = append(r.bits, bit)
	r.window = r.window<<1 | uint16(bit&1)
	return len(r.bits) >= delimiterBits && r.window == delimiterWord
}

// payload returns the bits preceding the delimiter.
func (r *delimitedReader) payload() []uint8 {
	return r.bits[:len(r.bits)-delimiterBits]
}
