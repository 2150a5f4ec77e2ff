package stego

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// WritePNG encodes img as PNG and inserts one tEXt chunk per entry of
// text right after the header chunk.
func WritePNG(w io.Writer, img image.Image, text map[string]string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	raw := buf.Bytes()
	// signature + IHDR (4 length, 4 type, 13 data, 4 crc)
	const headerEnd = 8 + 25
	if len(raw) < headerEnd {
		return errors.New("encode png: truncated output")
	}
	if _, err := w.Write(raw[:headerEnd]); err != nil {
		return err
	}
	for key, value := range text {
		data := make([]byte, 0, len(key)+1+len(value))
		data = append(data, key...)
		data = append(data, 0)
		data = append(data, value...)
		if err := writeChunk(w, "tEXt", data); err != nil {
			return err
		}
	}
	_, err := w.Write(raw[headerEnd:])
	return err
}

func writeChunk(w io.Writer, typ string, data []byte) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	for _, part := range [][]byte{hdr[:], data, sum[:]} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}

// ReadPNGText returns the tEXt entries of a PNG file. Data that is not a
// PNG yields an empty map.
func ReadPNGText(data []byte) (map[string]string, error) {
	out := map[string]string{}
	if !bytes.HasPrefix(data, pngSignature) {
		return out, nil
	}
	rest := data[len(pngSignature):]
	for len(rest) >= 12 {
		n := binary.BigEndian.Uint32(rest[:4])
		typ := string(rest[4:8])
		if uint64(n)+12 > uint64(len(rest)) {
			return out, fmt.Errorf("png chunk %q: length %d exceeds file", typ, n)
		}
		body := rest[8 : 8+n]
		switch typ {
		case "tEXt":
			if i := bytes.IndexByte(body, 0); i > 0 {
				out[string(body[:i])] = string(body[i+1:])
			}
		case "IEND":
			return out, nil
		}
		rest = rest[12+n:]
	}
	return out, nil
}
