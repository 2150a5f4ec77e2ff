package stego

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/rs/zerolog/log"
)

// Encoder hides msg inside a copy of img.
type Encoder interface {
	Encode(ctx context.Context, img image.Image, msg []byte) (image.Image, error)
}

// Decoder extracts a hidden message. It returns ErrNoMessage when the
// image carries no payload for the scheme.
type Decoder interface {
	Decode(ctx context.Context, img image.Image) ([]byte, error)
}

// Codec is a scheme implementation.
type Codec interface {
	Encoder
	Decoder
}

var codecs = map[Scheme]Codec{
	SchemeLSBM: LSBM{},
	SchemeERDE: ERDE{},
	SchemeDCT:  DCT{},
	SchemePVD:  PVD{},
}

// CodecFor returns the implementation of a concrete scheme.
func CodecFor(s Scheme) (Codec, error) {
	c, ok := codecs[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, s)
	}
	return c, nil
}

// Result is the outcome of a successful decode.
type Result struct {
	Message string
	Scheme  Scheme
	// Detected is the scheme auto-detection resolved to; empty otherwise.
	Detected Scheme
}

func readImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// Decode reads an encoded image file and extracts its message using
// scheme. SchemeAuto picks the scheme from the PNG metadata tag.
func Decode(ctx context.Context, data []byte, scheme Scheme) (Result, error) {
	res := Result{Scheme: scheme}
	img, err := readImage(data)
	if err != nil {
		return res, err
	}

	target := scheme
	if scheme == SchemeAuto {
		target, err = Detect(data)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("auto-detect failed")
			return res, err
		}
		res.Detected = target
		log.Ctx(ctx).Debug().Str("detected", string(target)).Msg("auto-detect resolved scheme")
	}

	codec, err := CodecFor(target)
	if err != nil {
		return res, err
	}
	msg, err := codec.Decode(ctx, img)
	if err != nil {
		return res, err
	}
	res.Message = strings.ToValidUTF8(string(msg), "")
	if res.Message == "" {
		return res, ErrNoMessage
	}
	return res, nil
}

// Detect maps the metadata codeword of a PNG file to its scheme.
func Detect(data []byte) (Scheme, error) {
	text, err := ReadPNGText(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	cw, ok := text[MetadataKey]
	if !ok || cw == "" {
		return "", ErrNoMetadata
	}
	s, ok := schemeForCodeword(cw)
	if !ok {
		return "", &CodewordError{Codeword: cw}
	}
	return s, nil
}

// Encode hides message in the image file data and returns a PNG tagged
// with the scheme codeword.
func Encode(ctx context.Context, data []byte, scheme Scheme, message string) ([]byte, error) {
	codec, err := CodecFor(scheme)
	if err != nil {
		return nil, err
	}
	img, err := readImage(data)
	if err != nil {
		return nil, err
	}
	out, err := codec.Encode(ctx, img, []byte(message))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, out, map[string]string{MetadataKey: scheme.Codeword()}); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug().
		Str("scheme", string(scheme)).
		Int("message_bytes", len(message)).
		Int("png_bytes", buf.Len()).
		Msg("message embedded")
	return buf.Bytes(), nil
}
