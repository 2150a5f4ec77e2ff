package stego

import (
	"errors"
	"fmt"
)

// Scheme names an embedding scheme as it travels over the wire.
type Scheme string

const (
	SchemeAuto Scheme = "auto"
	SchemeLSBM Scheme = "lsbm"
	SchemeERDE Scheme = "erde"
	SchemeDCT  Scheme = "dct"
	SchemePVD  Scheme = "pvd"
)

// MetadataKey is the PNG tEXt keyword that carries the scheme codeword.
const MetadataKey = "ProcessingInfo"

var (
	ErrNoMessage         = errors.New("no hidden message found")
	ErrCapacity          = errors.New("message too large for cover image")
	ErrImageTooSmall     = errors.New("image too small for encoding")
	ErrInvalidImage      = errors.New("cannot read image")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrNoMetadata        = errors.New("image does not contain required metadata for auto-detection")
	ErrUnknownCodeword   = errors.New("unsupported encoding scheme indicated by metadata")
)

// CodewordError reports a metadata codeword that names no scheme.
type CodewordError struct {
	Codeword string
}

func (e *CodewordError) Error() string {
	return fmt.Sprintf("%v (%q)", ErrUnknownCodeword, e.Codeword)
}

func (e *CodewordError) Unwrap() error { return ErrUnknownCodeword }

var codewords = map[Scheme]string{
	SchemeDCT:  "banana",
	SchemeLSBM: "apple",
	SchemePVD:  "orange",
	SchemeERDE: "grape",
}

// Schemes lists every selectable scheme, auto-detection first.
func Schemes() []Scheme {
	return []Scheme{SchemeAuto, SchemeLSBM, SchemeERDE, SchemeDCT, SchemePVD}
}

// ParseScheme validates a wire value.
func ParseScheme(s string) (Scheme, error) {
	switch sc := Scheme(s); sc {
	case SchemeAuto, SchemeLSBM, SchemeERDE, SchemeDCT, SchemePVD:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, s)
	}
}

// Label is the human readable name shown in scheme pickers.
func (s Scheme) Label() string {
	switch s {
	case SchemeAuto:
		return "Auto Detect"
	case SchemeLSBM:
		return "Least Significant Bit-Matching (LSB-M)"
	case SchemeERDE:
		return "Edge Region Data Embedding (ERDE)"
	case SchemeDCT:
		return "Discrete Cosine Transform (DCT)"
	case SchemePVD:
		return "Pixel Value Differencing (PVD)"
	default:
		return string(s)
	}
}

// Codeword returns the metadata tag written by the scheme's encoder.
func (s Scheme) Codeword() string {
	return codewords[s]
}

func schemeForCodeword(cw string) (Scheme, bool) {
	for s, w := range codewords {
		if w == cw {
			return s, true
		}
	}
	return "", false
}
