// Package form holds the state of the decode form and drives a decode
// request through a Dispatcher.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"stegosuite/pkg/clients/stegosuite"
	"stegosuite/pkg/models"
	"stegosuite/pkg/stego"
)

// Texts shown to the user.
const (
	MsgSelectImage  = "Please select a stego image"
	MsgNoMessage    = "No hidden message found"
	MsgDecodeFailed = "Decoding failed. Please try again."

	LabelReveal     = "Reveal Message"
	LabelDecoding   = "Decoding..."
	FilePlaceholder = "Click to select stego image (only .png)"
)

var (
	ErrNoFile = errors.New(MsgSelectImage)
	// ErrBusy rejects a submit while another one is in flight.
	ErrBusy = errors.New("decode already in progress")
)

// Dispatcher sends one decode request.
type Dispatcher interface {
	Decode(ctx context.Context, req stegosuite.DecodeRequest) (*models.DecodeResponse, error)
}

// DecodeForm is safe for concurrent use: View may be called while Submit
// is waiting for the server.
type DecodeForm struct {
	dispatcher Dispatcher

	mu       sync.Mutex
	fileName string
	file     []byte
	scheme   stego.Scheme
	loading  bool
	result   string
	err      string
}

func New(d Dispatcher) *DecodeForm {
	return &DecodeForm{dispatcher: d, scheme: stego.SchemeAuto}
}

// SelectFile replaces the selected image. Empty data clears the selection.
func (f *DecodeForm) SelectFile(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(data) == 0 {
		f.fileName, f.file = "", nil
		return
	}
	f.fileName, f.file = name, data
}

// SetScheme accepts any decodable scheme name, "auto" included.
func (f *DecodeForm) SetScheme(s string) error {
	scheme, err := stego.ParseScheme(s)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.scheme = scheme
	f.mu.Unlock()
	return nil
}

// Submit decodes the selected image. The outcome is stored in the form
// and also returned: nil on success, ErrNoFile or ErrBusy without any
// network call, or the dispatcher error.
func (f *DecodeForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	if len(f.file) == 0 {
		f.result = ""
		f.err = MsgSelectImage
		f.mu.Unlock()
		return ErrNoFile
	}
	req := stegosuite.DecodeRequest{ImageName: f.fileName, Image: f.file, Scheme: f.scheme}
	f.loading = true
	f.result, f.err = "", ""
	f.mu.Unlock()

	resp, err := f.dispatcher.Decode(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false

	if err != nil {
		f.err = errorText(err)
		if errors.Is(err, stegosuite.ErrNoImage) {
			return ErrNoFile
		}
		log.Ctx(ctx).Warn().Err(err).Str("scheme", string(req.Scheme)).Msg("Decode failed")
		return fmt.Errorf("decode %s: %w", req.ImageName, err)
	}
	f.result = resp.Message
	if f.result == "" {
		f.result = MsgNoMessage
	}
	return nil
}

// Loading reports whether a submit is in flight.
func (f *DecodeForm) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// View snapshots the form for rendering.
func (f *DecodeForm) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := View{
		FileLabel:      f.fileName,
		Scheme:         f.scheme,
		SchemeLabel:    f.scheme.Label(),
		ButtonLabel:    LabelReveal,
		ButtonDisabled: f.loading,
		Result:         f.result,
		Error:          f.err,
	}
	if v.FileLabel == "" {
		v.FileLabel = FilePlaceholder
	}
	if f.loading {
		v.ButtonLabel = LabelDecoding
	}
	return v
}

// errorText prefers the server supplied error over the generic text.
func errorText(err error) string {
	if errors.Is(err, stegosuite.ErrNoImage) {
		return MsgSelectImage
	}
	var apiErr *stegosuite.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgDecodeFailed
}
