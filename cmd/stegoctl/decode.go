package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"stegosuite/pkg/clients/stegosuite"
	"stegosuite/pkg/form"
	"stegosuite/pkg/history"
	"stegosuite/pkg/models"
)

// decodeOutput is the json and yaml shape of one decode.
type decodeOutput struct {
	File           string `json:"file" yaml:"file"`
	Scheme         string `json:"scheme" yaml:"scheme"`
	DetectedScheme string `json:"detected_scheme,omitempty" yaml:"detected_scheme,omitempty"`
	Message        string `json:"message,omitempty" yaml:"message,omitempty"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

// recorder remembers the last response so the detected scheme and the
// round trip time can be reported next to the form's view.
type recorder struct {
	next form.Dispatcher

	mu       sync.Mutex
	last     *models.DecodeResponse
	duration time.Duration
}

func (r *recorder) Decode(ctx context.Context, req stegosuite.DecodeRequest) (*models.DecodeResponse, error) {
	start := time.Now()
	resp, err := r.next.Decode(ctx, req)

	r.mu.Lock()
	r.last, r.duration = resp, time.Since(start)
	r.mu.Unlock()
	return resp, err
}

func newDecodeCmd(a *app) *cobra.Command {
	var (
		scheme    string
		output    string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "decode <image>",
		Short: "Reveal the message hidden in a stego image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (text, json, yaml)", output)
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			rec := &recorder{next: client}
			f := form.New(rec)
			if err := f.SetScheme(scheme); err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			f.SelectFile(filepath.Base(args[0]), data)

			ctx := cmd.Context()
			submitErr := f.Submit(ctx)
			if errors.Is(submitErr, form.ErrNoFile) || errors.Is(submitErr, form.ErrBusy) {
				return submitErr
			}

			v := f.View()
			out := decodeOutput{File: v.FileLabel, Scheme: string(v.Scheme), Error: v.Error}
			if submitErr == nil {
				out.Message = v.Result
			}
			if rec.last != nil {
				out.DetectedScheme = rec.last.DetectedScheme
			}

			if !noHistory {
				a.record(ctx, out, rec.duration)
			}
			if err := writeDecode(cmd.OutOrStdout(), output, v, out); err != nil {
				return err
			}
			if submitErr != nil {
				return errors.New(v.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scheme, "scheme", "s", "auto", "Decoding scheme (auto, lsbm, erde, dct, pvd)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record this decode in the local history")
	return cmd
}

func writeDecode(w io.Writer, format string, v form.View, out decodeOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, form.Render(v))
		return err
	}
}

// record is best effort: a broken history database never fails a decode.
func (a *app) record(ctx context.Context, out decodeOutput, d time.Duration) {
	store, err := a.openHistory(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("History unavailable")
		return
	}
	defer store.Close()

	message := out.Message
	if message == form.MsgNoMessage {
		message = ""
	}
	_, err = store.Save(ctx, history.Entry{
		FileName:       out.File,
		Scheme:         out.Scheme,
		DetectedScheme: out.DetectedScheme,
		Server:         a.cfg.Server,
		Message:        message,
		Error:          out.Error,
		Duration:       d,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("History save failed")
	}
}
