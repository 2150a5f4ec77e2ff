package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stegosuite/pkg/clients/stegosuite"
	"stegosuite/pkg/stego"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		scheme  string
		message string
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "encode <image>",
		Short: "Hide a message in a cover image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := stego.ParseScheme(scheme)
			if err != nil {
				return err
			}
			if sc == stego.SchemeAuto {
				return fmt.Errorf("encode needs an explicit scheme")
			}
			if message == "" {
				return fmt.Errorf("message is required (-m)")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			res, err := client.Encode(cmd.Context(), stegosuite.EncodeRequest{
				ImageName: filepath.Base(args[0]),
				Image:     data,
				Scheme:    sc,
				Message:   message,
			})
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "_stego.png"
			}
			if err := os.WriteFile(outPath, res.PNG, 0o644); err != nil {
				return fmt.Errorf("write stego image: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote %s (%s)\n", outPath, sc.Label())
			if res.ImageID != "" {
				fmt.Fprintf(w, "Image ID: %s\n", res.ImageID)
			}
			if m := res.Metrics; m != nil {
				fmt.Fprintf(w, "PSNR: %.2f dB  SSIM: %.4f  BER: %.6f\n", m.PSNR, m.SSIM, m.BER)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scheme, "scheme", "s", "lsbm", "Embedding scheme (lsbm, erde, dct, pvd)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message to hide")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "Output PNG path (default <image>_stego.png)")
	return cmd
}
