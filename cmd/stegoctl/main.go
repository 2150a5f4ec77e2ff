package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stegosuite/pkg/clients/stegosuite"
	"stegosuite/pkg/config"
	"stegosuite/pkg/history"
	"stegosuite/pkg/logging"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg config.Client

	flagServer  string
	flagTimeout time.Duration
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "stegoctl",
		Short: "Reveal and hide messages in images through a StegoSuite server",
		Long: `stegoctl talks to a StegoSuite decode service.

Examples:
  stegoctl decode stego.png                 # auto-detect the scheme
  stegoctl decode stego.png -s pvd -o yaml  # force a scheme, YAML output
  stegoctl encode cover.png -m "hi" -s dct -O stego.png
  stegoctl history -n 5`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			logging.Setup(cmd.ErrOrStderr(), cfg.Log)

			if cmd.Flags().Changed("server") {
				cfg.Server = a.flagServer
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = a.flagTimeout
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.flagServer, "server", stegosuite.DefaultURL, "Base URL of the decode service (env STEGO_SERVER)")
	root.PersistentFlags().DurationVar(&a.flagTimeout, "timeout", 60*time.Second, "Request timeout (env STEGO_TIMEOUT)")

	root.AddCommand(
		newDecodeCmd(a),
		newEncodeCmd(a),
		newHistoryCmd(a),
		newHealthCmd(a),
	)
	return root
}

func (a *app) client() (*stegosuite.Client, error) {
	return stegosuite.NewClient(a.cfg.Server, stegosuite.Options{Timeout: a.cfg.Timeout})
}

func (a *app) openHistory(ctx context.Context) (*history.Store, error) {
	path := a.cfg.HistoryDB
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return history.Open(ctx, path)
}
