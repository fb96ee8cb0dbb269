// Command qibusd is the thin CLI wrapper that exercises
// server.TransportServer. It is intentionally minimal: the CLI, the
// session/handshake layer, and service discovery are out of scope for
// this module (spec.md §1); qibusd exists only to give
// TransportServer.Start a runnable entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qi-bus/qibus/config"
	"github.com/qi-bus/qibus/eventloop"
	"github.com/qi-bus/qibus/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qibusd",
		Short: "qibus transport server",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		configFile string
		listenURL  string
		maxPending int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "bind a TransportServer and accept connections until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, config.Config{
				ListenURL:             listenURL,
				MaxPendingConnections: maxPending,
			})
			if err != nil {
				return err
			}

			log, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("qibusd: building logger: %w", err)
			}
			defer log.Sync() //nolint:errcheck

			srv := server.New(log)
			srv.MaxPendingConnections = cfg.MaxPendingConnections

			loop := eventloop.New()
			defer loop.Stop()

			if !srv.Start(loop, cfg.ListenURL) {
				return fmt.Errorf("qibusd: failed to start on %s", cfg.ListenURL)
			}
			log.Info("qibusd: listening", zap.String("url", cfg.ListenURL))

			select {} // run until killed; stop semantics are out of scope (spec.md §4.4)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "path to a config file (yaml/json/toml)")
	cmd.Flags().StringVar(&listenURL, "listen", "tcp://127.0.0.1:7878", "bind address")
	cmd.Flags().IntVar(&maxPending, "max-pending-connections", 0, "bound the pending-connection queue (0 = unbounded)")

	return cmd
}
