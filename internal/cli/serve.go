package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/siftkit/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Run a Model Context Protocol server that exposes keypoint detection and
matching as tools. Requests are read from stdin and responses written to
stdout, one JSON-RPC message per line; logs go to stderr.

Configure it in your MCP client, e.g.:
  {"command": "siftkit", "args": ["serve"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd)
		},
	}

	addDetectorFlags(cmd)
	addMatcherFlags(cmd)
	cmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().Duration("feature-ttl", server.DefaultFeatureTTL, "Forget feature sets unused for this long")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	cfg, err := a.loadConfig(cmd, flagKeys(detectorFlags, matcherFlags))
	if err != nil {
		return err
	}

	server.Version = Version
	srv, err := server.New(server.Options{
		Config:     cfg,
		Logger:     a.logger,
		FeatureTTL: mustGetDuration(cmd, "feature-ttl"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := mustGetString(cmd, "metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.Metrics().Handler())
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "addr", addr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()
		a.logger.Info("serving metrics", "addr", addr)
	}

	a.logger.Debug("MCP server starting", "version", Version, "commit", GitCommit, "built", BuildTime)
	return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
