package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type noCache struct {
	http.Handler
}

func (h *noCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	h.Handler.ServeHTTP(w, r)
}

func newServeCmd() *cobra.Command {
	var (
		dir  string
		addr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendered outputs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), dir, addr)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to serve")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// serve blocks until ctx is done or the server fails.
func serve(ctx context.Context, dir, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := loggerFromContext(ctx)
	srv := &http.Server{
		Addr:              addr,
		Handler:           &noCache{Handler: http.FileServer(http.Dir(dir))},
		ReadHeaderTimeout: 10 * time.Second,
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown failed", "err", err)
		}
	}()

	logger.Info("Serving", "dir", dir, "addr", addr)
	err := srv.ListenAndServe()
	cancel()
	<-stopped
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
