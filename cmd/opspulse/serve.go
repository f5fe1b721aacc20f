package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opspulse/opspulse/pkg/server"
	"github.com/opspulse/opspulse/pkg/store"
	"github.com/opspulse/opspulse/pkg/tui"
	"github.com/opspulse/opspulse/pkg/watch"
)

var (
	servePort int
	serveHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP API",
	Long: `Start a local HTTP server exposing the analytics engine.

Endpoints:
  GET  /api/dashboard?period=week   Build and return the dashboard
  POST /api/events                  Append an event
  GET  /api/stream                  SSE refresh notifications
  GET  /api/health                  Liveness check

With the file backend, external writes to the event log are detected and
pushed to connected clients as refresh notifications.

Examples:
  opspulse serve
  opspulse serve --port 3000 --host 0.0.0.0`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := cfgManager.Get()
	host, port := cfg.Server.Host, cfg.Server.Port
	if serveHost != "" {
		host = serveHost
	}
	if servePort != 0 {
		port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := initTelemetry(ctx)
	defer shutdown(context.Background())

	eventStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	builder, err := newBuilder(eventStore)
	if err != nil {
		return err
	}
	srv := server.NewServer(eventStore, builder)

	// With a file backend, watch the log so external writers trigger
	// refresh notifications.
	if fs, ok := eventStore.(*store.FileStore); ok {
		watcher, err := watch.NewWatcher()
		if err == nil {
			if err := watcher.Watch(fs.Path()); err == nil {
				watcher.OnChange = func(string) error {
					srv.NotifyRefresh()
					return nil
				}
				go watcher.Run(ctx)
				defer watcher.Close()
			}
		}
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // Disabled for SSE
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	tui.PrintHeader(version)
	tui.PrintSuccess("listening on http://" + addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
