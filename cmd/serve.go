package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/xolan/evertrack/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve progress as JSON for browser overlays",
	Long: `Start a small HTTP server with the progress report, so a browser overlay
on the Everhour web app can show it.

Endpoints:
  GET /healthz
  GET /api/progress?mode=weekly&at=2024-01-17T13:00
  GET /api/schedule?mode=monthly

Responses use the envelope {"data": ..., "meta": ...} or
{"error": {"code": ..., "message": ...}}.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runServe(cmd.Context(), serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, addr string) {
	d, done, ok := setup()
	if !ok {
		return
	}
	defer done()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verboseFlag {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(d.Services.Progress, d.Logger)

	_, _ = fmt.Fprintf(d.Stdout, "Serving progress on http://%s (Ctrl+C to stop)\n", addr)
	if err := deps.Serve(ctx, addr, router, d.Logger); err != nil {
		d.Fail("Server stopped", err, "Check that the address is free, or choose another with --addr")
	}
}
