package commands

// Command to run the HTTP upload server
// Serves POST /upload and GET /test until SIGINT or SIGTERM

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traffic-infographic/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the infographic HTTP server",
	Long:  `Run the HTTP server that accepts CSV uploads on /upload and answers health checks on /test.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	adapter, err := a.adapter()
	if err != nil {
		a.log.Error("Failed to create delivery adapter", zap.Error(err))
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(server.Options{
		Addr:            a.cfg.Server.Addr(),
		AllowedOrigins:  a.cfg.Server.AllowedOrigins,
		MaxUploadBytes:  a.cfg.Server.MaxUploadBytes,
		RateLimit:       a.cfg.Server.RateLimit,
		RateBurst:       a.cfg.Server.RateBurst,
		ShutdownTimeout: time.Duration(a.cfg.Server.ShutdownTimeout) * time.Second,
	}, a.pipeline, adapter, a.log)

	return srv.Run(ctx)
}
