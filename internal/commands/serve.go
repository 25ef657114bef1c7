package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"evalgo.org/pathium/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the embedded development API server",
	Long: `Start an in-memory route-planning API server on the configured host
and port. The server speaks the same REST surface the client commands
consume, which makes it useful for local development and end-to-end tests.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret must be set (or PM_SERVER_JWT_SECRET)")
	}

	srv := server.New(cfg)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("\nShutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}
