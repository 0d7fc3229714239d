package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/mcp"
	"github.com/dshills/questlog/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open every game store and serve the tracker over MCP stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	rt.logger.Info("questlog starting",
		zap.String("version", version),
		zap.String("build_mode", storage.BuildMode),
		zap.String("driver", storage.DriverName))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := rt.startApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			rt.logger.Warn("failed to close stores", zap.Error(err))
		}
	}()

	server, err := mcp.NewServer(a, version, rt.logger)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		rt.logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	rt.logger.Info("server stopped")
	return nil
}
