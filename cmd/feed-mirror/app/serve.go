package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mirrorapp "github.com/tvbox-mirror/feed-mirror/internal/app"
	"github.com/tvbox-mirror/feed-mirror/internal/config"
)

// defaultGracefulTimeout bounds in-flight downloads during shutdown
const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a mirror output directory over HTTP",
		Long: `Serve publishes the output directory of previous runs so that mirrorBaseUrl can
point at this host. The directory comes from --dir or from outputDir in --config.
Telemetry settings are read from --config when given.`,
		RunE: runServe,
	}

	cmd.Flags().String("dir", "", "Directory to serve (defaults to outputDir from --config)")
	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, optional)")

	return cmd
}

// serveOptions builds the app options for the serve command
func serveOptions(dir, address, configPath string) ([]mirrorapp.AppOption, error) {
	opts := []mirrorapp.AppOption{mirrorapp.WithAddress(address)}

	if configPath != "" {
		cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		opts = append(opts, mirrorapp.WithConfig(cfg))
	} else if dir == "" {
		return nil, fmt.Errorf("either --dir or --config is required")
	}

	if dir != "" {
		opts = append(opts, mirrorapp.WithOutputDir(dir))
	}
	return opts, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	opts, err := serveOptions(v.GetString("dir"), v.GetString("address"), v.GetString("config"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverApp, err := mirrorapp.NewServerApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server app: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- serverApp.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	if err := serverApp.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errChan
}
