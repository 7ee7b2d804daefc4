package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mirrorapp "github.com/tvbox-mirror/feed-mirror/internal/app"
	"github.com/tvbox-mirror/feed-mirror/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mirror every configured source once",
		Long: `Run fetches every source in the configuration file, cleans and filters it,
mirrors its spider jar and writes {name}.json plus the all.json index to the output directory.

A failing source is logged and skipped. The command fails only when the run itself
cannot complete, or with --fail-on-error when any source failed.`,
		RunE: runMirror,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().String("output-dir", "", "Override outputDir from the configuration")
	cmd.Flags().String("mirror-base-url", "", "Override mirrorBaseUrl from the configuration")
	cmd.Flags().Int("concurrency", 0, "Override concurrency from the configuration")
	cmd.Flags().Bool("fail-on-error", false, "Exit non-zero when any source fails")

	return cmd
}

// loadRunConfig loads the configuration file and applies flag and environment overrides
func loadRunConfig(v *viper.Viper) (*config.Config, error) {
	configPath := v.GetString("config")
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}

	cfg, err := config.LoadConfig(
		config.WithConfigPath(configPath),
		config.WithOverride(func(c *config.Config) {
			if dir := v.GetString("output-dir"); dir != "" {
				c.OutputDir = dir
			}
			if base := v.GetString("mirror-base-url"); base != "" {
				c.MirrorBaseURL = base
			}
			if n := v.GetInt("concurrency"); n > 0 {
				c.Concurrency = n
			}
			if v.GetBool("fail-on-error") {
				c.FailOnError = true
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Loaded configuration",
		"path", configPath,
		"sourceCount", len(cfg.Sources),
		"outputDir", cfg.GetOutputDir())
	return cfg, nil
}

func runMirror(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadRunConfig(v)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mirrorApp, err := mirrorapp.NewMirrorApp(ctx, mirrorapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create mirror app: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mirrorApp.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	summary, err := mirrorApp.Run(ctx)
	if summary != nil {
		for _, failed := range summary.Failed {
			slog.Warn("Source not published",
				"sourceName", failed.Name,
				"stage", failed.Stage,
				"reason", failed.Reason,
				"error", failed.Message)
		}
	}
	return err
}
