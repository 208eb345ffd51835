// cmd/ropipeline/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bashkirian/repair-order-pipeline/internal/config"
	"github.com/bashkirian/repair-order-pipeline/internal/logging"
	"github.com/bashkirian/repair-order-pipeline/pkg/models"
	"github.com/bashkirian/repair-order-pipeline/pkg/pipeline"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:           "ropipeline",
		Short:         "Window repair-order XML events and store the latest state per window",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.AddCommand(NewRunCommand())
	return command
}

func NewRunCommand() *cobra.Command {
	v := config.New()
	var configFile string

	command := &cobra.Command{
		Use:   "run",
		Short: "Process every XML file in a directory once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
			}
			cfg, err := config.Load(v)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}

			logger := logging.NewLogger(cfg.Log.Debug)
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx = logging.WithLogger(ctx, logger)

			p, err := pipeline.NewFromConfig(cfg)
			if err != nil {
				logger.Errorw("Failed to set up pipeline", zap.Error(err))
				return err
			}
			summary, err := pipeline.RunOnce(ctx, p)
			if cfg.Metrics.File != "" {
				if werr := p.Metrics().WriteTextfile(cfg.Metrics.File); werr != nil {
					logger.Warnw("Failed to write metrics", "file", cfg.Metrics.File, zap.Error(werr))
				}
			}
			if err != nil {
				logger.Errorw("Run failed", "kind", errorKind(err), "run_id", summary.RunID, zap.Error(err))
				return err
			}
			logger.Infow("Run finished", "run_id", summary.RunID, "records", summary.Records)
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVar(&configFile, "config", "", "Path to a config file")
	flags.String("dir", "", "Directory holding the XML files")
	flags.String("window", "", "Window width, e.g. 1D, 6H, 30min or 1h30m")
	flags.String("driver", "", "Storage driver: sqlite, redis or memory")
	flags.String("sqlite-path", "", "SQLite database file")
	flags.String("redis-addr", "", "Redis address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("redis-key", "", "Redis list key")
	flags.String("metrics-file", "", "Write run metrics to this file")
	flags.Bool("debug", false, "Enable debug logging")

	bindFlags(v, command, map[string]string{
		"input.dir":              "dir",
		"window.width":           "window",
		"storage.driver":         "driver",
		"storage.sqlite.path":    "sqlite-path",
		"storage.redis.addr":     "redis-addr",
		"storage.redis.password": "redis-password",
		"storage.redis.db":       "redis-db",
		"storage.redis.key":      "redis-key",
		"metrics.file":           "metrics-file",
		"log.debug":              "debug",
	})
	return command
}

// bindFlags binds config keys to flags. Only flags set on the command line
// override the file, environment and defaults.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "NotFound"
	case errors.Is(err, models.ErrInvalidWindow):
		return "InvalidWindow"
	case errors.Is(err, models.ErrEmptyResult):
		return "EmptyResult"
	case errors.Is(err, models.ErrDatabase):
		return "DatabaseError"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	default:
		return "Unknown"
	}
}
