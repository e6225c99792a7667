package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackviz/config"
	"trackviz/core/dataset"
	"trackviz/db"
	"trackviz/logger"
	"trackviz/repository"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trackviz",
	Short: "TrackViz draws animated charts of a music track dataset.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   cfg.LogCompress,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore builds the dataset store for the configured source and performs
// the first load. The returned close func releases the database, if any.
func openStore(ctx context.Context, cfg *config.Config) (*dataset.Store, func(), error) {
	var (
		src     dataset.Source
		closeFn = func() {}
	)
	switch cfg.DataSource {
	case "csv":
		src = dataset.CSVSource{Path: cfg.DataPath}
	case "db":
		gdb, err := db.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		src = dataset.RepositorySource{Repo: repository.NewGormTrackRepository(gdb)}
		closeFn = func() {
			if err := db.Close(gdb); err != nil {
				logger.Warn("failed to close database", logger.ErrorField(err))
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown DATA_SOURCE %q", cfg.DataSource)
	}

	store := dataset.NewStore(src)
	if _, err := store.Reload(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}
