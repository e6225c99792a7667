package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trackviz/cache"
	"trackviz/core/dataset"
	"trackviz/logger"
	"trackviz/server"
	"trackviz/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动 TrackViz 服务器",
	Long:  `启动 HTTP 服务器，提供图表 SVG、重绘命令接口、快照链接和数据集更新推送。`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to load dataset", logger.ErrorField(err))
		}
		defer closeStore()

		opts := server.Options{Store: store}

		if cfg.RedisEnabled {
			client, err := cache.ConnectRedis(ctx, cfg)
			if err != nil {
				logger.Warn("Redis 不可用，图表缓存已关闭", logger.ErrorField(err))
			} else {
				defer client.Close()
				opts.Cache = cache.NewRedisChartCache(client, cfg.ChartCacheTTL)
			}
		}

		if cfg.MinioEnabled {
			if err := cfg.CheckSnapshotSecret(); err != nil {
				logger.Warn("快照功能已关闭，请设置 SNAPSHOT_SECRET", logger.ErrorField(err))
			} else if snapshots, err := storage.NewMinioSnapshotStore(ctx, cfg); err != nil {
				logger.Warn("MinIO 不可用，快照功能已关闭", logger.ErrorField(err))
			} else {
				opts.Snapshots = snapshots
				opts.Tokens = server.NewTokenSigner(cfg.SnapshotSecret, cfg.SnapshotTTL)
			}
		}

		if cfg.DataSource == "csv" && cfg.DataWatch {
			watcher := dataset.NewWatcher(store, cfg.DataPath, dataset.DefaultDebounce)
			go func() {
				if err := watcher.Run(ctx); err != nil {
					logger.Error("dataset watcher stopped", logger.ErrorField(err))
				}
			}()
		}

		srv := server.New(opts)
		defer srv.Close()
		if err := srv.Run(ctx, cfg.HTTPAddr); err != nil {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
