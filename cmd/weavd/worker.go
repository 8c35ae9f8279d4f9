package main

import (
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/weavd/internal/objectstore"
	"github.com/dharsanguruparan/weavd/internal/worker"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Delete unused uploads queued by the api",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log := a.cfg, a.log
			if cfg.Redis.Addr == "" {
				return errors.New("WEAVD_REDIS_ADDR is required for the worker")
			}
			if cfg.Storage.Endpoint == "" {
				return errors.New("WEAVD_STORAGE_ENDPOINT is required for the worker")
			}
			store, err := objectstore.NewMinio(cfg.Storage)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}

			server := asynq.NewServer(redisOpt(cfg), asynq.Config{
				Concurrency: cfg.Redis.Concurrency,
				Logger:      log,
			})
			processor := worker.NewProcessor(store, log)

			go func() {
				<-ctx.Done()
				server.Shutdown()
			}()

			log.Infow("worker started", "concurrency", cfg.Redis.Concurrency)
			if err := server.Run(processor.Handler()); err != nil {
				return fmt.Errorf("worker stopped: %w", err)
			}
			return nil
		},
	}
}
