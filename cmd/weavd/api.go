package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/weavd/internal/api"
	"github.com/dharsanguruparan/weavd/internal/cleanup"
	"github.com/dharsanguruparan/weavd/internal/config"
	"github.com/dharsanguruparan/weavd/internal/database"
	"github.com/dharsanguruparan/weavd/internal/objectstore"
	"github.com/dharsanguruparan/weavd/internal/processing"
	"github.com/dharsanguruparan/weavd/internal/queue"
	"github.com/dharsanguruparan/weavd/internal/repository"
	"github.com/dharsanguruparan/weavd/internal/signing"
	"github.com/dharsanguruparan/weavd/internal/storage"
	"github.com/dharsanguruparan/weavd/internal/vision"
)

func newAPICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the intake, posts and feed HTTP API",
		Long: `Serves the HTTP API.

Without WEAVD_STORAGE_ENDPOINT images are kept in memory and served under
/objects; without WEAVD_DATABASE_URL posts are kept in memory. With
WEAVD_REDIS_ADDR and a bucket, unused uploads are deleted by "weavd worker",
otherwise by an in-process pool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log := a.cfg, a.log

			objects, err := openObjects(ctx, cfg)
			if err != nil {
				return err
			}

			var posts repository.Store = repository.NewMemoryPosts()
			if cfg.DatabaseURL != "" {
				pool, err := database.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("connect database: %w", err)
				}
				defer pool.Close()
				if err := database.EnsureSchema(ctx, pool); err != nil {
					return err
				}
				posts = repository.NewPostRepository(pool)
			} else {
				log.Warn("WEAVD_DATABASE_URL not set, posts are kept in memory")
			}

			// the worker process can only reach a shared bucket
			var janitor cleanup.Janitor
			if cfg.Redis.Addr != "" && cfg.Storage.Endpoint != "" {
				client := asynq.NewClient(redisOpt(cfg))
				defer client.Close()
				janitor = queue.NewClient(client, log)
			} else {
				pool := processing.New(objects, cfg.CleanupWorkers, log)
				poolCtx, stop := context.WithCancel(context.Background())
				pool.Start(poolCtx)
				defer func() {
					stop()
					pool.Wait()
				}()
				janitor = pool
			}

			srv := api.New(api.Options{
				Config:   cfg,
				Sessions: storage.NewMemoryStore(),
				Posts:    posts,
				Objects:  objects,
				Janitor:  janitor,
				Vision:   vision.NewClient(cfg.VisionURL, cfg.VisionTimeout),
				Signer:   signing.NewSigner(cfg.SigningSecret),
				Log:      log,
			})
			return srv.Run(ctx)
		},
	}
	return cmd
}

func openObjects(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	if cfg.Storage.Endpoint == "" {
		return objectstore.NewMemory(cfg.PublicURL + "/objects"), nil
	}
	store, err := objectstore.NewMinio(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
