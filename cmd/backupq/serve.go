package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UniQw/backupq"
	"github.com/UniQw/backupq/internal/api"
	"github.com/UniQw/backupq/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the retry queue and its admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			return serve(cmd.Context(), a.cfg, a.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from BACKUPQ_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	blog := backupq.NewSlogLogger(logger.With(slog.String("component", "queue")))

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	up, err := newUploader(cfg, blog)
	if err != nil {
		return err
	}

	opts := []backupq.Option{
		backupq.WithLogger(blog),
		backupq.WithNamespace(cfg.Namespace),
		backupq.WithInterval(cfg.Interval),
		backupq.WithBaseDelay(cfg.BaseDelay),
		backupq.WithMaxDelay(cfg.MaxDelay),
		backupq.WithDefaultMaxRetries(cfg.MaxRetries),
		backupq.WithMaxPayloadSize(cfg.MaxPayloadBytes),
		backupq.WithUploadTimeout(cfg.UploadTimeout),
	}

	// A probe URL makes connectivity self-detected; otherwise the host flips it through the API.
	var setter api.OnlineSetter
	if cfg.ProbeURL != "" {
		probe := backupq.NewProbeConnectivity(cfg.ProbeURL, cfg.ProbeInterval, blog)
		probe.Start(ctx)
		defer probe.Stop()
		opts = append(opts, backupq.WithConnectivity(probe))
		logger.Info("connectivity probing enabled", slog.String("url", cfg.ProbeURL), slog.Duration("interval", cfg.ProbeInterval))
	} else {
		manual := backupq.NewManualConnectivity(true)
		setter = manual
		opts = append(opts, backupq.WithConnectivity(manual))
	}

	q := backupq.New(ctx, store, backupq.Chain(up, backupq.LoggingMiddleware(blog)), opts...)
	q.Start(ctx)
	defer q.Stop()

	logger.Info("backupq started",
		slog.String("store", cfg.Store),
		slog.String("uploader", cfg.Uploader),
		slog.String("namespace", cfg.Namespace),
		slog.Int("queued", q.Status().QueueLength),
	)

	router := api.NewRouter(q, api.Options{
		Connectivity:   setter,
		MaxPayloadSize: cfg.MaxPayloadBytes,
		Logger:         logger,
	})
	return api.NewServer(cfg.Addr, router, cfg.ShutdownTimeout, logger).Run(ctx)
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (backupq.Store, func(), error) {
	noop := func() {}
	switch cfg.Store {
	case config.StoreMemory:
		return backupq.NewMemoryStore(), noop, nil
	case config.StoreFile:
		s, err := backupq.NewFileStore(cfg.FileDir)
		if err != nil {
			return nil, noop, fmt.Errorf("file store: %w", err)
		}
		return s, noop, nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		return backupq.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("postgres ping: %w", err)
		}
		s, err := backupq.NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return s, pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func newUploader(cfg *config.Config, log backupq.Logger) (backupq.Uploader, error) {
	switch cfg.Uploader {
	case config.UploaderS3:
		return backupq.NewS3Uploader(backupq.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		}, log)
	case config.UploaderHTTP:
		return backupq.NewHTTPUploader(nil, log), nil
	default:
		return nil, fmt.Errorf("unknown uploader %q", cfg.Uploader)
	}
}
