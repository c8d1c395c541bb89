package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/trackerzenith/docpipe/pkg/lifecycle"
)

type gcsStore struct {
	client *gcs.Client
	bucket string
	logger *slog.Logger
}

func newGCS(ctx context.Context, cfg *Config, logger *slog.Logger) (*gcsStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &gcsStore{
		client: client,
		bucket: cfg.ContainerName,
		logger: logger,
	}, nil
}

func (g *gcsStore) Start(lc *lifecycle.Coordinator) error {
	g.logger.Info("starting storage system")

	lc.OnStartup(func() {
		if _, err := g.client.Bucket(g.bucket).Attrs(lc.Context()); err != nil {
			g.logger.Error("storage bucket unreachable", "bucket", g.bucket, "error", err)
			return
		}
		g.logger.Info("storage bucket ready", "bucket", g.bucket)
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := g.client.Close(); err != nil {
			g.logger.Error("storage client close failed", "error", err)
			return
		}
		g.logger.Info("storage client closed")
	})

	return nil
}

func (g *gcsStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	r, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) || errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download object gs://%s/%s: %w", g.bucket, key, err)
	}

	return r, nil
}
