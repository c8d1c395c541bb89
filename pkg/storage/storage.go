// Package storage provides read access to the private upload bucket.
// Azure Blob Storage and Google Cloud Storage backends are selected by Config.Provider.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/trackerzenith/docpipe/pkg/formatting"
	"github.com/trackerzenith/docpipe/pkg/lifecycle"
)

// System manages blob reads and lifecycle coordination.
type System interface {
	// Start registers a startup hook that verifies the bucket is reachable.
	Start(lc *lifecycle.Coordinator) error
	// Download returns a stream for the blob at the given key. The caller must close the reader.
	// Returns ErrNotFound if the blob does not exist.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// New creates a storage system for the configured provider.
// Clients are created eagerly; connectivity is checked when Start runs.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "provider", cfg.Provider)

	switch cfg.Provider {
	case ProviderAzure:
		return newAzure(cfg, logger)
	case ProviderGCS:
		return newGCS(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// ReadAll downloads the blob at key into memory, failing with ErrTooLarge
// when it exceeds limit bytes. A limit of zero disables the bound.
func ReadAll(ctx context.Context, sys System, key string, limit int64) ([]byte, error) {
	rc, err := sys.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}

	if limit > 0 && int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, key, formatting.FormatBytes(limit, 1))
	}

	return buf.Bytes(), nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
