// Package storagetest provides an in-memory storage.System.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/trackerzenith/docpipe/pkg/lifecycle"
	"github.com/trackerzenith/docpipe/pkg/storage"
)

// Bucket is an in-memory blob store keyed by storage key.
type Bucket struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	downloads int
}

// New creates a Bucket holding blobs.
func New(blobs map[string][]byte) *Bucket {
	b := &Bucket{blobs: make(map[string][]byte)}
	for k, v := range blobs {
		b.blobs[k] = v
	}
	return b
}

// Put stores data at key.
func (b *Bucket) Put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
}

// Downloads returns the number of Download calls served.
func (b *Bucket) Downloads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.downloads
}

func (b *Bucket) Start(*lifecycle.Coordinator) error { return nil }

func (b *Bucket) Download(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.downloads++
	data, ok := b.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
