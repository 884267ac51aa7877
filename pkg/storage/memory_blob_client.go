package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MemoryBlobClient keeps blobs in memory. References are "memory://<path>".
type MemoryBlobClient struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	metadata map[string]map[string]string
}

// NewMemoryBlobClient creates an empty in-memory blob client
func NewMemoryBlobClient() *MemoryBlobClient {
	return &MemoryBlobClient{
		blobs:    make(map[string][]byte),
		metadata: make(map[string]map[string]string),
	}
}

const memoryScheme = "memory://"

func (m *MemoryBlobClient) Upload(ctx context.Context, blobPath string, data []byte, metadata map[string]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if blobPath == "" {
		return "", fmt.Errorf("blob path is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[blobPath] = slices.Clone(data)
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	m.metadata[blobPath] = meta
	return memoryScheme + blobPath, nil
}

func (m *MemoryBlobClient) Download(ctx context.Context, reference string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blobPath := strings.TrimPrefix(strings.TrimSpace(reference), memoryScheme)

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[blobPath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", blobPath, ErrBlobNotFound)
	}
	return slices.Clone(data), nil
}

// Metadata returns the metadata stored with blobPath
func (m *MemoryBlobClient) Metadata(blobPath string) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[blobPath]
}
