// Package storage holds generated artifacts until they are downloaded or
// expire. Backends: local disk, Supabase Storage and Google Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("artifact not found")

// ArtifactStore persists artifact bytes under a key.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ArtifactKey is where the artifact of an upload is stored.
func ArtifactKey(uploadID, artifactID string) string {
	return fmt.Sprintf("artifacts/%s/%s.pdf", uploadID, artifactID)
}
