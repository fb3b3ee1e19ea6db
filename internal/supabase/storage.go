package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	storage "github.com/supabase-community/storage-go"
	artifacts "idcard-backend/internal/storage"
)

// StorageClient stores artifacts in a Supabase Storage bucket. It satisfies
// the artifact store interface of internal/storage.
type StorageClient struct {
	client *storage.Client
	bucket string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	if supabaseURL == "" || serviceRoleKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}
	client := storage.NewClient(strings.TrimSuffix(supabaseURL, "/")+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client: client,
		bucket: bucket,
	}, nil
}

func (s *StorageClient) Put(_ context.Context, key string, data []byte, contentType string) error {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *StorageClient) Get(_ context.Context, key string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, key)
	if isNotFound(err) {
		return nil, artifacts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}

func (s *StorageClient) Delete(_ context.Context, key string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// isNotFound recognises a missing object. Storage answers those with a 400
// whose body carries statusCode "404", so the message is checked as well.
func isNotFound(err error) bool {
	var storageErr *storage.StorageError
	if !errors.As(err, &storageErr) {
		return false
	}
	return storageErr.Status == http.StatusNotFound ||
		strings.Contains(strings.ToLower(storageErr.Message), "not found")
}
