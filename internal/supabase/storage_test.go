package supabase_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"idcard-backend/internal/storage"
	"idcard-backend/internal/supabase"
)

var _ storage.ArtifactStore = (*supabase.StorageClient)(nil)

func TestNewStorageClient_RequiresCredentials(t *testing.T) {
	_, err := supabase.NewStorageClient("", "key", "id-cards")
	assert.Error(t, err)

	_, err = supabase.NewStorageClient("https://example.supabase.co", "", "id-cards")
	assert.Error(t, err)
}

func TestNewStorageClient(t *testing.T) {
	client, err := supabase.NewStorageClient("https://example.supabase.co/", "service-key", "id-cards")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

// storageServer mimics the object endpoints of Supabase Storage for a
// single bucket.
func storageServer(t *testing.T) *httptest.Server {
	t.Helper()
	objects := map[string][]byte{}
	const prefix = "/storage/v1/object/id-cards/"

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, prefix):
			data, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			objects[strings.TrimPrefix(r.URL.Path, prefix)] = data
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"Key":"id-cards/` + strings.TrimPrefix(r.URL.Path, prefix) + `"}`))
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, prefix):
			data, ok := objects[strings.TrimPrefix(r.URL.Path, prefix)]
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
				return
			}
			w.Write(data)
		case r.Method == http.MethodDelete:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"unexpected request"}`))
		}
	}))
}

func TestStorageClient_PutGet(t *testing.T) {
	server := storageServer(t)
	defer server.Close()

	client, err := supabase.NewStorageClient(server.URL, "service-key", "id-cards")
	require.NoError(t, err)
	ctx := context.Background()

	key := storage.ArtifactKey("upload-1", "artifact-1")
	require.NoError(t, client.Put(ctx, key, []byte("%PDF-1.4"), "application/pdf"))

	data, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	assert.NoError(t, client.Delete(ctx, key))
}

func TestStorageClient_MissingObject(t *testing.T) {
	server := storageServer(t)
	defer server.Close()

	client, err := supabase.NewStorageClient(server.URL, "service-key", "id-cards")
	require.NoError(t, err)

	_, err = client.Get(context.Background(), storage.ArtifactKey("upload-1", "gone"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
