package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpme/helpdesk-service/internal/config"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

func newTestClient(baseURL string) *MediaClient {
	return NewMediaClient(config.StorageConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		TimeoutSeconds: 2,
	}, zap.NewNop())
}

func TestStoreUploadsMultipart(t *testing.T) {
	var gotAuth, gotKey, gotName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/files", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotKey = r.FormValue("key")
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotName = header.Filename

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.test/" + gotKey})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stored, err := client.Store(context.Background(), Upload{
		FileName:    "screenshot.png",
		ContentType: "image/png",
		Data:        []byte{0x89, 0x50, 0x4e, 0x47},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "screenshot.png", gotName)
	assert.NotEmpty(t, stored.StorageKey)
	assert.Equal(t, gotKey, stored.StorageKey)
	assert.Equal(t, "https://cdn.test/"+gotKey, stored.URL)
}

func TestStoreUnconfigured(t *testing.T) {
	client := newTestClient("")

	_, err := client.Store(context.Background(), Upload{FileName: "x", Data: []byte("x")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestStoreServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Store(context.Background(), Upload{FileName: "x", Data: []byte("x")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransient))
}

func TestReleaseIdempotentOn404(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		path = r.URL.Path
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Release(context.Background(), "gone-key")
	assert.NoError(t, err, "a missing file counts as released")
	assert.Equal(t, "/files/gone-key", path)
}

func TestReleaseServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.Release(context.Background(), "key")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransient))
}

func TestReleaseNoops(t *testing.T) {
	client := newTestClient("")
	assert.NoError(t, client.Release(context.Background(), "any"))

	withServer := newTestClient("http://127.0.0.1:1")
	assert.NoError(t, withServer.Release(context.Background(), ""))
}
