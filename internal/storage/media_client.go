package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/helpme/helpdesk-service/internal/config"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// MediaClient talks to the external media store over HTTP. Every call
// carries the configured timeout through the request context.
type MediaClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewMediaClient builds the client. When no base URL is configured the
// client reports storage as unavailable instead of failing at startup.
func NewMediaClient(cfg config.StorageConfig, logger *zap.Logger) *MediaClient {
	if cfg.BaseURL == "" {
		logger.Warn("STORAGE_BASE_URL not provided; attachment uploads disabled")
	}
	return &MediaClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

type storeResponse struct {
	URL string `json:"url"`
}

// Store uploads the file and returns its URL plus the handle used later
// to release it.
func (m *MediaClient) Store(ctx context.Context, upload Upload) (*StoredObject, error) {
	if m.baseURL == "" {
		return nil, apperrors.NewValidationError("attachment storage not configured", nil)
	}

	storageKey := uuid.NewString()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", upload.FileName)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := writer.WriteField("key", storageKey); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/files", &body)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, apperrors.NewTransient("media store unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewTransient(fmt.Sprintf("media store returned %d", resp.StatusCode), nil)
	}

	var parsed storeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &StoredObject{URL: parsed.URL, StorageKey: storageKey}, nil
}

// Ping reports whether the media store is reachable. An unconfigured
// client is healthy; uploads are simply disabled.
func (m *MediaClient) Ping(ctx context.Context) error {
	if m.baseURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/healthz", nil)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return apperrors.NewTransient("media store unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return apperrors.NewTransient(fmt.Sprintf("media store returned %d", resp.StatusCode), nil)
	}
	return nil
}

// Release deletes a stored file. A 404 counts as success so retries stay
// idempotent.
func (m *MediaClient) Release(ctx context.Context, storageKey string) error {
	if m.baseURL == "" || storageKey == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, m.baseURL+"/files/"+storageKey, nil)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return apperrors.NewTransient("media store unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewTransient(fmt.Sprintf("media store returned %d", resp.StatusCode), nil)
	}
	return nil
}
