package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/helpme/helpdesk-service/internal/config"
	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/storage"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// readAttachment extracts an optional "attachment" multipart file,
// validates it against the upload limits and stores it. Returns nil when
// the request carries no file.
func readAttachment(c *fiber.Ctx, store storage.ObjectStorage, cfg config.UploadConfig) (*domain.Attachment, error) {
	fileHeader, err := c.FormFile("attachment")
	if err != nil || fileHeader == nil {
		return nil, nil
	}

	if cfg.MaxSizeBytes > 0 && fileHeader.Size > cfg.MaxSizeBytes {
		return nil, apperrors.NewValidationError("attachment too large", map[string]any{
			"max_bytes": cfg.MaxSizeBytes,
			"got_bytes": fileHeader.Size,
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if len(cfg.AllowedMimeTypes) > 0 && !mimeAllowed(contentType, cfg.AllowedMimeTypes) {
		return nil, apperrors.NewValidationError("attachment type not allowed", map[string]any{
			"content_type": contentType,
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	stored, err := store.Store(c.UserContext(), storage.Upload{
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Attachment{URL: stored.URL, StorageKey: stored.StorageKey}, nil
}

func mimeAllowed(contentType string, allowed []string) bool {
	for _, mime := range allowed {
		if contentType == mime {
			return true
		}
	}
	return false
}
