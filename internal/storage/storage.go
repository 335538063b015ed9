// Package storage defines the external object-store collaborator used
// for ticket and reply attachments. Release is best-effort: callers must
// not treat a cleanup failure as a reason to roll back an otherwise
// valid mutation.
package storage

import "context"

// Upload is a file handed to the store.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// StoredObject references a stored file.
type StoredObject struct {
	URL        string
	StorageKey string
}

// ObjectStorage stores and releases attachment files.
type ObjectStorage interface {
	Store(ctx context.Context, upload Upload) (*StoredObject, error)
	Release(ctx context.Context, storageKey string) error
}
