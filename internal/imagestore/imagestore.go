// Package imagestore keeps uploaded item images. An item's image field holds
// the URL the web layer serves a stored key under.
package imagestore

import (
	"context"
	"errors"
	"io"
)

// MaxBytes is the largest image accepted.
const MaxBytes = 5 << 20

var (
	ErrNotFound = errors.New("image not found")
	ErrTooLarge = errors.New("image exceeds 5 MB")
)

type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
