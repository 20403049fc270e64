package domain

import "context"

// ImageStore defines the contract for keyed blob storage (infrastructure port).
// Keys are opaque; events store the key in their image_url field.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte, metadata map[string]string) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}
