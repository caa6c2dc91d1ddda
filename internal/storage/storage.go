// Package storage talks to the external object store that holds chapter
// PDFs. The store is addressed by key; the database only ever records the
// public URL.
package storage

import "context"

// ObjectStore is the upload/public-URL/delete surface the chapter service
// needs. Implementations must refuse to overwrite an existing object.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
	// KeyFromPublicURL reverses PublicURL so deletes can find the object
	// behind a stored URL. Returns false when the URL is not ours.
	KeyFromPublicURL(url string) (string, bool)
}
