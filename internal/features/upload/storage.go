// Package upload is the binary file sink. Files are stored under a
// category-derived folder and addressed by an opaque reference.
package upload

import (
	"context"
	"io"
)

// Storage writes uploaded content and returns an opaque reference to it.
type Storage interface {
	// Store saves content under the folder selected by the form field name
	// and returns the stored file's reference.
	Store(ctx context.Context, field, filename string, content io.Reader) (string, error)
}

// Known upload field names and their destination folders.
const (
	FieldProfileImage = "profileImage"
	FieldProductImage = "productImage"
	FieldDocument     = "document"
)

// FolderForField maps a caller-supplied field name to a destination
// folder. The set is not a closed enum: unknown field names route to a
// folder of the same name.
func FolderForField(field string) string {
	switch field {
	case FieldProfileImage:
		return "profiles"
	case FieldProductImage:
		return "products"
	case FieldDocument:
		return "documents"
	default:
		return field
	}
}
