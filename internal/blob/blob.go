// Package blob abstracts opaque document storage. The intake service only
// ever holds locators; document bytes live behind this interface so the
// backing medium can change without touching the workflow.
package blob

import "context"

// Store persists document payloads and returns opaque locators.
type Store interface {
	// Store writes the payload and returns a locator. The suggested name is
	// advisory; implementations may rewrite it.
	Store(ctx context.Context, data []byte, contentType, suggestedName string) (string, error)
	// Fetch returns the payload for a locator, or sentinel.ErrNotFound.
	Fetch(ctx context.Context, locator string) ([]byte, error)
}
