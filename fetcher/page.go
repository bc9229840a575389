package fetcher

import (
	"context"
	"errors"
	"time"
)

// ErrNotReady is returned by WaitFor when the selector did not appear in time
var ErrNotReady = errors.New("content not ready")

// ErrElementNotFound is returned when a lookup matches nothing
var ErrElementNotFound = errors.New("element not found")

// Element is a located node that can be queried further.
// Lookups never wait for content to appear.
type Element interface {
	// Element returns the first descendant matching the CSS selector
	Element(selector string) (Element, error)
	// Elements returns all descendants matching the CSS selector
	Elements(selector string) ([]Element, error)
	// Text returns the rendered text of the node
	Text() (string, error)
	// Attribute returns the attribute value, or nil if the attribute is absent
	Attribute(name string) (*string, error)
}

// Page is the single navigation state of a rendering backend.
// The page itself is the document-wide lookup scope.
type Page interface {
	Element
	// Navigate opens the URL in the page
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until the selector is present or the timeout expires,
	// in which case it returns ErrNotReady
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// URL returns the URL of the last navigation
	URL() string
	// Close releases the page and its backend
	Close() error
}
