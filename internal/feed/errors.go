package feed

import (
	"context"
	"errors"
	"fmt"
)

// ErrCancelled marks a request aborted by its context. Callers swallow it.
var ErrCancelled = errors.New("request cancelled")

// FetchError is returned for any non-2xx response.
type FetchError struct {
	Path       string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %d", e.Path, e.StatusCode)
}

// MalformedResponseError is returned when a line file decodes to something
// other than a JSON array.
type MalformedResponseError struct {
	Path string
	Kind string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: expected array, got %s", e.Path, e.Kind)
}

func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

func IsMalformed(err error) bool {
	var malformed *MalformedResponseError
	return errors.As(err, &malformed)
}

func cancelled(path string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrCancelled, path, cause)
}
