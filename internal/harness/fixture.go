package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ankicheck/internal/collection"
)

// SkipError reports that the collection under test does not exist yet.
type SkipError struct {
	Path string
}

// Error implements the error interface.
func (e *SkipError) Error() string {
	return fmt.Sprintf("e2e output not found: %s (run test-wdio first)", e.Path)
}

// IsSkip reports whether err is, or wraps, a *SkipError.
func IsSkip(err error) bool {
	var skip *SkipError
	return errors.As(err, &skip)
}

// Setup opens the collection at path for a run.
//
// The returned teardown closes the collection; callers defer it. When the
// file does not exist, Setup returns a *SkipError and a nil collection.
func Setup(path string) (*collection.Collection, func() error, error) {
	return SetupContext(context.Background(), path)
}

// SetupContext is Setup with a context for loading collection metadata.
func SetupContext(ctx context.Context, path string) (*collection.Collection, func() error, error) {
	col, err := collection.OpenContext(ctx, path)
	if errors.Is(err, collection.ErrNotFound) {
		return nil, nil, &SkipError{Path: path}
	}
	if err != nil {
		return nil, nil, err
	}
	return col, col.Close, nil
}
