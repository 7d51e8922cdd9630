package testutil

import (
	"context"
	"testing"
)

// Context returns a context that is canceled when the test finishes,
// matching testing.T.Context from Go 1.24 on older toolchains.
func Context(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
