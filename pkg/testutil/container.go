// Package testutil starts throwaway dependencies for integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

const terminateTimeout = 10 * time.Second

func terminateOnCleanup(t *testing.T, name string, c testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), terminateTimeout)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			t.Logf("terminating %s container: %v", name, err)
		}
	})
}
