//go:build !integration

package cache

import (
	"testing"

	"go.uber.org/goleak"
)

// The container runtime keeps background goroutines, so leak checks only run in unit mode.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
