package testing

import "testing"

// SkipIfShort skips tests that need a container runtime when -short is set.
func SkipIfShort(tb testing.TB) {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping container test in short mode")
	}
}
