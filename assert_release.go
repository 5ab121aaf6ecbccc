//go:build !talloc_debug

package talloc

// assertf is a no-op outside talloc_debug builds -- see assert_debug.go.
func assertf(cond bool, format string, args ...any) {}
