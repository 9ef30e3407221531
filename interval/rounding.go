package interval

import "sync/atomic"

// acquired counts active rounding-mode acquisitions across goroutines.
var acquired int32

// AcquireRounding marks directed rounding as active for the caller and
// returns a release function that must run on every exit path via defer.
// Nesting is safe: it is a simple reference count.
func AcquireRounding() (release func()) {
	atomic.AddInt32(&acquired, 1)
	released := false
	return func() {
		if released {
			return
		}
		released = true
		atomic.AddInt32(&acquired, -1)
	}
}

// RoundingAcquired reports whether some goroutine currently holds the
// rounding acquisition. Interval-using kernels assert this before
// evaluating; a violation is fatal per §7.
func RoundingAcquired() bool {
	return atomic.LoadInt32(&acquired) > 0
}
