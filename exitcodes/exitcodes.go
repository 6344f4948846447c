// Package exitcodes defines the standard exit codes used by sku-acceptor.
package exitcodes

// Exit code constants used by sku-acceptor
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the suite meets the pass threshold
// * TestFailure (1): Used when the pass rate misses the threshold
// * RuntimeErr (2): Used for runtime errors such as panics, timeouts or other failures
const (
	Success     = 0 // Suite passed
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Runtime errors or timeouts
)
