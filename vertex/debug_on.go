//go:build batch2ddebug

package vertex

// debugChecks enables the Allocate capacity assertion.
const debugChecks = true
