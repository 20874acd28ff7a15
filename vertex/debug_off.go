//go:build !batch2ddebug

package vertex

const debugChecks = false
