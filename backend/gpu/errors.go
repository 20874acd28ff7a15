//go:build !nogpu

package gpu

import "errors"

// Package errors.
var (
	// ErrNoAdapter is returned when no GPU adapter can be opened.
	ErrNoAdapter = errors.New("gpu: no GPU adapter available")

	// ErrNilDevice is returned when New is given a nil device or queue.
	ErrNilDevice = errors.New("gpu: nil device or queue")

	// ErrInvalidDimensions is returned for zero or negative sizes.
	ErrInvalidDimensions = errors.New("gpu: invalid dimensions")

	// ErrSubmitTimeout is returned when the GPU does not finish in time.
	ErrSubmitTimeout = errors.New("gpu: timed out waiting for GPU")

	// ErrFrameInProgress is returned by BeginFrame and Snapshot while a
	// frame is being recorded.
	ErrFrameInProgress = errors.New("gpu: frame already in progress")
)
