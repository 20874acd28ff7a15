package batch2d

import (
	"log/slog"

	"github.com/gogpu/batch2d/batch"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := batch2d.NewCanvasRenderer(
//	    batch2d.WithWidth(1280),
//	    batch2d.WithHeight(720),
//	    batch2d.WithBackgroundColor(0x202030, 1),
//	)
type Option func(*options)

type options struct {
	width, height     int
	resolution        float64
	batch             batch.Config
	background        uint32
	backgroundAlpha   float64
	logger            *slog.Logger
	pixelArt          bool
	clearBeforeRender bool
}

func defaultOptions() options {
	return options{
		width:             800,
		height:            600,
		resolution:        1,
		batch:             batch.DefaultConfig(),
		backgroundAlpha:   1,
		clearBeforeRender: true,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWidth sets the logical surface width. Default 800.
func WithWidth(w int) Option {
	return func(o *options) {
		o.width = w
	}
}

// WithHeight sets the logical surface height. Default 600.
func WithHeight(h int) Option {
	return func(o *options) {
		o.height = h
	}
}

// WithResolution sets the ratio of backend pixels to logical pixels.
// Values <= 0 are treated as 1.
func WithResolution(r float64) Option {
	return func(o *options) {
		o.resolution = r
	}
}

// WithBatchConfig overrides the batch capacities.
func WithBatchConfig(cfg batch.Config) Option {
	return func(o *options) {
		o.batch = cfg
	}
}

// WithBackgroundColor sets the clear color as 0xRRGGBB and an alpha in
// [0, 1]. Default opaque black.
func WithBackgroundColor(rgb uint32, alpha float64) Option {
	return func(o *options) {
		o.background = rgb
		o.backgroundAlpha = alpha
	}
}

// WithLogger gives the renderer its own logger instead of the shared one.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPixelArt makes every texture the renderer creates use nearest
// filtering.
func WithPixelArt(enabled bool) Option {
	return func(o *options) {
		o.pixelArt = enabled
	}
}

// WithClearBeforeRender controls whether each frame starts by clearing to
// the background color. Default true.
func WithClearBeforeRender(enabled bool) Option {
	return func(o *options) {
		o.clearBeforeRender = enabled
	}
}
