package batch2d

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureShared routes the shared logger into a buffer for the test.
func captureShared(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestSharedLoggerSilentByDefault(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })
	SetLogger(nil)

	ctx := context.Background()
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if Logger().Enabled(ctx, level) {
			t.Errorf("Logger().Enabled(%v) = true, want false", level)
		}
	}
}

func TestRendererLogs(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		run   func(*Renderer) error
		want  string
	}{
		{
			name:  "create",
			level: slog.LevelDebug,
			run:   func(*Renderer) error { return nil },
			want:  "renderer created",
		},
		{
			name:  "lost context",
			level: slog.LevelWarn,
			run:   func(r *Renderer) error { r.LoseContext(); return nil },
			want:  "device context lost",
		},
		{
			name:  "incomplete target",
			level: slog.LevelWarn,
			run: func(r *Renderer) error {
				rt, err := r.CreateRenderTarget(0, 0)
				if err != nil {
					return err
				}
				return r.RenderTo(rt, nil, nil)
			},
			want: "incomplete",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureShared(t, tt.level)
			r, err := NewCanvasRenderer(WithWidth(8), WithHeight(8))
			if err != nil {
				t.Fatalf("NewCanvasRenderer: %v", err)
			}
			defer r.Destroy()
			if err := tt.run(r); err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("log = %q, want it to mention %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWithLoggerBypassesShared(t *testing.T) {
	shared := captureShared(t, slog.LevelDebug)
	var own bytes.Buffer
	r, err := NewCanvasRenderer(WithWidth(8), WithHeight(8),
		WithLogger(slog.New(slog.NewTextHandler(&own, nil))))
	if err != nil {
		t.Fatalf("NewCanvasRenderer: %v", err)
	}
	defer r.Destroy()

	r.LoseContext()
	if !strings.Contains(own.String(), "device context lost") {
		t.Errorf("renderer log = %q, want the lost context", own.String())
	}
	if strings.Contains(shared.String(), "device context lost") {
		t.Errorf("shared log = %q, want nothing from a renderer with its own logger", shared.String())
	}
}

func TestSetLoggerRace(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetLogger(slog.Default())
				SetLogger(nil)
				return
			}
			Logger().Debug("frame", "n", i)
		}()
	}
	wg.Wait()
}
