package canvas

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/gogpu/batch2d/batch"
	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/vertex"
)

const size = 64

// frame starts a cleared frame on a fresh backend and manager.
func frame(t *testing.T) (*Backend, *batch.Manager) {
	t.Helper()
	b := New(size, size, nil)
	m, err := batch.NewManager(b, command.NewList(), batch.DefaultConfig())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(m.Destroy)
	if err := b.BeginFrame(size, size); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := m.Resize(size, size, 1); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if err := b.Clear(command.DefaultTarget, [4]float32{0, 0, 0, 1}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	return b, m
}

// render flushes m, ends the frame and returns the surface contents.
func render(t *testing.T, b *Backend, m *batch.Manager) *image.RGBA {
	t.Helper()
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := m.Dispatch(); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	img, err := b.Snapshot(command.DefaultTarget)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return img
}

func solidTexture(t *testing.T, b *Backend, w, h int, c color.RGBA) *batch.Texture {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	id, err := b.CreateTexture(&command.TextureDesc{Label: "solid", Image: img, Filter: command.FilterNearest})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	return batch.NewTexture(id, w, h)
}

func TestClearAndSnapshot(t *testing.T) {
	b := New(4, 4, nil)
	if err := b.BeginFrame(4, 4); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	if err := b.Clear(command.DefaultTarget, [4]float32{1, 0, 0, 1}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	img, err := b.Snapshot(command.DefaultTarget)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if got, want := img.RGBAAt(2, 3), (color.RGBA{255, 0, 0, 255}); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
	// Snapshots are copies.
	img.Pix[0] = 7
	if b.Surface().Pix[0] == 7 {
		t.Error("Snapshot aliases the surface")
	}
}

func TestRectFill(t *testing.T) {
	b, m := frame(t)
	if err := m.Add(&batch.Rect{X: 8, Y: 8, Width: 16, Height: 16, Color: 0x00FF00, Alpha: 1}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img := render(t, b, m)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{16, 16, color.RGBA{0, 255, 0, 255}},
		{8, 23, color.RGBA{0, 255, 0, 255}},
		{23, 8, color.RGBA{0, 255, 0, 255}},
		{24, 16, color.RGBA{0, 0, 0, 255}},
		{4, 4, color.RGBA{0, 0, 0, 255}},
		{30, 16, color.RGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRectHalfAlpha(t *testing.T) {
	b, m := frame(t)
	if err := m.Add(&batch.Rect{X: 0, Y: 0, Width: size, Height: size, Color: 0xFFFFFF, Alpha: 0.5}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img := render(t, b, m)
	got := img.RGBAAt(32, 32)
	if d := int(got.R) - 128; d < -1 || d > 1 || got.A != 255 {
		t.Errorf("pixel = %v, want about (128, 128, 128, 255)", got)
	}
}

func TestSpriteSamplesTexture(t *testing.T) {
	b, m := frame(t)
	tex := solidTexture(t, b, 8, 8, color.RGBA{0, 0, 255, 255})
	s := batch.NewSprite(batch.FullFrame(tex), 32, 32)
	if err := m.Add(s, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img := render(t, b, m)
	if got, want := img.RGBAAt(31, 32), (color.RGBA{0, 0, 255, 255}); got != want {
		t.Errorf("inside pixel = %v, want %v", got, want)
	}
	if got, want := img.RGBAAt(20, 32), (color.RGBA{0, 0, 0, 255}); got != want {
		t.Errorf("outside pixel = %v, want %v", got, want)
	}
}

func TestSpriteTint(t *testing.T) {
	b, m := frame(t)
	tex := solidTexture(t, b, 8, 8, color.RGBA{255, 255, 255, 255})
	s := batch.NewSprite(batch.FullFrame(tex), 32, 32)
	s.Tint = 0xFF0000
	if err := m.Add(s, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img := render(t, b, m)
	if got, want := img.RGBAAt(32, 31), (color.RGBA{255, 0, 0, 255}); got != want {
		t.Errorf("tinted pixel = %v, want %v", got, want)
	}
}

func TestScissorClipsDraws(t *testing.T) {
	b, m := frame(t)
	if err := m.SetScissor(command.Rect{X: 0, Y: 0, Width: 32, Height: size}, true); err != nil {
		t.Fatalf("SetScissor: %v", err)
	}
	if err := m.Add(&batch.Rect{Width: size, Height: size, Color: 0xFFFFFF, Alpha: 1}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img := render(t, b, m)
	if got := img.RGBAAt(10, 10); got.R != 255 {
		t.Errorf("pixel inside scissor = %v, want white", got)
	}
	if got := img.RGBAAt(40, 10); got.R != 0 {
		t.Errorf("pixel outside scissor = %v, want black", got)
	}
}

func TestShapeStroke(t *testing.T) {
	b, m := frame(t)
	g := batch.NewGraphics(0, 0).
		LineStyle(4, 0xFF0000, 1).
		BeginPath().
		MoveTo(4, 32).
		LineTo(60, 32).
		StrokePath()
	if err := m.Add(g, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img := render(t, b, m)
	if got := img.RGBAAt(32, 32); got.R != 255 || got.G != 0 {
		t.Errorf("stroke pixel = %v, want red", got)
	}
	if got := img.RGBAAt(32, 40); got.R != 0 {
		t.Errorf("pixel below stroke = %v, want black", got)
	}
}

func TestRenderTargetRoundTrip(t *testing.T) {
	b, m := frame(t)
	target, texID, err := b.CreateRenderTarget(command.TargetDesc{Label: "rt", Width: 16, Height: 16})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	if err := b.Clear(target, [4]float32{0, 1, 0, 1}); err != nil {
		t.Fatalf("Clear target: %v", err)
	}
	s := batch.NewSprite(batch.FullFrame(batch.NewTexture(texID, 16, 16)), 32, 32)
	if err := m.Add(s, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	img := render(t, b, m)
	if got, want := img.RGBAAt(32, 32), (color.RGBA{0, 255, 0, 255}); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}

	snap, err := b.Snapshot(target)
	if err != nil {
		t.Fatalf("Snapshot(target): %v", err)
	}
	if snap.Bounds().Dx() != 16 {
		t.Errorf("target snapshot width = %d, want 16", snap.Bounds().Dx())
	}
}

func TestSelfSampleRejected(t *testing.T) {
	b := New(8, 8, nil)
	shader, err := b.CreateShader(&command.ShaderDesc{Name: "sprite", Layout: vertex.SpriteLayout, Textured: true})
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	vbuf, _ := b.CreateBuffer(command.BufferDesc{Size: 72})
	target, tex, _ := b.CreateRenderTarget(command.TargetDesc{Width: 8, Height: 8})
	if err := b.BeginFrame(8, 8); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	err = b.Draw(&command.DrawCommand{
		Shader:       shader,
		VertexBuffer: vbuf,
		VertexCount:  3,
		Textures:     command.Bind(tex),
		Output:       command.OutputStage{Target: target, Blend: command.BlendNormal},
	})
	if !errors.Is(err, ErrSelfSample) {
		t.Errorf("Draw = %v, want ErrSelfSample", err)
	}
}

func TestIncompleteTarget(t *testing.T) {
	b := New(8, 8, nil)
	target, _, err := b.CreateRenderTarget(command.TargetDesc{Label: "zero"})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	if got := b.TargetStatus(target); got != command.FramebufferIncompleteDimensions {
		t.Errorf("TargetStatus = %v, want incomplete dimensions", got)
	}
	if err := b.BeginFrame(8, 8); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	var fbErr *command.FramebufferError
	if err := b.Clear(target, [4]float32{}); !errors.As(err, &fbErr) {
		t.Errorf("Clear(incomplete) = %v, want *FramebufferError", err)
	}
}

func TestFrameErrors(t *testing.T) {
	b := New(8, 8, nil)
	if err := b.Clear(command.DefaultTarget, [4]float32{}); !errors.Is(err, command.ErrNoFrame) {
		t.Errorf("Clear outside frame = %v, want ErrNoFrame", err)
	}
	if err := b.BeginFrame(0, 8); err == nil {
		t.Error("BeginFrame(0, 8) succeeded")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.BeginFrame(8, 8); !errors.Is(err, command.ErrBackendClosed) {
		t.Errorf("BeginFrame after Close = %v, want ErrBackendClosed", err)
	}
	if _, err := b.CreateBuffer(command.BufferDesc{Size: 4}); !errors.Is(err, command.ErrBackendClosed) {
		t.Errorf("CreateBuffer after Close = %v, want ErrBackendClosed", err)
	}
}

func TestDepthStencilRejected(t *testing.T) {
	b := New(8, 8, nil)
	if err := b.BeginFrame(8, 8); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	err := b.Draw(&command.DrawCommand{
		VertexCount: 3,
		Output:      command.OutputStage{DepthStencil: command.DepthStencilState{StencilTest: true}},
	})
	if !errors.Is(err, command.ErrDepthStencilUnsupported) {
		t.Errorf("Draw = %v, want ErrDepthStencilUnsupported", err)
	}
}

func TestRegistered(t *testing.T) {
	bk, err := command.OpenBackend("canvas", command.BackendConfig{Width: 10, Height: 5})
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	c, ok := bk.(*Backend)
	if !ok {
		t.Fatalf("OpenBackend returned %T", bk)
	}
	if r := c.Surface().Bounds(); r.Dx() != 10 || r.Dy() != 5 {
		t.Errorf("surface = %v, want 10x5", r)
	}
}

func TestDecodeProjectsToPixels(t *testing.T) {
	d, err := newDecoder(vertex.ShapeLayout)
	if err != nil {
		t.Fatalf("newDecoder: %v", err)
	}
	buf := vertex.NewLinearBuffer32(vertex.ShapeFloats)
	off := buf.Allocate(vertex.ShapeFloats)
	buf.SetFloat32(off, 25)
	buf.SetFloat32(off+1, 75)
	buf.SetUint32(off+2, vertex.PackRGB(0xFF8000))
	buf.SetFloat32(off+3, 0.5)
	view := batch.Projection(100, 100)
	p, err := d.decode(buf.UsedBytes(), 0, &view, 200, 200)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Abs(p.x-50) > 1e-4 || math.Abs(p.y-150) > 1e-4 {
		t.Errorf("position = (%v, %v), want (50, 150)", p.x, p.y)
	}
	want := [4]float64{0.5, 128.0 / 255 * 0.5, 0, 0.5}
	for i := range want {
		if math.Abs(p.tint[i]-want[i]) > 1e-6 {
			t.Errorf("tint[%d] = %v, want %v", i, p.tint[i], want[i])
		}
	}
	if _, err := d.decode(buf.UsedBytes(), 1, &view, 200, 200); err == nil {
		t.Error("decode past the buffer succeeded")
	}
}

func TestSolveAffine(t *testing.T) {
	src := [3][2]float64{{0, 0}, {10, 0}, {0, 10}}
	dst := [3][2]float64{{5, 5}, {25, 5}, {5, 25}}
	m, ok := solveAffine(src, dst)
	if !ok {
		t.Fatal("solveAffine reported a degenerate mapping")
	}
	want := [6]float64{2, 0, 5, 0, 2, 5}
	for i := range want {
		if math.Abs(m[i]-want[i]) > 1e-9 {
			t.Errorf("m[%d] = %v, want %v", i, m[i], want[i])
		}
	}
	if _, ok := solveAffine([3][2]float64{{0, 0}, {1, 1}, {2, 2}}, dst); ok {
		t.Error("collinear source points were accepted")
	}
}

func TestBlendPixel(t *testing.T) {
	blends := command.NewBlendTable()
	add, _ := blends.State(command.BlendModeAdd)
	multiply, _ := blends.State(command.BlendModeMultiply)
	screen, _ := blends.State(command.BlendModeScreen)

	tests := []struct {
		name  string
		s, d  [4]float64
		state command.BlendState
		want  [4]float64
	}{
		{"normal", [4]float64{0.5, 0, 0, 0.5}, [4]float64{0, 0, 1, 1}, command.BlendNormal, [4]float64{0.5, 0, 0.5, 1}},
		{"add", [4]float64{1, 0, 0, 1}, [4]float64{0, 0, 1, 1}, add, [4]float64{1, 0, 1, 1}},
		{"multiply", [4]float64{0.5, 0.5, 0.5, 1}, [4]float64{1, 0.5, 0, 1}, multiply, [4]float64{0.5, 0.25, 0, 1}},
		{"screen", [4]float64{0.5, 0.5, 0.5, 1}, [4]float64{0.5, 0, 1, 1}, screen, [4]float64{0.75, 0.5, 1, 1}},
		{"disabled", [4]float64{0.2, 0.4, 0.6, 0.8}, [4]float64{1, 1, 1, 1}, command.BlendState{}, [4]float64{0.2, 0.4, 0.6, 0.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blendPixel(tt.s, tt.d, tt.state)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("blendPixel = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
