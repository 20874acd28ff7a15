//go:build !nogpu

package gpu

import (
	"image"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/vertex"
)

func TestConvertBlend(t *testing.T) {
	got := convertBlend(command.BlendNormal)
	want := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	if got.Color != want || got.Alpha != want {
		t.Errorf("convertBlend(BlendNormal) = %+v, want %+v for both components", got, want)
	}

	screen := convertBlend(command.NewBlendState(command.BlendFactorOne, command.BlendFactorOneMinusSrc, command.BlendOpAdd))
	if screen.Color.DstFactor != gputypes.BlendFactorOneMinusSrc {
		t.Errorf("screen dst factor = %v, want OneMinusSrc", screen.Color.DstFactor)
	}
	if op := convertOperation(command.BlendOpReverseSubtract); op != gputypes.BlendOperationReverseSubtract {
		t.Errorf("convertOperation(ReverseSubtract) = %v", op)
	}
}

func TestConvertLayout(t *testing.T) {
	l := convertLayout(vertex.SpriteLayout)
	if l.ArrayStride != 24 {
		t.Errorf("ArrayStride = %d, want 24", l.ArrayStride)
	}
	if len(l.Attributes) != 4 {
		t.Fatalf("attributes = %d, want 4", len(l.Attributes))
	}
	tests := []struct {
		i      int
		format gputypes.VertexFormat
		offset uint64
	}{
		{0, gputypes.VertexFormatFloat32x2, 0},
		{1, gputypes.VertexFormatFloat32x2, 8},
		{2, gputypes.VertexFormatUnorm8x4, 16},
		{3, gputypes.VertexFormatFloat32, 20},
	}
	for _, tt := range tests {
		a := l.Attributes[tt.i]
		if a.Format != tt.format || a.Offset != tt.offset || a.ShaderLocation != uint32(tt.i) {
			t.Errorf("attribute %d = %+v, want format %v offset %d", tt.i, a, tt.format, tt.offset)
		}
	}
}

func TestScissorRect(t *testing.T) {
	tests := []struct {
		name       string
		out        command.OutputStage
		x, y, w, h uint32
	}{
		{"disabled", command.OutputStage{}, 0, 0, 100, 50},
		{"inside", command.OutputStage{ScissorEnabled: true, Scissor: command.Rect{X: 10, Y: 5, Width: 20, Height: 10}}, 10, 5, 20, 10},
		{"clamped", command.OutputStage{ScissorEnabled: true, Scissor: command.Rect{X: -10, Y: 40, Width: 200, Height: 20}}, 0, 40, 100, 10},
		{"outside", command.OutputStage{ScissorEnabled: true, Scissor: command.Rect{X: 200, Y: 0, Width: 10, Height: 10}}, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, w, h := scissorRect(&tt.out, 100, 50)
			if x != tt.x || y != tt.y || w != tt.w || h != tt.h {
				t.Errorf("scissorRect = (%d, %d, %d, %d), want (%d, %d, %d, %d)", x, y, w, h, tt.x, tt.y, tt.w, tt.h)
			}
		})
	}
}

func TestAlignedRowBytes(t *testing.T) {
	tests := []struct{ width, want int }{
		{1, 256},
		{64, 256},
		{65, 512},
		{100, 512},
	}
	for _, tt := range tests {
		if got := alignedRowBytes(tt.width); got != tt.want {
			t.Errorf("alignedRowBytes(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestUnpadRows(t *testing.T) {
	const pitch = 256
	src := make([]byte, pitch*2)
	for i := 0; i < 8; i++ {
		src[i] = byte(i + 1)
		src[pitch+i] = byte(i + 11)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 2, 2))
	unpadRows(dst, src, pitch)
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 11, 12, 13, 14, 15, 16, 17, 18}
	for i, v := range want {
		if dst.Pix[i] != v {
			t.Fatalf("Pix[%d] = %d, want %d", i, dst.Pix[i], v)
		}
	}
}

func TestTightPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	if got := tightPixels(img); len(got) != 64 || &got[0] != &img.Pix[0] {
		t.Error("tightPixels copied an unpadded image")
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	got := tightPixels(sub)
	if len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
	// Row 1, column 1 of the parent starts at byte 16+4.
	if got[0] != 20 || got[8] != 36 {
		t.Errorf("first bytes of rows = %d, %d, want 20, 36", got[0], got[8])
	}
}

func TestMatrixBytes(t *testing.T) {
	m := [16]float32{1, 2}
	b := matrixBytes(m)
	if len(b) != uniformSize {
		t.Fatalf("len = %d, want %d", len(b), uniformSize)
	}
	bits := uint32(b[4]) | uint32(b[5])<<8 | uint32(b[6])<<16 | uint32(b[7])<<24
	if math.Float32frombits(bits) != 2 {
		t.Errorf("second element = %v, want 2", math.Float32frombits(bits))
	}
}
