package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/batch2d/vertex"
)

// setupRecorder returns a recorder with one shape shader, a 64-byte vertex
// buffer and a frame in progress.
func setupRecorder(t *testing.T) (*Recorder, ShaderID, BufferID) {
	t.Helper()
	r := NewRecorder()
	sh, err := r.CreateShader(&ShaderDesc{Name: "shape", Layout: vertex.ShapeLayout})
	if err != nil {
		t.Fatalf("CreateShader: %v", err)
	}
	buf, err := r.CreateBuffer(BufferDesc{Label: "vb", Size: 64})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := r.BeginFrame(100, 100); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	return r, sh, buf
}

func TestListDispatchOrder(t *testing.T) {
	r, sh, buf := setupRecorder(t)

	l := NewList()
	l.AppendClear(ClearCommand{Color: [4]float32{0, 0, 0, 1}})
	l.AppendUniform(UpdateUniformCommand{Shader: sh, Name: "u_view_matrix"})
	l.UpdateBuffer(buf, 0, make([]byte, 48))
	l.AppendDraw(DrawCommand{Shader: sh, VertexBuffer: buf, VertexCount: 3})
	l.UpdateBuffer(buf, 0, make([]byte, 48))
	l.AppendDraw(DrawCommand{Shader: sh, VertexBuffer: buf, VertexCount: 3})

	if l.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", l.Len())
	}
	if err := l.Dispatch(r); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := []CallOp{OpBeginFrame, OpClear, OpSetUniform, OpWriteBuffer, OpDraw, OpWriteBuffer, OpDraw}
	if len(r.Calls) != len(want) {
		t.Fatalf("recorded %d calls, want %d", len(r.Calls), len(want))
	}
	for i, op := range want {
		if r.Calls[i].Op != op {
			t.Errorf("call %d = %s, want %s", i, r.Calls[i].Op, op)
		}
	}
}

func TestListUploadIsCopied(t *testing.T) {
	r, sh, buf := setupRecorder(t)

	data := make([]byte, 16)
	data[0] = 7
	l := NewList()
	l.UpdateBuffer(buf, 0, data)
	data[0] = 9 // must not affect the recorded command

	cmd := l.At(0).(*UpdateBufferResourceCommand)
	if cmd.Data[0] != 7 {
		t.Errorf("Data[0] = %d, want 7", cmd.Data[0])
	}

	l.UpdateBuffer(buf, 16, []byte{1, 2, 3})
	if len(cmd.Data) != 16 {
		t.Errorf("first upload length = %d after second append, want 16", len(cmd.Data))
	}

	l.AppendDraw(DrawCommand{Shader: sh, VertexBuffer: buf, VertexCount: 1})
	if err := l.Dispatch(r); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := r.BufferData(buf)[0]; got != 7 {
		t.Errorf("buffer byte 0 = %d, want 7", got)
	}
}

func TestListAppendForms(t *testing.T) {
	l := NewList()
	l.Append(&ClearCommand{Color: [4]float32{1, 0, 0, 1}})
	l.Append(&ClearCommand{})
	l.Append(&DrawCommand{VertexCount: 3})
	l.Append(&DrawIndexedCommand{IndexCount: 6})
	l.Append(&UpdateUniformCommand{Name: "u"})
	l.Append(&UpdateBufferResourceCommand{Data: []byte{1}})

	counts := map[CommandType]int{
		CmdClear:         2,
		CmdDraw:          1,
		CmdDrawIndexed:   1,
		CmdUpdateUniform: 1,
		CmdUpdateBuffer:  1,
	}
	for typ, want := range counts {
		if got := l.Count(typ); got != want {
			t.Errorf("Count(%s) = %d, want %d", typ, got, want)
		}
	}

	cmds := l.Commands()
	if len(cmds) != 6 {
		t.Fatalf("Commands() returned %d, want 6", len(cmds))
	}
	if cmds[2].Type() != CmdDraw {
		t.Errorf("Commands()[2].Type() = %s, want Draw", cmds[2].Type())
	}

	// The list keeps its own copy of appended commands.
	draw := &DrawCommand{VertexCount: 9}
	l.Append(draw)
	draw.VertexCount = 12
	if got := l.At(l.Len() - 1).(*DrawCommand).VertexCount; got != 9 {
		t.Errorf("appended VertexCount = %d, want 9", got)
	}
}

func TestListDispatchStopsAtError(t *testing.T) {
	r, sh, buf := setupRecorder(t)

	l := NewList()
	l.AppendDraw(DrawCommand{Shader: sh, VertexBuffer: buf, VertexCount: 3})
	l.AppendDraw(DrawCommand{Shader: sh, VertexBuffer: 999, VertexCount: 3})
	l.AppendDraw(DrawCommand{Shader: sh, VertexBuffer: buf, VertexCount: 3})

	err := l.Dispatch(r)
	if !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("Dispatch error = %v, want ErrUnknownResource", err)
	}
	if !strings.Contains(err.Error(), "command 1 (Draw)") {
		t.Errorf("error %q does not name the failing command", err)
	}
	if n := len(r.Draws()); n != 1 {
		t.Errorf("executed %d draws, want 1", n)
	}
}

func TestEmptyDrawsAreSkipped(t *testing.T) {
	r, sh, buf := setupRecorder(t)

	l := NewList()
	l.AppendDraw(DrawCommand{Shader: sh, VertexBuffer: buf})
	l.AppendDrawIndexed(DrawIndexedCommand{Shader: sh, VertexBuffer: buf})
	if err := l.Dispatch(r); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if n := len(r.Draws()); n != 0 {
		t.Errorf("executed %d draws, want 0", n)
	}
}

func TestListResetReusesStorage(t *testing.T) {
	l := NewList()
	for i := 0; i < 10; i++ {
		l.UpdateBuffer(1, 0, make([]byte, 1024))
		l.AppendDraw(DrawCommand{VertexCount: 6})
	}
	arenaCap := cap(l.arena)
	l.Reset()
	if l.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", l.Len())
	}
	if cap(l.arena) != arenaCap {
		t.Errorf("arena capacity = %d after Reset, want %d", cap(l.arena), arenaCap)
	}

	payload := make([]byte, 1024)
	allocs := testing.AllocsPerRun(10, func() {
		l.Reset()
		for i := 0; i < 10; i++ {
			l.UpdateBuffer(1, 0, payload)
			l.AppendDraw(DrawCommand{VertexCount: 6})
		}
	})
	if allocs > 0 {
		t.Errorf("steady-state frame allocated %.0f times, want 0", allocs)
	}
}

func TestDrawIndexedCapturesReferencedVertices(t *testing.T) {
	r := NewRecorder()
	sh, _ := r.CreateShader(&ShaderDesc{Name: "sprite", Layout: vertex.SpriteLayout})
	vb, _ := r.CreateBuffer(BufferDesc{Size: 4 * vertex.SpriteLayout.Stride})
	ib, _ := r.CreateBuffer(BufferDesc{Size: 12, Usage: BufferUsageIndex})
	_ = r.BeginFrame(10, 10)

	pattern, err := vertex.NewQuadIndexPattern(1)
	if err != nil {
		t.Fatalf("NewQuadIndexPattern: %v", err)
	}
	if err := r.WriteBuffer(ib, 0, pattern.Bytes()); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	cmd := &DrawIndexedCommand{Shader: sh, VertexBuffer: vb, IndexBuffer: ib, IndexCount: 6}
	if err := cmd.Dispatch(r); err != nil {
		t.Fatalf("DrawIndexed: %v", err)
	}
	d := r.Draws()
	if len(d) != 1 {
		t.Fatalf("got %d draws, want 1", len(d))
	}
	if d[0].VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", d[0].VertexCount())
	}
}

func TestRecorderShaderFailure(t *testing.T) {
	boom := errors.New("syntax error")
	r := NewRecorder()
	r.ShaderErrors = map[string]error{"bad": boom}

	_, err := r.CreateShader(&ShaderDesc{Name: "bad"})
	var ce *ShaderCompileError
	if !errors.As(err, &ce) {
		t.Fatalf("CreateShader error = %v, want *ShaderCompileError", err)
	}
	if ce.Name != "bad" || !errors.Is(err, boom) {
		t.Errorf("ShaderCompileError = %+v, want name bad wrapping %v", ce, boom)
	}
	if _, err := r.CreateShader(&ShaderDesc{Name: "good"}); err != nil {
		t.Errorf("CreateShader(good) = %v, want nil", err)
	}
}

func TestRecorderTargetStatus(t *testing.T) {
	r := NewRecorder()
	ok, _, err := r.CreateRenderTarget(TargetDesc{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	bad, _, _ := r.CreateRenderTarget(TargetDesc{Width: 0, Height: 4})

	if s := r.TargetStatus(ok); s != FramebufferComplete {
		t.Errorf("status = %v, want complete", s)
	}
	if s := r.TargetStatus(bad); s != FramebufferIncompleteDimensions {
		t.Errorf("status = %v, want incomplete dimensions", s)
	}
	if s := r.TargetStatus(DefaultTarget); s != FramebufferComplete {
		t.Errorf("default target status = %v, want complete", s)
	}
	if !strings.Contains(FramebufferIncompleteDimensions.String(), "dimensions") {
		t.Errorf("String() = %q, want a readable description", FramebufferIncompleteDimensions)
	}

	r.DestroyRenderTarget(ok)
	if _, _, _, targets := r.Live(); targets != 1 {
		t.Errorf("live targets = %d, want 1", targets)
	}
}

func TestExecutionOutsideFrame(t *testing.T) {
	r := NewRecorder()
	if err := r.Clear(DefaultTarget, [4]float32{}); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Clear outside frame = %v, want ErrNoFrame", err)
	}
	_ = r.Close()
	if err := r.BeginFrame(1, 1); !errors.Is(err, ErrBackendClosed) {
		t.Errorf("BeginFrame after Close = %v, want ErrBackendClosed", err)
	}
}
