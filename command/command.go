// Package command provides the deferred, data-only draw commands emitted by
// the batches and the Backend contract that executes them.
//
// A frame produces an ordered List: buffer uploads, uniform updates, clears
// and draw calls. The list is dispatched against a Backend strictly in
// append order. Commands never reorder or merge; minimizing their number is
// the job of the batch manager that emits them.
//
// # Example
//
//	list := command.NewList()
//	list.UpdateBuffer(vbuf, 0, vertices)
//	list.AppendDrawIndexed(command.DrawIndexedCommand{
//	    Shader:       shader,
//	    VertexBuffer: vbuf,
//	    IndexBuffer:  ibuf,
//	    IndexCount:   6,
//	    Output:       command.OutputStage{Blend: command.BlendNormal},
//	})
//	err := list.Dispatch(backend)
package command

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdUpdateBuffer  CommandType = iota // Upload bytes into a buffer
	CmdUpdateUniform                    // Set a shader matrix uniform
	CmdClear                            // Clear a render target
	CmdDraw                             // Non-indexed draw
	CmdDrawIndexed                      // Indexed draw
)

var commandTypeNames = [...]string{
	CmdUpdateBuffer:  "UpdateBuffer",
	CmdUpdateUniform: "UpdateUniform",
	CmdClear:         "Clear",
	CmdDraw:          "Draw",
	CmdDrawIndexed:   "DrawIndexed",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is implemented by every command type.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType

	// Dispatch executes the command against b.
	Dispatch(b Backend) error
}

// Resource handles. The zero value of each is invalid, except for TargetID
// where zero names the backend's default surface.
type (
	ShaderID  uint32
	BufferID  uint32
	TextureID uint32
	TargetID  uint32
)

// DefaultTarget is the backend's presentation surface.
const DefaultTarget TargetID = 0

// MaxTextureUnits is the number of texture bindings a draw can carry.
const MaxTextureUnits = 4

// TextureBindings is a fixed-size set of bound textures, indexed by unit.
type TextureBindings struct {
	Units [MaxTextureUnits]TextureID
	Count int
}

// Bind returns a binding set with tex on unit 0.
func Bind(tex TextureID) TextureBindings {
	if tex == 0 {
		return TextureBindings{}
	}
	return TextureBindings{Units: [MaxTextureUnits]TextureID{tex}, Count: 1}
}

// Primary returns the texture on unit 0, or 0 when nothing is bound.
func (t TextureBindings) Primary() TextureID {
	if t.Count == 0 {
		return 0
	}
	return t.Units[0]
}

// UpdateBufferResourceCommand uploads Data into Buffer at Offset bytes.
// Data is owned by the List that created the command.
type UpdateBufferResourceCommand struct {
	Buffer BufferID
	Offset int
	Data   []byte
}

// Type implements Command.
func (UpdateBufferResourceCommand) Type() CommandType { return CmdUpdateBuffer }

// Dispatch implements Command.
func (c *UpdateBufferResourceCommand) Dispatch(b Backend) error {
	return b.WriteBuffer(c.Buffer, c.Offset, c.Data)
}

// UpdateUniformCommand sets a 4x4 matrix uniform (column-major) on a shader.
type UpdateUniformCommand struct {
	Shader ShaderID
	Name   string
	Value  [16]float32
}

// Type implements Command.
func (UpdateUniformCommand) Type() CommandType { return CmdUpdateUniform }

// Dispatch implements Command.
func (c *UpdateUniformCommand) Dispatch(b Backend) error {
	return b.SetUniform(c.Shader, c.Name, c.Value)
}

// ClearCommand fills a render target with a premultiplied RGBA color.
type ClearCommand struct {
	Target TargetID
	Color  [4]float32
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// Dispatch implements Command.
func (c *ClearCommand) Dispatch(b Backend) error {
	return b.Clear(c.Target, c.Color)
}

// DrawCommand draws VertexCount vertices starting at FirstVertex.
type DrawCommand struct {
	Shader       ShaderID
	Topology     Topology
	VertexBuffer BufferID
	FirstVertex  int
	VertexCount  int
	Textures     TextureBindings
	Output       OutputStage
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// Dispatch implements Command.
func (c *DrawCommand) Dispatch(b Backend) error {
	if c.VertexCount == 0 {
		return nil
	}
	return b.Draw(c)
}

// DrawIndexedCommand draws IndexCount indices starting at FirstIndex.
type DrawIndexedCommand struct {
	Shader       ShaderID
	Topology     Topology
	VertexBuffer BufferID
	IndexBuffer  BufferID
	IndexFormat  IndexFormat
	FirstIndex   int
	IndexCount   int
	BaseVertex   int
	Textures     TextureBindings
	Output       OutputStage
}

// Type implements Command.
func (DrawIndexedCommand) Type() CommandType { return CmdDrawIndexed }

// Dispatch implements Command.
func (c *DrawIndexedCommand) Dispatch(b Backend) error {
	if c.IndexCount == 0 {
		return nil
	}
	return b.DrawIndexed(c)
}
