package command

// Topology is the primitive assembly mode of a draw.
type Topology uint8

const (
	// TopologyTriangleList draws independent triangles. Every batch uses it.
	TopologyTriangleList Topology = iota
	// TopologyTriangleStrip draws connected triangles.
	TopologyTriangleStrip
	// TopologyLineList draws independent lines.
	TopologyLineList
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case TopologyTriangleList:
		return "TriangleList"
	case TopologyTriangleStrip:
		return "TriangleStrip"
	case TopologyLineList:
		return "LineList"
	default:
		return "Unknown"
	}
}

// IndexFormat is the element type of an index buffer.
type IndexFormat uint8

const (
	// IndexFormatUint16 is 16-bit indices.
	IndexFormatUint16 IndexFormat = iota
	// IndexFormatUint32 is 32-bit indices.
	IndexFormatUint32
)

// Size returns the index size in bytes.
func (f IndexFormat) Size() int {
	if f == IndexFormatUint32 {
		return 4
	}
	return 2
}

// BlendFactor is a blend equation operand.
type BlendFactor uint8

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrc
	BlendFactorOneMinusSrc
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDst
	BlendFactorOneMinusDst
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
	BlendFactorSrcAlphaSaturated
)

// BlendOperation combines the weighted source and destination.
type BlendOperation uint8

const (
	BlendOpAdd BlendOperation = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

// BlendComponent is one channel group of the blend equation.
type BlendComponent struct {
	Src       BlendFactor
	Dst       BlendFactor
	Operation BlendOperation
}

// BlendState is the fixed-function blend configuration of a draw.
type BlendState struct {
	Enabled bool
	Color   BlendComponent
	Alpha   BlendComponent
}

// NewBlendState returns an enabled state using the same factors for color
// and alpha.
func NewBlendState(src, dst BlendFactor, op BlendOperation) BlendState {
	c := BlendComponent{Src: src, Dst: dst, Operation: op}
	return BlendState{Enabled: true, Color: c, Alpha: c}
}

// BlendNormal is premultiplied source-over.
var BlendNormal = NewBlendState(BlendFactorOne, BlendFactorOneMinusSrcAlpha, BlendOpAdd)

// CompareFunction is a depth or stencil comparison.
type CompareFunction uint8

const (
	CompareAlways CompareFunction = iota
	CompareNever
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareGreater
	CompareNotEqual
)

// DepthStencilState configures depth and stencil testing. The zero value
// disables both, which is what every 2D batch uses.
type DepthStencilState struct {
	DepthTest      bool
	DepthWrite     bool
	DepthCompare   CompareFunction
	StencilTest    bool
	StencilCompare CompareFunction
	StencilRef     uint32
}

// Enabled reports whether any depth or stencil testing is requested.
func (s DepthStencilState) Enabled() bool {
	return s.DepthTest || s.DepthWrite || s.StencilTest
}

// Rect is an integer pixel rectangle.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// OutputStage describes where and how a draw writes its fragments.
type OutputStage struct {
	Target         TargetID
	Blend          BlendState
	DepthStencil   DepthStencilState
	Scissor        Rect
	ScissorEnabled bool
}
