//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/vertex"
)

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(spirv))
	}
	code := make([]uint32, len(spirv)/4)
	for i := range code {
		code[i] = uint32(spirv[i*4]) |
			uint32(spirv[i*4+1])<<8 |
			uint32(spirv[i*4+2])<<16 |
			uint32(spirv[i*4+3])<<24
	}
	return code, nil
}

// pipeline returns the render pipeline of s for blend, creating it on
// first use.
func (b *Backend) pipeline(s *shaderRes, blend command.BlendState) (hal.RenderPipeline, error) {
	if p, ok := s.pipelines[blend]; ok {
		return p, nil
	}
	layout := b.plainLayout
	if s.textured {
		layout = b.texturedLayout
	}
	target := gputypes.ColorTargetState{
		Format:    surfaceFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if blend.Enabled {
		state := convertBlend(blend)
		target.Blend = &state
	}
	p, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  s.name + "_pipeline",
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     s.module,
			EntryPoint: "vs_main",
			Buffers:    []gputypes.VertexBufferLayout{convertLayout(s.layout)},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     s.module,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s pipeline: %w", s.name, err)
	}
	s.pipelines[blend] = p
	return p, nil
}

func convertLayout(l vertex.Layout) gputypes.VertexBufferLayout {
	attrs := make([]gputypes.VertexAttribute, len(l.Elements))
	for i, e := range l.Elements {
		attrs[i] = gputypes.VertexAttribute{
			Format:         convertFormat(e.Format),
			Offset:         uint64(e.Offset),
			ShaderLocation: e.Location,
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.Stride),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func convertFormat(f vertex.Format) gputypes.VertexFormat {
	switch f {
	case vertex.FormatFloat32x2:
		return gputypes.VertexFormatFloat32x2
	case vertex.FormatFloat32x4:
		return gputypes.VertexFormatFloat32x4
	case vertex.FormatUnorm8x4:
		return gputypes.VertexFormatUnorm8x4
	default:
		return gputypes.VertexFormatFloat32
	}
}

func convertBlend(s command.BlendState) gputypes.BlendState {
	return gputypes.BlendState{
		Color: convertComponent(s.Color),
		Alpha: convertComponent(s.Alpha),
	}
}

func convertComponent(c command.BlendComponent) gputypes.BlendComponent {
	return gputypes.BlendComponent{
		SrcFactor: convertFactor(c.Src),
		DstFactor: convertFactor(c.Dst),
		Operation: convertOperation(c.Operation),
	}
}

var blendFactors = [...]gputypes.BlendFactor{
	command.BlendFactorZero:              gputypes.BlendFactorZero,
	command.BlendFactorOne:               gputypes.BlendFactorOne,
	command.BlendFactorSrc:               gputypes.BlendFactorSrc,
	command.BlendFactorOneMinusSrc:       gputypes.BlendFactorOneMinusSrc,
	command.BlendFactorSrcAlpha:          gputypes.BlendFactorSrcAlpha,
	command.BlendFactorOneMinusSrcAlpha:  gputypes.BlendFactorOneMinusSrcAlpha,
	command.BlendFactorDst:               gputypes.BlendFactorDst,
	command.BlendFactorOneMinusDst:       gputypes.BlendFactorOneMinusDst,
	command.BlendFactorDstAlpha:          gputypes.BlendFactorDstAlpha,
	command.BlendFactorOneMinusDstAlpha:  gputypes.BlendFactorOneMinusDstAlpha,
	command.BlendFactorSrcAlphaSaturated: gputypes.BlendFactorSrcAlphaSaturated,
}

func convertFactor(f command.BlendFactor) gputypes.BlendFactor {
	if int(f) < len(blendFactors) {
		return blendFactors[f]
	}
	return gputypes.BlendFactorOne
}

func convertOperation(op command.BlendOperation) gputypes.BlendOperation {
	switch op {
	case command.BlendOpSubtract:
		return gputypes.BlendOperationSubtract
	case command.BlendOpReverseSubtract:
		return gputypes.BlendOperationReverseSubtract
	case command.BlendOpMin:
		return gputypes.BlendOperationMin
	case command.BlendOpMax:
		return gputypes.BlendOperationMax
	default:
		return gputypes.BlendOperationAdd
	}
}
