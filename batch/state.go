package batch

import "github.com/gogpu/batch2d/command"

// StateCache mirrors the GPU state the manager last selected. It is only
// written through the Manager's Set* methods, each of which flushes the
// active batch before the value changes.
type StateCache struct {
	Batch          Kind
	Shader         command.ShaderID
	Texture        command.TextureID
	Blend          command.BlendMode
	// BlendState is Blend resolved when it was selected. Queued vertices
	// are drawn with it even if the mode is edited in the table afterwards.
	BlendState     command.BlendState
	Target         command.TargetID
	Scissor        command.Rect
	ScissorEnabled bool

	// targetIncomplete suppresses draws aimed at a target whose status
	// check failed.
	targetIncomplete bool
}

// TargetIncomplete reports whether draws are being suppressed because the
// current render target is incomplete.
func (s StateCache) TargetIncomplete() bool { return s.targetIncomplete }

// Stats counts manager activity since the last ResetStats.
type Stats struct {
	// DrawCalls is the number of draw commands appended.
	DrawCalls int
	// Flushes counts every flush of a non-empty batch, whether triggered by
	// a state change, a full buffer, a sprite/mesh switch or an explicit
	// Flush. Suppressed flushes are included.
	Flushes int
	// Skipped counts primitives dropped because their texture was pending.
	Skipped int
	// Suppressed counts flushes dropped for an incomplete render target.
	Suppressed int
	// Draws holds DrawCalls per batch kind.
	Draws [kindCount]int
}

func (s *Stats) recordDraw(k Kind) {
	s.DrawCalls++
	s.Draws[k]++
}
