package command

import "fmt"

// entry locates a command inside the typed storage of a List.
type entry struct {
	typ CommandType
	idx int
}

// List is an append-only, FIFO command list.
//
// Commands are stored by value in per-type slices and upload payloads are
// copied into an arena, so a List reused across frames with Reset stops
// allocating once it has grown to the frame's size.
//
// List is not safe for concurrent use.
type List struct {
	order    []entry
	updates  []UpdateBufferResourceCommand
	uniforms []UpdateUniformCommand
	clears   []ClearCommand
	draws    []DrawCommand
	indexed  []DrawIndexedCommand
	arena    []byte
}

// NewList creates an empty list.
func NewList() *List {
	return &List{
		order: make([]entry, 0, 64),
		arena: make([]byte, 0, 64*1024),
	}
}

// Len returns the number of commands.
func (l *List) Len() int { return len(l.order) }

// UpdateBuffer appends an upload of data to buf at offset. The bytes are
// copied, so the caller may reuse data immediately.
func (l *List) UpdateBuffer(buf BufferID, offset int, data []byte) {
	start := len(l.arena)
	l.arena = append(l.arena, data...)
	l.updates = append(l.updates, UpdateBufferResourceCommand{
		Buffer: buf,
		Offset: offset,
		Data:   l.arena[start:len(l.arena):len(l.arena)],
	})
	l.order = append(l.order, entry{CmdUpdateBuffer, len(l.updates) - 1})
}

// AppendUniform appends a uniform update.
func (l *List) AppendUniform(c UpdateUniformCommand) {
	l.uniforms = append(l.uniforms, c)
	l.order = append(l.order, entry{CmdUpdateUniform, len(l.uniforms) - 1})
}

// AppendClear appends a clear.
func (l *List) AppendClear(c ClearCommand) {
	l.clears = append(l.clears, c)
	l.order = append(l.order, entry{CmdClear, len(l.clears) - 1})
}

// AppendDraw appends a non-indexed draw.
func (l *List) AppendDraw(c DrawCommand) {
	l.draws = append(l.draws, c)
	l.order = append(l.order, entry{CmdDraw, len(l.draws) - 1})
}

// AppendDrawIndexed appends an indexed draw.
func (l *List) AppendDrawIndexed(c DrawIndexedCommand) {
	l.indexed = append(l.indexed, c)
	l.order = append(l.order, entry{CmdDrawIndexed, len(l.indexed) - 1})
}

// Append appends a command given by pointer. The command is copied into
// the list, upload payloads included.
func (l *List) Append(c Command) {
	switch c := c.(type) {
	case *UpdateBufferResourceCommand:
		l.UpdateBuffer(c.Buffer, c.Offset, c.Data)
	case *UpdateUniformCommand:
		l.AppendUniform(*c)
	case *ClearCommand:
		l.AppendClear(*c)
	case *DrawCommand:
		l.AppendDraw(*c)
	case *DrawIndexedCommand:
		l.AppendDrawIndexed(*c)
	default:
		panic(fmt.Sprintf("command: unsupported command %T", c))
	}
}

// At returns the i-th command. The pointer is valid until the next append.
func (l *List) At(i int) Command {
	e := l.order[i]
	switch e.typ {
	case CmdUpdateBuffer:
		return &l.updates[e.idx]
	case CmdUpdateUniform:
		return &l.uniforms[e.idx]
	case CmdClear:
		return &l.clears[e.idx]
	case CmdDraw:
		return &l.draws[e.idx]
	default:
		return &l.indexed[e.idx]
	}
}

// Commands returns every command in append order.
func (l *List) Commands() []Command {
	out := make([]Command, len(l.order))
	for i := range l.order {
		out[i] = l.At(i)
	}
	return out
}

// Count returns the number of commands of type t.
func (l *List) Count(t CommandType) int {
	n := 0
	for _, e := range l.order {
		if e.typ == t {
			n++
		}
	}
	return n
}

// Dispatch executes every command against b in append order. It stops at
// the first failure.
func (l *List) Dispatch(b Backend) error {
	for i := range l.order {
		c := l.At(i)
		if err := c.Dispatch(b); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, c.Type(), err)
		}
	}
	return nil
}

// Reset empties the list, keeping its storage.
func (l *List) Reset() {
	l.order = l.order[:0]
	l.updates = l.updates[:0]
	l.uniforms = l.uniforms[:0]
	l.clears = l.clears[:0]
	l.draws = l.draws[:0]
	l.indexed = l.indexed[:0]
	l.arena = l.arena[:0]
}
