package command

// commandBuffer is the implementation of CommandBuffer.
type commandBuffer struct {
	label    string
	commands []RenderCmd
}

// CommandBuffer is an ordered list of RenderCmds recorded without touching the GPU.
// Each render graph pass records into its own buffer, which is then submitted to a Queue.
type CommandBuffer interface {
	// Label returns the debug label of the buffer (the owning pass name).
	Label() string

	// Submit appends a command. A nil command is ignored.
	//
	// Parameters:
	//   - cmd: the command to append
	Submit(cmd RenderCmd)

	// Record wraps fn as a Custom command. A nil closure is ignored.
	//
	// Parameters:
	//   - fn: closure run against the backend at replay time
	Record(fn func(Backend))

	// Execute replays every command, in order, against the backend. The buffer keeps its commands.
	//
	// Parameters:
	//   - backend: the backend receiving the calls
	Execute(backend Backend)

	// Clear removes every recorded command.
	Clear()

	// Empty reports whether no command is recorded.
	Empty() bool

	// Len returns the number of recorded commands.
	Len() int

	// Commands returns a copy of the recorded commands.
	Commands() []RenderCmd
}

var _ CommandBuffer = &commandBuffer{}

// NewCommandBuffer creates an empty command buffer.
//
// Parameters:
//   - label: debug label, usually the owning pass name
//
// Returns:
//   - CommandBuffer: the new buffer
func NewCommandBuffer(label string) CommandBuffer {
	return &commandBuffer{label: label}
}

func (b *commandBuffer) Label() string {
	return b.label
}

func (b *commandBuffer) Submit(cmd RenderCmd) {
	if cmd == nil {
		return
	}
	b.commands = append(b.commands, cmd)
}

func (b *commandBuffer) Record(fn func(Backend)) {
	if fn == nil {
		return
	}
	b.commands = append(b.commands, Custom{Fn: fn})
}

func (b *commandBuffer) Execute(backend Backend) {
	for _, cmd := range b.commands {
		Apply(cmd, backend)
	}
}

func (b *commandBuffer) Clear() {
	clear(b.commands)
	b.commands = b.commands[:0]
}

func (b *commandBuffer) Empty() bool {
	return len(b.commands) == 0
}

func (b *commandBuffer) Len() int {
	return len(b.commands)
}

func (b *commandBuffer) Commands() []RenderCmd {
	out := make([]RenderCmd, len(b.commands))
	copy(out, b.commands)
	return out
}
