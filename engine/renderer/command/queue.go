package command

// queue is the implementation of Queue.
type queue struct {
	buffers []CommandBuffer
}

// Queue collects submitted command buffers for one frame and replays them on Flush.
type Queue interface {
	// Submit enqueues a buffer. Nil and empty buffers are ignored.
	//
	// Parameters:
	//   - buffer: the buffer to enqueue
	Submit(buffer CommandBuffer)

	// Flush executes every pending buffer in submission order, clears each one, and empties the queue.
	//
	// Parameters:
	//   - backend: the backend receiving the calls
	Flush(backend Backend)

	// Clear drops every pending buffer without executing it.
	Clear()

	// Empty reports whether no buffer is pending.
	Empty() bool

	// PendingBufferCount returns the number of pending buffers.
	PendingBufferCount() int
}

var _ Queue = &queue{}

// NewQueue creates an empty command queue.
func NewQueue() Queue {
	return &queue{}
}

func (q *queue) Submit(buffer CommandBuffer) {
	if buffer == nil || buffer.Empty() {
		return
	}
	q.buffers = append(q.buffers, buffer)
}

func (q *queue) Flush(backend Backend) {
	for _, buffer := range q.buffers {
		buffer.Execute(backend)
		buffer.Clear()
	}
	q.Clear()
}

func (q *queue) Clear() {
	clear(q.buffers)
	q.buffers = q.buffers[:0]
}

func (q *queue) Empty() bool {
	return len(q.buffers) == 0
}

func (q *queue) PendingBufferCount() int {
	return len(q.buffers)
}
