package audio

import "sync"

// FrameBuffer accumulates capture blocks during a recording and flattens them
// into one contiguous sample slice when the recording stops. Blocks are kept
// in arrival order; none are dropped or reordered.
//
// It is safe for one producer (the capture delivery goroutine) and one
// consumer (the session controller) to use concurrently.
type FrameBuffer struct {
	mu     sync.Mutex
	blocks []Block
	total  int
}

// NewFrameBuffer returns an empty FrameBuffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Push appends one block. The buffer keeps a reference to the slice, so the
// caller must not reuse it afterwards.
func (b *FrameBuffer) Push(block Block) {
	if len(block) == 0 {
		return
	}
	b.mu.Lock()
	b.blocks = append(b.blocks, block)
	b.total += len(block)
	b.mu.Unlock()
}

// Len reports the total number of samples accumulated so far.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// DrainFlattened concatenates all pushed blocks in arrival order into a
// single slice and clears the buffer. With no blocks accumulated it returns
// an empty slice; callers must treat that as "no audio captured" and abort
// the turn rather than encode an empty payload.
func (b *FrameBuffer) DrainFlattened() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]float32, 0, b.total)
	for _, block := range b.blocks {
		out = append(out, block...)
	}
	b.blocks = nil
	b.total = 0
	return out
}

// Reset discards all accumulated blocks without flattening them.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	b.blocks = nil
	b.total = 0
	b.mu.Unlock()
}
