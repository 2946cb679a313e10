// Package playback provides the sequential playback queue for synthesized
// reply audio. Chunks play strictly one at a time in arrival order; the queue
// reports "drained" exactly once each time it runs empty so the session
// controller knows when to return to idle.
package playback

import (
	"context"
	"log/slog"
	"sync"

	"github.com/clayvoice/clayvoice/pkg/audio"
)

// Option is a functional option for configuring a [Queue].
type Option func(*Queue)

// WithOnStarted registers a callback fired each time the queue transitions
// from idle to playing, before the first chunk of a run is rendered. A run's
// started callback always precedes its drained callback.
func WithOnStarted(fn func()) Option {
	return func(q *Queue) {
		q.onStarted = fn
	}
}

// WithOnDrained registers a callback fired exactly once per emptying event:
// after the last queued chunk finishes and nothing is playing.
func WithOnDrained(fn func()) Option {
	return func(q *Queue) {
		q.onDrained = fn
	}
}

// Queue plays opaque encoded-audio chunks through an [audio.Player], FIFO,
// with at most one playback operation in flight. Enqueueing while a chunk is
// playing appends behind all currently queued chunks; nothing is preempted,
// reordered, or dropped.
//
// Safe for concurrent use.
type Queue struct {
	player    audio.Player
	onStarted func()
	onDrained func()

	mu      sync.Mutex
	items   [][]byte
	playing bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Queue that renders chunks through player.
func New(player audio.Player, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		player: player,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Enqueue appends a chunk. If nothing is currently playing the queue begins
// draining immediately. Chunks enqueued on a closed queue are discarded.
func (q *Queue) Enqueue(chunk []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, chunk)
	if !q.playing {
		q.playing = true
		q.wg.Add(1)
		go q.drain()
	}
}

// Depth reports the number of chunks waiting to play (excluding the one
// currently rendering).
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsPlaying reports whether a playback operation is in flight or queued.
func (q *Queue) IsPlaying() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

// Close stops the drain loop, abandons the in-flight playback via context
// cancellation, and discards any queued chunks. The drained callback does not
// fire for a close. Subsequent calls are no-ops.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.items = nil
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return nil
}

// drain pops and plays chunks until the queue is empty or the queue closes.
// Each chunk plays to completion before the next starts.
func (q *Queue) drain() {
	defer q.wg.Done()

	// Fired from the drain goroutine itself, so however fast the run
	// completes, its started callback is delivered before its drained
	// callback.
	if q.onStarted != nil {
		q.onStarted()
	}

	for {
		q.mu.Lock()
		if q.closed || len(q.items) == 0 {
			q.playing = false
			fireDrained := !q.closed
			onDrained := q.onDrained
			q.mu.Unlock()

			if fireDrained && onDrained != nil {
				onDrained()
			}
			return
		}
		chunk := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		if err := q.player.Play(q.ctx, chunk); err != nil {
			if q.ctx.Err() != nil {
				q.mu.Lock()
				q.playing = false
				q.mu.Unlock()
				return
			}
			// A chunk that fails to render is skipped; the rest of the queue
			// still plays.
			slog.Warn("playback: chunk failed", "bytes", len(chunk), "err", err)
		}
	}
}
