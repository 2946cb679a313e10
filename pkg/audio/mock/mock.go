// Package mock provides in-memory mock implementations of the
// [audio.InputDevice] and [audio.Player] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields the test can set to control return values.
//
// Typical usage:
//
//	dev := &mock.InputDevice{
//	    Blocks: []audio.Block{make(audio.Block, 4096), make(audio.Block, 4096)},
//	    Rate:   24000,
//	}
//	ch, err := dev.Start(ctx)
package mock

import (
	"context"
	"sync"

	"github.com/clayvoice/clayvoice/pkg/audio"
)

// ─── InputDevice ──────────────────────────────────────────────────────────────

// InputDevice is a mock implementation of [audio.InputDevice]. On Start it
// delivers the configured Blocks and then waits for Stop before closing the
// channel, mimicking a live device that produces data until released.
type InputDevice struct {
	mu sync.Mutex

	// Blocks are delivered on the capture channel after Start.
	Blocks []audio.Block

	// Rate is returned by SampleRate.
	Rate int

	// StartError is returned by Start; when non-nil no channel is opened.
	// Use this to simulate a missing device or denied permission.
	StartError error

	// CallCountStart records how many times Start was called.
	CallCountStart int

	// CallCountStop records how many times Stop was called.
	CallCountStop int

	stop chan struct{}
}

// Start implements [audio.InputDevice]. It returns StartError if set,
// otherwise a channel that yields Blocks and closes once Stop is called.
func (d *InputDevice) Start(ctx context.Context) (<-chan audio.Block, error) {
	d.mu.Lock()
	d.CallCountStart++
	if d.StartError != nil {
		d.mu.Unlock()
		return nil, d.StartError
	}
	d.stop = make(chan struct{})
	stop := d.stop
	blocks := make([]audio.Block, len(d.Blocks))
	copy(blocks, d.Blocks)
	d.mu.Unlock()

	ch := make(chan audio.Block, len(blocks))
	go func() {
		defer close(ch)
		for _, b := range blocks {
			select {
			case ch <- b:
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
		select {
		case <-ctx.Done():
		case <-stop:
		}
	}()
	return ch, nil
}

// Stop implements [audio.InputDevice]. It closes the capture channel opened
// by Start. Safe to call multiple times and before Start.
func (d *InputDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountStop++
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
}

// SampleRate implements [audio.InputDevice]. Returns Rate.
func (d *InputDevice) SampleRate() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Rate
}

// ─── Player ───────────────────────────────────────────────────────────────────

// PlayCall records the argument of a single [Player.Play] invocation.
type PlayCall struct {
	// Chunk is the encoded audio passed to Play.
	Chunk []byte
}

// Player is a mock implementation of [audio.Player]. Each Play call is
// recorded and, when Gate is set, blocks until a value is received from it,
// letting tests control exactly when a playback "completes".
type Player struct {
	mu sync.Mutex

	// PlayError is returned by every Play call.
	PlayError error

	// Gate, when non-nil, is received from before Play returns. Send one value
	// per expected Play call to step playback forward deterministically.
	Gate chan struct{}

	// PlayCalls records all Play invocations in order.
	PlayCalls []PlayCall
}

// Play implements [audio.Player]. Records the chunk, waits on Gate if
// configured, and returns PlayError.
func (p *Player) Play(ctx context.Context, chunk []byte) error {
	p.mu.Lock()
	p.PlayCalls = append(p.PlayCalls, PlayCall{Chunk: chunk})
	gate := p.Gate
	err := p.PlayError
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Calls returns a copy of the recorded Play invocations.
func (p *Player) Calls() []PlayCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PlayCall, len(p.PlayCalls))
	copy(out, p.PlayCalls)
	return out
}
