// Package audio provides the capture-side primitives of the Clayvoice
// pipeline: the block buffer that accumulates microphone callbacks, the WAV
// encoder that turns the flattened buffer into a request payload, and the
// level meter that feeds the volume indicator.
package audio

import "context"

// DefaultSampleRate is the sample rate assumed when the capture device cannot
// report its own (24 kHz, the native rate of GLM-4-Voice reply audio).
const DefaultSampleRate = 24000

// DefaultBlockSize is the per-callback sample count requested from capture
// devices.
const DefaultBlockSize = 4096

// Block is one capture callback's worth of mono float PCM samples, each in
// the range [-1, 1].
type Block []float32

// InputDevice abstracts a microphone. Start acquires the device and begins
// delivering blocks on the returned channel; the channel is closed after Stop
// so consumers can range over it without a separate done signal.
//
// The device is exclusively owned by the active recording: callers must call
// Stop on every exit path so the handle is never leaked.
type InputDevice interface {
	// Start acquires the device and begins capture. Returns an error when the
	// device is unavailable (no hardware, permission denied).
	Start(ctx context.Context) (<-chan Block, error)

	// Stop ends capture and releases the device. The block channel returned by
	// Start is closed once the last in-flight block has been delivered.
	// Calling Stop when not capturing is a no-op.
	Stop()

	// SampleRate reports the device's capture rate in Hz. Implementations that
	// cannot determine the rate return 0; callers fall back to
	// [DefaultSampleRate].
	SampleRate() int
}

// Player abstracts an audio output. Play renders one encoded chunk and blocks
// until the underlying audio-out operation completes or ctx is cancelled.
// The playback queue guarantees at most one Play call is in flight at a time.
type Player interface {
	Play(ctx context.Context, chunk []byte) error
}
