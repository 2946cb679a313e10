// Package session implements the voice interaction state machine. A
// Controller owns the single session state and drives one turn at a time:
// capture audio from the input device, encode it, exchange it with the remote
// voice model, and hand the synthesized reply to the playback queue.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/clayvoice/clayvoice/internal/auth"
	"github.com/clayvoice/clayvoice/internal/config"
	"github.com/clayvoice/clayvoice/internal/observe"
	"github.com/clayvoice/clayvoice/internal/playback"
	"github.com/clayvoice/clayvoice/internal/transcript"
	"github.com/clayvoice/clayvoice/pkg/audio"
	"github.com/clayvoice/clayvoice/pkg/provider/voice"
)

// State is the session's single interaction state.
type State int

const (
	// StateIdle is the initial state: no capture, no turn in flight, nothing
	// playing.
	StateIdle State = iota

	// StateRecording means the input device is live and blocks are being
	// accumulated.
	StateRecording

	// StateProcessing covers the span from the end of capture until the model
	// reply has been applied.
	StateProcessing

	// StatePlaying means the reply audio is rendering through the queue.
	StatePlaying

	// StateError is entered when device acquisition or the exchange fails.
	// Recoverable: the next StartRecording leaves it.
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StatePlaying:
		return "playing"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	// resolvedUtterance replaces the transcript placeholder once the model has
	// accepted the audio turn.
	resolvedUtterance = "语音已发送"

	// fallbackReply stands in for an assistant turn whose reply carried no
	// usable text.
	fallbackReply = "Listening..."
)

var (
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("session: controller closed")

	// ErrBusy is returned by StartRecording when the session is neither idle
	// nor in the recoverable error state.
	ErrBusy = errors.New("session: recording unavailable in current state")
)

// SettingsSource supplies the user-editable settings snapshot read at the
// start of each turn. [config.Watcher] satisfies it; tests use
// [StaticSettings].
type SettingsSource interface {
	Settings() config.Settings
}

// StaticSettings is a fixed [SettingsSource].
type StaticSettings config.Settings

// Settings implements [SettingsSource].
func (s StaticSettings) Settings() config.Settings { return config.Settings(s) }

// Option is a functional option for configuring a [Controller].
type Option func(*Controller)

// WithMetrics wires metric instruments into the controller. Without it no
// metrics are recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithProviderName sets the provider label used in metrics attributes.
// Defaults to "glm".
func WithProviderName(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.providerName = name
		}
	}
}

// Controller owns the session state machine. All state transitions are
// serialized through an internal mutex; the remote exchange itself runs
// outside the lock so observers stay responsive during a turn.
//
// Safe for concurrent use.
type Controller struct {
	device       audio.InputDevice
	provider     voice.Provider
	providerName string
	settings     SettingsSource
	metrics      *observe.Metrics

	rotator *auth.KeyRotator
	queue   *playback.Queue
	log     *transcript.Log
	frames  *audio.FrameBuffer
	level   *audio.LevelMeter

	mu            sync.Mutex
	state         State
	lastErr       error
	captureDone   chan struct{}
	pendingChunks int
	stopping      bool
	closed        bool
}

// New creates a Controller wired to the given capture device, voice backend,
// audio output, and settings source.
func New(device audio.InputDevice, provider voice.Provider, player audio.Player, settings SettingsSource, opts ...Option) *Controller {
	c := &Controller{
		device:       device,
		provider:     provider,
		providerName: "glm",
		settings:     settings,
		rotator:      auth.NewKeyRotator(),
		log:          transcript.NewLog(),
		frames:       audio.NewFrameBuffer(),
		level:        &audio.LevelMeter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics != nil {
		player = &meteredPlayer{inner: player, metrics: c.metrics}
	}
	c.queue = playback.New(player,
		playback.WithOnStarted(c.onPlaybackStarted),
		playback.WithOnDrained(c.onPlaybackDrained),
	)
	return c
}

// meteredPlayer records per-chunk render latency around the wrapped player.
type meteredPlayer struct {
	inner   audio.Player
	metrics *observe.Metrics
}

func (p *meteredPlayer) Play(ctx context.Context, chunk []byte) error {
	start := time.Now()
	err := p.inner.Play(ctx, chunk)
	p.metrics.PlaybackDuration.Record(ctx, time.Since(start).Seconds())
	return err
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error recorded by the most recent failed operation, or nil.
// Cleared when recording starts again.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Transcript returns a copy of the conversation log.
func (c *Controller) Transcript() []transcript.Message {
	return c.log.Messages()
}

// Volume returns the current input level in [0, 1].
func (c *Controller) Volume() float64 {
	return c.level.Value()
}

// TickVolume steps the displayed level toward zero. Call at display-refresh
// cadence; it is a no-op while recording, when live blocks drive the level.
func (c *Controller) TickVolume() {
	if c.State() != StateRecording {
		c.level.Decay()
	}
}

// StartRecording acquires the input device and begins accumulating capture
// blocks. Valid only from the idle and error states; ErrBusy otherwise. A
// device acquisition failure transitions to the error state and the device is
// not retained.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateIdle && c.state != StateError {
		c.mu.Unlock()
		return ErrBusy
	}

	c.frames.Reset()
	ch, err := c.device.Start(ctx)
	if err != nil {
		err = fmt.Errorf("session: acquire input device: %w", err)
		c.lastErr = err
		c.setStateLocked(ctx, StateError)
		c.mu.Unlock()
		return err
	}

	c.lastErr = nil
	done := make(chan struct{})
	c.captureDone = done
	c.setStateLocked(ctx, StateRecording)
	c.mu.Unlock()

	go c.consume(ch, done)
	return nil
}

// consume appends capture blocks to the frame buffer and drives the level
// meter until the device channel closes.
func (c *Controller) consume(ch <-chan audio.Block, done chan struct{}) {
	defer close(done)
	for block := range ch {
		c.frames.Push(block)
		c.level.Observe(block)
	}
}

// StopRecording releases the input device and, when anything was captured,
// runs the full turn: encode, sign, exchange, apply the reply. A stop outside
// the recording state is a no-op. The device is released synchronously on
// every path out of recording.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	// The stopping flag covers the window between leaving the recording
	// state and entering processing, so a racing second stop cannot claim
	// the same capture or settle the state mid-turn.
	if c.state != StateRecording || c.stopping {
		c.mu.Unlock()
		return nil
	}
	c.stopping = true
	done := c.captureDone
	c.captureDone = nil
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.stopping = false
		c.mu.Unlock()
	}()

	c.device.Stop()
	if done != nil {
		<-done
	}

	samples := c.frames.DrainFlattened()
	if len(samples) == 0 {
		c.mu.Lock()
		c.setStateLocked(ctx, StateIdle)
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.setStateLocked(ctx, StateProcessing)
	c.mu.Unlock()

	err := c.runTurn(ctx, samples)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		c.setStateLocked(ctx, StateError)
		return err
	}
	// The queue's started callback may already have moved the state to
	// playing; only settle to idle when nothing is rendering.
	if c.state == StateProcessing && !c.queue.IsPlaying() {
		c.setStateLocked(ctx, StateIdle)
	}
	return nil
}

// runTurn performs one exchange with the remote model and applies the
// outcome to the transcript and the playback queue.
func (c *Controller) runTurn(ctx context.Context, samples []float32) error {
	ctx, span := observe.StartSpan(ctx, "session.turn")
	defer span.End()
	log := observe.Logger(ctx)

	rate := c.device.SampleRate()
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}
	wav := audio.EncodeWAV(samples, rate)

	settings := c.settings.Settings()
	key := c.rotator.Next(settings.APIKeys, auth.DefaultAPIKey)

	// History is snapshotted before the placeholder so this turn's own audio
	// entry never reaches the outgoing message list.
	history := c.log.Messages()
	c.log.AppendPlaceholder()

	start := time.Now()
	reply, err := c.provider.Exchange(ctx, voice.Request{
		APIKey:        key,
		AudioWAV:      wav,
		History:       history,
		SystemPrompt:  settings.SystemPrompt,
		KnowledgeBase: settings.KnowledgeBase,
	})
	elapsed := time.Since(start)

	if c.metrics != nil {
		c.metrics.TurnDuration.Record(ctx, elapsed.Seconds())
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordRemoteRequest(ctx, c.providerName, status)
	}

	if err != nil {
		if c.metrics != nil {
			kind := "transport"
			if _, ok := voice.AsRemoteError(err); ok {
				kind = "remote"
			}
			c.metrics.RecordRemoteError(ctx, c.providerName, kind)
		}
		// The placeholder stays unresolved so the failed turn is never resent.
		log.Error("voice turn failed", "provider", c.providerName, "err", err)
		return fmt.Errorf("session: exchange: %w", err)
	}

	c.log.ResolvePlaceholder(resolvedUtterance)

	text := reply.Text
	if strings.TrimSpace(text) == "" {
		text = fallbackReply
	}
	c.log.Append(transcript.RoleAssistant, text, reply.AudioChunk != "")

	if reply.AudioChunk != "" {
		chunk, decErr := base64.StdEncoding.DecodeString(reply.AudioChunk)
		if decErr != nil {
			log.Warn("reply audio is not valid base64, skipping playback", "err", decErr)
		} else {
			c.enqueueReply(ctx, chunk)
		}
	}

	log.Info("voice turn complete",
		"provider", c.providerName,
		"duration", elapsed,
		"reply_chars", len(reply.Text),
		"reply_audio", reply.AudioChunk != "",
	)
	return nil
}

// enqueueReply hands one decoded reply chunk to the playback queue and tracks
// queue depth.
func (c *Controller) enqueueReply(ctx context.Context, chunk []byte) {
	c.mu.Lock()
	c.pendingChunks++
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.QueueDepth.Add(ctx, 1)
	}
	c.queue.Enqueue(chunk)
}

// onPlaybackStarted moves the session to playing. Fired by the queue when it
// transitions from idle to rendering.
func (c *Controller) onPlaybackStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateProcessing || c.state == StateIdle {
		c.setStateLocked(context.Background(), StatePlaying)
	}
}

// onPlaybackDrained settles the session back to idle once all reply audio has
// rendered. It never clobbers recording or error states.
func (c *Controller) onPlaybackDrained() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := c.pendingChunks; n > 0 {
		c.pendingChunks = 0
		if c.metrics != nil {
			c.metrics.QueueDepth.Add(context.Background(), int64(-n))
		}
	}
	if c.state == StatePlaying || c.state == StateProcessing {
		c.setStateLocked(context.Background(), StateIdle)
	}
}

// setStateLocked transitions to the given state. Caller holds c.mu.
func (c *Controller) setStateLocked(ctx context.Context, to State) {
	if c.state == to {
		return
	}
	from := c.state
	c.state = to
	if c.metrics != nil {
		c.metrics.RecordStateTransition(ctx, from.String(), to.String())
	}
}

// ResetTranscript clears the conversation log.
func (c *Controller) ResetTranscript() {
	c.log.Reset()
}

// Close releases the input device if capturing and shuts down the playback
// queue. An exchange already in flight is left to finish; Close never cancels
// it.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	recording := c.state == StateRecording
	done := c.captureDone
	c.captureDone = nil
	c.mu.Unlock()

	if recording {
		c.device.Stop()
		if done != nil {
			<-done
		}
	}
	return c.queue.Close()
}
