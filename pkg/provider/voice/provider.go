// Package voice defines the Provider interface for turn-based
// speech-to-speech backends.
//
// A voice provider accepts one encoded utterance plus the conversation
// context and returns the model's reply: text, and optionally a synthesized
// audio chunk. Unlike a streaming S2S session, the exchange is a single
// request/response pair — the provider holds no conversation state between
// calls.
//
// All implementations must be safe for concurrent use.
package voice

import (
	"context"
	"errors"
	"fmt"

	"github.com/clayvoice/clayvoice/internal/transcript"
)

// Request carries one voice turn to the remote model.
type Request struct {
	// APIKey is the "<id>.<secret>" credential for this turn. When empty the
	// provider falls back to its built-in default key.
	APIKey string

	// AudioWAV is the encoded utterance (canonical 44-byte-header WAV).
	AudioWAV []byte

	// History is the prior transcript. Entries with absent or placeholder
	// content are excluded from the outgoing message list; past audio payloads
	// are never resent.
	History []transcript.Message

	// SystemPrompt is the persona instruction prepended to the conversation.
	SystemPrompt string

	// KnowledgeBase is free-form context appended to the system prompt under a
	// labeled section header.
	KnowledgeBase string
}

// Reply is the model's response to one turn.
type Reply struct {
	// Text is the reply transcript. Empty when the model returned none.
	Text string

	// AudioChunk is the base64-encoded synthesized reply audio, empty when the
	// model returned text only.
	AudioChunk string
}

// Provider is the abstraction over a turn-based voice backend.
type Provider interface {
	// Exchange performs exactly one request/response round trip. It returns a
	// *RemoteError for non-success responses, a *TransportError for
	// network-layer failures, and never retries: voice turns are user-paced
	// and a silent retry would re-authenticate and double-charge the turn.
	Exchange(ctx context.Context, req Request) (*Reply, error)
}

// RemoteError is a non-success response from the remote model. Body carries
// the error payload verbatim so the user sees what the service said.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("voice: remote error (%d): %s", e.StatusCode, e.Body)
}

// TransportError is a network-layer failure (timeout, DNS, TLS) that
// prevented a response from arriving.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("voice: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsRemoteError unwraps err into a *RemoteError if one is in its chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var re *RemoteError
	ok := errors.As(err, &re)
	return re, ok
}
