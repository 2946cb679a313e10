// Package transcript holds the in-memory conversation log for a voice
// session. Entries are appended in turn order and survive until the session
// is reset; the only permitted mutation is resolving the optimistic
// placeholder a user turn is created with.
package transcript

import "sync"

// Role identifies the speaker of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Placeholder is the sentinel content of a user turn whose network round trip
// has not resolved yet. Entries still carrying it are excluded from the
// history sent to the model.
const Placeholder = "..."

// Message is one conversational turn.
type Message struct {
	// Role is the speaker: user or assistant.
	Role Role

	// Content is the turn's text. User audio turns start as [Placeholder] and
	// are resolved in place once the outcome of the exchange is known.
	Content string

	// IsAudio marks turns that were spoken rather than typed.
	IsAudio bool
}

// Log is an insertion-ordered transcript owned by the session controller.
// Safe for concurrent use so the presentation layer can read it while a turn
// is in flight.
type Log struct {
	mu      sync.Mutex
	entries []Message
}

// NewLog returns an empty transcript.
func NewLog() *Log {
	return &Log{}
}

// AppendPlaceholder adds an optimistic user audio turn with [Placeholder]
// content. Call before the network round trip; resolve (or abandon) it once
// the outcome is known.
func (l *Log) AppendPlaceholder() {
	l.mu.Lock()
	l.entries = append(l.entries, Message{Role: RoleUser, Content: Placeholder, IsAudio: true})
	l.mu.Unlock()
}

// ResolvePlaceholder replaces the content of the most recent placeholder
// entry in place. This is the only post-creation mutation the log permits.
// A log without a pending placeholder is left unchanged.
func (l *Log) ResolvePlaceholder(content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Content == Placeholder {
			l.entries[i].Content = content
			return
		}
	}
}

// Append adds a resolved entry.
func (l *Log) Append(role Role, content string, isAudio bool) {
	l.mu.Lock()
	l.entries = append(l.entries, Message{Role: role, Content: content, IsAudio: isAudio})
	l.mu.Unlock()
}

// Messages returns a copy of the transcript in insertion order.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Reset discards all entries. This is the only way entries are ever removed.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
