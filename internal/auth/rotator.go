package auth

import (
	"strings"
	"sync"
)

// cursorResetFactor bounds the rotation cursor's magnitude: once it reaches
// 100 * len(keys) it resets to 0. Because 100n mod n = 0, the reset never
// alters the observable selection sequence.
const cursorResetFactor = 100

// KeyRotator selects API keys round-robin from a comma-separated list. The
// cursor is process-wide for the rotator instance and serialized with a
// mutex, so two concurrent turns never receive the same key unless the list
// has length one. Inject one rotator per process through the session
// controller's constructor rather than sharing global state.
type KeyRotator struct {
	mu     sync.Mutex
	cursor int
}

// NewKeyRotator returns a rotator with its cursor at zero.
func NewKeyRotator() *KeyRotator {
	return &KeyRotator{}
}

// Next returns the next key from configured, a comma-separated list (ASCII
// or fullwidth commas), with entries trimmed and empties discarded. When the
// list is empty it returns fallback without consuming the cursor. The cursor
// survives only for the process lifetime.
func (r *KeyRotator) Next(configured, fallback string) string {
	keys := SplitKeys(configured)
	if len(keys) == 0 {
		return fallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := keys[r.cursor%len(keys)]
	r.cursor++
	if r.cursor >= cursorResetFactor*len(keys) {
		r.cursor = 0
	}
	return key
}

// SplitKeys splits a configured key list on ASCII and fullwidth commas,
// trims whitespace, and drops empty entries.
func SplitKeys(configured string) []string {
	parts := strings.FieldsFunc(configured, func(r rune) bool {
		return r == ',' || r == '，'
	})
	keys := parts[:0]
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
