package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// CommandPlayer renders audio by piping each chunk to an external command's
// stdin (e.g. "aplay -q -" or "mpv -"). Play blocks until the command exits,
// which is what gives the playback queue its sequential pacing.
type CommandPlayer struct {
	name string
	args []string
}

// NewCommandPlayer creates a player that runs name with args for every chunk.
func NewCommandPlayer(name string, args ...string) *CommandPlayer {
	return &CommandPlayer{name: name, args: args}
}

// Play implements [Player]. The command is killed when ctx is cancelled.
func (p *CommandPlayer) Play(ctx context.Context, chunk []byte) error {
	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdin = bytes.NewReader(chunk)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audio: player command %q: %w", p.name, err)
	}
	return nil
}

// FilePlayer "renders" audio by writing each chunk to a numbered file in a
// directory. Used when no playback command is configured, so replies are
// still inspectable.
type FilePlayer struct {
	dir string

	mu  sync.Mutex
	seq int
}

// NewFilePlayer creates a player writing into dir, creating it if needed.
func NewFilePlayer(dir string) (*FilePlayer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create reply dir: %w", err)
	}
	return &FilePlayer{dir: dir}, nil
}

// Play implements [Player].
func (p *FilePlayer) Play(_ context.Context, chunk []byte) error {
	p.mu.Lock()
	p.seq++
	name := filepath.Join(p.dir, fmt.Sprintf("reply-%04d.wav", p.seq))
	p.mu.Unlock()

	if err := os.WriteFile(name, chunk, 0o644); err != nil {
		return fmt.Errorf("audio: write reply: %w", err)
	}
	return nil
}

var (
	_ Player = (*CommandPlayer)(nil)
	_ Player = (*FilePlayer)(nil)
)
