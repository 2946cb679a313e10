package audio

import (
	"math"
	"sync"
)

// levelDecayStep is the amount the level falls per Decay call when no live
// capture data is available.
const levelDecayStep = 0.05

// LevelMeter tracks a volume scalar in [0, 1] for the presentation layer.
// During recording the capture goroutine calls Observe per block; between
// recordings the poller calls Decay at display-refresh cadence so the level
// falls back to zero instead of freezing at its last value.
//
// Safe for concurrent use.
type LevelMeter struct {
	mu    sync.Mutex
	value float64
}

// Observe sets the level from the RMS of one capture block.
func (m *LevelMeter) Observe(block Block) {
	if len(block) == 0 {
		return
	}
	var sum float64
	for _, s := range block {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(block)))
	if rms > 1 {
		rms = 1
	}
	m.mu.Lock()
	m.value = rms
	m.mu.Unlock()
}

// Decay steps the level toward zero by a fixed amount. Call once per display
// frame while no live analysis is running.
func (m *LevelMeter) Decay() {
	m.mu.Lock()
	m.value = math.Max(0, m.value-levelDecayStep)
	m.mu.Unlock()
}

// Value returns the current level in [0, 1].
func (m *LevelMeter) Value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}
