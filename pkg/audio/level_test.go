package audio_test

import (
	"math"
	"testing"

	"github.com/clayvoice/clayvoice/pkg/audio"
)

func TestLevelMeter_ObserveSetsRMS(t *testing.T) {
	t.Parallel()
	var m audio.LevelMeter
	m.Observe(audio.Block{0.5, -0.5, 0.5, -0.5})
	if got := m.Value(); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Value = %v, want 0.5", got)
	}
}

func TestLevelMeter_DecayStepsTowardZero(t *testing.T) {
	t.Parallel()
	var m audio.LevelMeter
	m.Observe(audio.Block{1, 1, 1, 1})

	m.Decay()
	if got := m.Value(); math.Abs(got-0.95) > 1e-6 {
		t.Errorf("Value after one decay = %v, want 0.95", got)
	}

	for range 100 {
		m.Decay()
	}
	if got := m.Value(); got != 0 {
		t.Errorf("Value after many decays = %v, want 0 (never negative)", got)
	}
}

func TestLevelMeter_IgnoresEmptyBlock(t *testing.T) {
	t.Parallel()
	var m audio.LevelMeter
	m.Observe(audio.Block{1, 1})
	before := m.Value()
	m.Observe(audio.Block{})
	if m.Value() != before {
		t.Error("empty block changed the level")
	}
}
