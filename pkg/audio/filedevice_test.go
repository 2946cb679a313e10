package audio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clayvoice/clayvoice/pkg/audio"
)

func writePCM(t *testing.T, samples []float32, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.wav")
	if err := os.WriteFile(path, audio.EncodeWAV(samples, rate), 0o644); err != nil {
		t.Fatalf("write capture file: %v", err)
	}
	return path
}

func TestFileDevice_StreamsAllSamples(t *testing.T) {
	t.Parallel()
	samples := make([]float32, 5000)
	for i := range samples {
		samples[i] = 0.5
	}
	dev := audio.NewFileDevice(writePCM(t, samples, 24000), audio.WithFileBlockSize(4096))
	defer dev.Stop()

	ch, err := dev.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var total int
	var blocks int
	for block := range ch {
		total += len(block)
		blocks++
	}
	if total != 5000 {
		t.Errorf("streamed %d samples, want 5000", total)
	}
	if blocks != 2 {
		t.Errorf("%d blocks, want 2 (one full, one partial)", blocks)
	}
}

func TestFileDevice_RoundTripsAmplitude(t *testing.T) {
	t.Parallel()
	dev := audio.NewFileDevice(writePCM(t, []float32{0.5, -0.5, 0, 1}, 24000))
	ch, err := dev.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	var got []float32
	for block := range ch {
		got = append(got, block...)
	}
	want := []float32{0.5, -0.5, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("%d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 0.001 || diff < -0.001 {
			t.Errorf("sample %d = %v, want ~%v", i, got[i], want[i])
		}
	}
}

func TestFileDevice_MissingFile(t *testing.T) {
	t.Parallel()
	dev := audio.NewFileDevice(filepath.Join(t.TempDir(), "nope.wav"))
	if _, err := dev.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded with a missing file")
	}
}

func TestFileDevice_StopEndsStream(t *testing.T) {
	t.Parallel()
	samples := make([]float32, 4096*10)
	dev := audio.NewFileDevice(writePCM(t, samples, 24000), audio.WithFileBlockSize(64))

	ch, err := dev.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-ch
	dev.Stop()

	// The channel must close shortly after Stop; draining must terminate.
	audio.Drain(ch)
}

func TestFileDevice_ReportedRate(t *testing.T) {
	t.Parallel()
	dev := audio.NewFileDevice("x", audio.WithFileRate(16000))
	if got := dev.SampleRate(); got != 16000 {
		t.Errorf("SampleRate = %d, want 16000", got)
	}
	if got := audio.NewFileDevice("x").SampleRate(); got != audio.DefaultSampleRate {
		t.Errorf("default SampleRate = %d, want %d", got, audio.DefaultSampleRate)
	}
}
