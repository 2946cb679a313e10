package audio_test

import (
	"encoding/binary"
	"testing"

	"github.com/clayvoice/clayvoice/pkg/audio"
)

func TestEncodeWAV_Length(t *testing.T) {
	t.Parallel()
	for _, n := range []int{0, 1, 100, 4096} {
		out := audio.EncodeWAV(make([]float32, n), 24000)
		if len(out) != 44+2*n {
			t.Errorf("len(EncodeWAV(%d samples)) = %d, want %d", n, len(out), 44+2*n)
		}
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	t.Parallel()
	samples := make([]float32, 256)
	out := audio.EncodeWAV(samples, 48000)

	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers: %q %q", out[0:4], out[8:12])
	}
	if string(out[12:16]) != "fmt " || string(out[36:40]) != "data" {
		t.Fatalf("missing fmt/data markers: %q %q", out[12:16], out[36:40])
	}
	if got := binary.LittleEndian.Uint32(out[4:8]); got != uint32(36+len(samples)*2) {
		t.Errorf("RIFF size = %d, want %d", got, 36+len(samples)*2)
	}
	if got := binary.LittleEndian.Uint16(out[20:22]); got != 1 {
		t.Errorf("format tag = %d, want 1 (PCM)", got)
	}
	if got := binary.LittleEndian.Uint16(out[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != 48000 {
		t.Errorf("sample rate = %d, want 48000", got)
	}
	if got := binary.LittleEndian.Uint32(out[28:32]); got != 96000 {
		t.Errorf("byte rate = %d, want 96000", got)
	}
	if got := binary.LittleEndian.Uint16(out[32:34]); got != 2 {
		t.Errorf("block align = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint16(out[34:36]); got != 16 {
		t.Errorf("bits per sample = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", got, len(samples)*2)
	}
}

func TestEncodeWAV_Quantization(t *testing.T) {
	t.Parallel()
	out := audio.EncodeWAV([]float32{0, 1, -1, 0.5, 2, -2}, 24000)
	want := []int16{0, 32767, -32767, 16384, 32767, -32767}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(out[44+i*2:]))
		if got != w {
			t.Errorf("sample %d quantized to %d, want %d", i, got, w)
		}
	}
}

func TestEncodeWAV_Deterministic(t *testing.T) {
	t.Parallel()
	samples := []float32{0.1, -0.3, 0.7, 0.9}
	a := audio.EncodeWAV(samples, 24000)
	b := audio.EncodeWAV(samples, 24000)
	if string(a) != string(b) {
		t.Error("EncodeWAV is not deterministic for identical input")
	}
}

// Two 4096-sample capture blocks at 24 kHz must encode to exactly 16428 bytes.
func TestEncodeWAV_TwoBlockRecording(t *testing.T) {
	t.Parallel()
	buf := audio.NewFrameBuffer()
	buf.Push(make(audio.Block, 4096))
	buf.Push(make(audio.Block, 4096))

	out := audio.EncodeWAV(buf.DrainFlattened(), 24000)
	if len(out) != 16428 {
		t.Errorf("payload length = %d, want 16428", len(out))
	}
}
