package audio

import (
	"encoding/binary"
	"math"
)

// wavHeaderSize is the size of the canonical RIFF/WAVE header produced by
// [EncodeWAV]: "RIFF" + size + "WAVE" + "fmt " chunk (16-byte body) + "data"
// chunk header.
const wavHeaderSize = 44

// EncodeWAV serialises mono float PCM samples into a linear-PCM, 16-bit WAV
// byte stream with the canonical 44-byte header. Each sample is clamped to
// [-1, 1] and quantised to a signed 16-bit integer via round(s * 32767),
// little endian. The output length is always 44 + 2*len(samples).
//
// The encoding is deterministic: the same samples and rate always produce the
// same bytes.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, wavHeaderSize+dataLen)

	// RIFF chunk.
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk: PCM format tag, mono, 16 bits per sample.
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	// data sub-chunk.
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[wavHeaderSize+i*2:], uint16(quantize16(s)))
	}
	return buf
}

// quantize16 clamps s to [-1, 1] and converts it to a signed 16-bit sample.
func quantize16(s float32) int16 {
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return int16(math.Round(float64(s) * 32767))
}
