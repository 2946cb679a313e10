package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// FileDevice is an [InputDevice] that streams capture blocks from a PCM file,
// standing in for a microphone on machines without one. It accepts raw 16-bit
// little-endian mono PCM, or a canonical WAV file whose 44-byte header is
// skipped.
type FileDevice struct {
	path      string
	rate      int
	blockSize int

	mu   sync.Mutex
	stop chan struct{}
}

// FileDeviceOption configures a [FileDevice].
type FileDeviceOption func(*FileDevice)

// WithFileRate sets the sample rate reported by the device. Default 24000.
func WithFileRate(rate int) FileDeviceOption {
	return func(d *FileDevice) {
		if rate > 0 {
			d.rate = rate
		}
	}
}

// WithFileBlockSize sets the per-block sample count. Default 4096.
func WithFileBlockSize(n int) FileDeviceOption {
	return func(d *FileDevice) {
		if n > 0 {
			d.blockSize = n
		}
	}
}

// NewFileDevice creates a device that reads from the PCM file at path.
func NewFileDevice(path string, opts ...FileDeviceOption) *FileDevice {
	d := &FileDevice{
		path:      path,
		rate:      DefaultSampleRate,
		blockSize: DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start implements [InputDevice]. The returned channel yields the file's
// samples in blocks and closes at end of file or on Stop.
func (d *FileDevice) Start(ctx context.Context) (<-chan Block, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("audio: open capture file: %w", err)
	}
	if len(data) >= wavHeaderSize && bytes.HasPrefix(data, []byte("RIFF")) {
		data = data[wavHeaderSize:]
	}

	d.mu.Lock()
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	ch := make(chan Block)
	go func() {
		defer close(ch)
		r := bytes.NewReader(data)
		for {
			block, err := readBlock(r, d.blockSize)
			if len(block) > 0 {
				select {
				case ch <- block:
				case <-ctx.Done():
					return
				case <-stop:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return ch, nil
}

// Stop implements [InputDevice]. Safe to call multiple times.
func (d *FileDevice) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
}

// SampleRate implements [InputDevice].
func (d *FileDevice) SampleRate() int {
	return d.rate
}

// readBlock reads up to n 16-bit samples from r, converting to float32 in
// [-1, 1]. Returns io.EOF alongside a partial final block.
func readBlock(r io.Reader, n int) (Block, error) {
	raw := make([]byte, n*2)
	read, err := io.ReadFull(r, raw)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	raw = raw[:read-read%2]
	if len(raw) == 0 {
		return nil, io.EOF
	}

	block := make(Block, len(raw)/2)
	for i := range block {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		block[i] = float32(s) / 32767
	}
	if err != nil {
		return block, io.EOF
	}
	return block, nil
}

var _ InputDevice = (*FileDevice)(nil)
