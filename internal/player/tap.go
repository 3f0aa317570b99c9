package player

import (
	"io"
	"sync"

	"github.com/olivier-w/audioverlay/internal/audio"
)

// tapReader sits between the decoder and oto. It tracks the playback byte
// position and copies every whole frame it hands out into a ring buffer for
// the analyzer.
type tapReader struct {
	reader io.Reader
	ring   *audio.RingBuffer

	mu      sync.Mutex
	pos     int64
	partial [playbackFrameSize]byte
	npart   int
}

func newTapReader(r io.Reader, ring *audio.RingBuffer) *tapReader {
	return &tapReader{reader: r, ring: ring}
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.reader.Read(p)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pos += int64(n)
	if t.ring != nil && n > 0 {
		t.forward(p[:n])
	}
	return n, err
}

// forward keeps the ring frame-aligned when reads split a frame.
func (t *tapReader) forward(data []byte) {
	if t.npart > 0 {
		k := copy(t.partial[t.npart:], data)
		t.npart += k
		data = data[k:]
		if t.npart < playbackFrameSize {
			return
		}
		t.ring.Write(t.partial[:])
		t.npart = 0
	}
	whole := len(data) - len(data)%playbackFrameSize
	if whole > 0 {
		t.ring.Write(data[:whole])
	}
	t.npart = copy(t.partial[:], data[whole:])
}

func (t *tapReader) Pos() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// SetPos moves the position after a seek and drops stale audio.
func (t *tapReader) SetPos(pos int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pos = pos
	t.npart = 0
	if t.ring != nil {
		t.ring.Clear()
	}
}
