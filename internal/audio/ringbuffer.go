package audio

import (
	"io"
	"sync"
)

// RingBuffer keeps the most recent bytes written by a playback tap or capture
// callback. Writers and the analyzer may sit on different goroutines.
type RingBuffer struct {
	mu   sync.Mutex
	data []byte
	head int // next write offset
	fill int
	tee  io.Writer
}

// NewRingBuffer creates a ring buffer holding up to size bytes.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{data: make([]byte, max(1, size))}
}

// Cap returns the capacity in bytes.
func (rb *RingBuffer) Cap() int { return len(rb.data) }

// SetTee forwards every later Write to w as well, on the writer's goroutine.
// w must not block. A nil w stops forwarding.
func (rb *RingBuffer) SetTee(w io.Writer) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.tee = w
}

// Write appends p, overwriting the oldest bytes once full. It never fails;
// tee errors are ignored.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	n := len(p)
	rb.mu.Lock()
	tee := rb.tee
	rb.store(p)
	rb.mu.Unlock()

	if tee != nil && n > 0 {
		_, _ = tee.Write(p)
	}
	return n, nil
}

func (rb *RingBuffer) store(p []byte) {
	if len(p) > len(rb.data) {
		p = p[len(p)-len(rb.data):]
	}
	for len(p) > 0 {
		k := copy(rb.data[rb.head:], p)
		p = p[k:]
		rb.head = (rb.head + k) % len(rb.data)
		rb.fill = min(len(rb.data), rb.fill+k)
	}
}

// Latest copies the newest min(len(dst), Len()) bytes into dst in
// chronological order and returns how many were copied.
func (rb *RingBuffer) Latest(dst []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := min(len(dst), rb.fill)
	if n == 0 {
		return 0
	}
	start := (rb.head - n + len(rb.data)) % len(rb.data)
	k := copy(dst[:n], rb.data[start:])
	if k < n {
		copy(dst[k:n], rb.data)
	}
	return n
}

// Read returns up to n of the most recent bytes in a new slice.
func (rb *RingBuffer) Read(n int) []byte {
	if n <= 0 {
		return nil
	}
	out := make([]byte, min(n, rb.Cap()))
	out = out[:rb.Latest(out)]
	if len(out) == 0 {
		return nil
	}
	return out
}

// Len returns the number of buffered bytes.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.fill
}

// Clear drops everything buffered.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.fill = 0
}
