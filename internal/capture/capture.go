// Package capture records the default input device with PortAudio and feeds
// it to the analyzer through the same ring buffer the file player uses.
package capture

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/olivier-w/audioverlay/internal/audio"
)

const (
	DefaultSampleRate      = 48000
	DefaultFramesPerBuffer = 512
)

// Options configures a microphone capture.
type Options struct {
	SampleRate      float64
	FramesPerBuffer int
	Logger          *log.Logger
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.FramesPerBuffer <= 0 {
		o.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Mic streams mono input into a ring buffer as s16le stereo frames.
type Mic struct {
	ring   *audio.RingBuffer
	stream *portaudio.Stream
	opts   Options

	mu     sync.Mutex
	frames []byte
	closed bool
}

// Open initializes PortAudio and starts capturing from the default input.
func Open(ring *audio.RingBuffer, opts Options) (*Mic, error) {
	opts = opts.withDefaults()
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing PortAudio: %w", err)
	}

	m := &Mic{
		ring:   ring,
		opts:   opts,
		frames: make([]byte, 0, opts.FramesPerBuffer*audio.PCMFrameSize),
	}
	stream, err := portaudio.OpenDefaultStream(1, 0, opts.SampleRate, opts.FramesPerBuffer, m.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening microphone stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting microphone stream: %w", err)
	}
	m.stream = stream
	opts.Logger.Printf("capture: microphone open at %.0f Hz, %d frames per buffer", opts.SampleRate, opts.FramesPerBuffer)
	return m, nil
}

// process runs on the PortAudio callback thread.
func (m *Mic) process(in []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.frames = monoToFrames(m.frames[:0], in)
	m.ring.Write(m.frames)
}

// Close stops the stream and shuts PortAudio down. It is safe to call twice.
func (m *Mic) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	var err error
	if m.stream != nil {
		if stopErr := m.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := m.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	return err
}

// monoToFrames appends in to dst as s16le stereo frames with the sample
// duplicated into both channels. Input is clipped to [-1,1].
func monoToFrames(dst []byte, in []float32) []byte {
	var frame [audio.PCMFrameSize]byte
	for _, s := range in {
		v := uint16(int16(max(-1, min(1, s)) * 32767))
		binary.LittleEndian.PutUint16(frame[0:], v)
		binary.LittleEndian.PutUint16(frame[2:], v)
		dst = append(dst, frame[:]...)
	}
	return dst
}
