package audio

import "encoding/binary"

// Source supplies the most recent mono samples in [-1,1].
//
// Samples fills dst[:n] in chronological order with the newest sample last
// and returns n. Returning fewer than len(dst) samples is normal while a
// stream is warming up; the analyzer pads the missing history with silence.
type Source interface {
	Samples(dst []float64) int
}

// Silence is a Source that never has audio.
type Silence struct{}

func (Silence) Samples([]float64) int { return 0 }

// PCMFrameSize is the byte size of one interleaved s16le stereo frame.
const PCMFrameSize = 4

// PCMSource reads interleaved s16le stereo frames from a RingBuffer and
// mixes them down to mono.
type PCMSource struct {
	ring *RingBuffer
	raw  []byte
}

// NewPCMSource wraps ring as a Source.
func NewPCMSource(ring *RingBuffer) *PCMSource {
	return &PCMSource{ring: ring}
}

func (s *PCMSource) Samples(dst []float64) int {
	if s.ring == nil {
		return 0
	}
	if want := len(dst) * PCMFrameSize; cap(s.raw) < want {
		s.raw = make([]byte, want)
	}
	raw := s.raw[:s.ring.Latest(s.raw[:len(dst)*PCMFrameSize])]
	frames := len(raw) / PCMFrameSize
	for i := range frames {
		off := i * PCMFrameSize
		l := float64(int16(binary.LittleEndian.Uint16(raw[off:])))
		r := float64(int16(binary.LittleEndian.Uint16(raw[off+2:])))
		dst[i] = (l + r) / 65536.0
	}
	return frames
}
