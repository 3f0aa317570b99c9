package player

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	playbackSampleRate = 48000
	playbackChannels   = 2
	playbackFrameSize  = playbackChannels * 2
	bytesPerSec        = playbackSampleRate * playbackFrameSize
)

// resampler presents any decoder as 48 kHz stereo s16le using linear
// interpolation. Mono sources are duplicated into both channels.
type resampler struct {
	src          decoder
	passthrough  bool
	srcRate      int
	srcChannels  int
	srcFrameSize int

	step   float64 // source frames advanced per output frame
	phase  float64 // position between queue[0] and queue[1]
	queue  [][2]int16
	carry  []byte
	buf    []byte
	eof    bool
	length int64
	pos    int64
}

func newResampler(src decoder) (*resampler, error) {
	rate := src.SampleRate()
	if rate <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", rate)
	}
	channels := src.ChannelCount()
	if channels < 1 || channels > playbackChannels {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}

	r := &resampler{
		src:          src,
		passthrough:  rate == playbackSampleRate && channels == playbackChannels,
		srcRate:      rate,
		srcChannels:  channels,
		srcFrameSize: channels * 2,
		step:         float64(rate) / playbackSampleRate,
	}
	if r.passthrough {
		r.length = src.Length() - src.Length()%playbackFrameSize
	} else {
		srcFrames := src.Length() / int64(r.srcFrameSize)
		r.length = srcFrames * playbackSampleRate / int64(rate) * playbackFrameSize
	}
	return r, nil
}

func (r *resampler) Length() int64     { return r.length }
func (r *resampler) SampleRate() int   { return playbackSampleRate }
func (r *resampler) ChannelCount() int { return playbackChannels }

func (r *resampler) Read(p []byte) (int, error) {
	if r.passthrough {
		n, err := r.src.Read(p)
		r.pos += int64(n)
		return n, err
	}
	if len(p) < playbackFrameSize {
		return 0, io.ErrShortBuffer
	}

	want := len(p) / playbackFrameSize
	out := 0
	for out < want {
		for r.phase >= 1 && len(r.queue) > 0 {
			r.queue = r.queue[1:]
			r.phase--
		}
		if len(r.queue) < 2 && !r.eof {
			if err := r.fill(); err != nil {
				if out > 0 {
					break
				}
				return 0, err
			}
			continue
		}
		if len(r.queue) == 0 {
			break
		}

		a, b := r.queue[0], r.queue[0]
		if len(r.queue) > 1 {
			b = r.queue[1]
		}
		off := out * playbackFrameSize
		for ch := range playbackChannels {
			v := float64(a[ch]) + (float64(b[ch])-float64(a[ch]))*r.phase
			binary.LittleEndian.PutUint16(p[off+ch*2:], uint16(int16(v)))
		}
		r.phase += r.step
		out++
	}

	if out == 0 {
		return 0, io.EOF
	}
	n := out * playbackFrameSize
	r.pos += int64(n)
	return n, nil
}

// fill decodes the next chunk of source frames onto the queue.
func (r *resampler) fill() error {
	const chunkFrames = 2048
	if r.buf == nil {
		r.buf = make([]byte, chunkFrames*r.srcFrameSize)
	}

	n, err := r.src.Read(r.buf)
	data := r.buf[:n]
	if len(r.carry) > 0 {
		data = append(r.carry, data...)
		r.carry = nil
	}
	frames := len(data) / r.srcFrameSize
	for i := range frames {
		off := i * r.srcFrameSize
		l := int16(binary.LittleEndian.Uint16(data[off:]))
		rt := l
		if r.srcChannels == 2 {
			rt = int16(binary.LittleEndian.Uint16(data[off+2:]))
		}
		r.queue = append(r.queue, [2]int16{l, rt})
	}
	if rest := data[frames*r.srcFrameSize:]; len(rest) > 0 {
		r.carry = append([]byte(nil), rest...)
	}

	switch {
	case err == io.EOF:
		r.eof = true
	case err != nil:
		return err
	case n == 0:
		r.eof = true
	}
	return nil
}

func (r *resampler) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = r.pos + offset
	case io.SeekEnd:
		target = r.length + offset
	default:
		return r.pos, fmt.Errorf("invalid seek whence: %d", whence)
	}
	target = max(0, min(target, r.length))
	target -= target % playbackFrameSize

	if r.passthrough {
		pos, err := r.src.Seek(target, io.SeekStart)
		if err != nil {
			return r.pos, err
		}
		r.pos = pos
		return pos, nil
	}

	exact := float64(target/playbackFrameSize) * r.step
	srcFrame := int64(exact)
	if _, err := r.src.Seek(srcFrame*int64(r.srcFrameSize), io.SeekStart); err != nil {
		return r.pos, err
	}
	r.queue = r.queue[:0]
	r.carry = nil
	r.eof = false
	r.phase = exact - float64(srcFrame)
	r.pos = target
	return target, nil
}
