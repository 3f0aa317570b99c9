package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"

	"github.com/olivier-w/audioverlay/internal/media"
)

// decoder yields interleaved s16le PCM at its native rate and channel count.
// Length and Seek are in output bytes.
type decoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// openDecoder picks a decoder from the file extension.
func openDecoder(f *os.File) (decoder, error) {
	format, ok := media.Detect(f.Name())
	if !ok {
		return nil, fmt.Errorf("unsupported format %q (supported: %s)", f.Name(), media.SupportedExtsList())
	}
	switch format {
	case media.MP3:
		dec, err := mp3.NewDecoder(f)
		if err != nil {
			return nil, fmt.Errorf("decoding MP3: %w", err)
		}
		return mp3Decoder{dec}, nil
	case media.WAV:
		return newWAVDecoder(f)
	case media.FLAC:
		return newFLACDecoder(f)
	default:
		return newOGGDecoder(f)
	}
}

// pcmState is the output bookkeeping shared by the converting decoders:
// bytes converted but not yet read, and the output position.
type pcmState struct {
	pending  []byte
	pos      int64
	total    int64
	rate     int
	channels int
}

func (s *pcmState) Length() int64     { return s.total }
func (s *pcmState) SampleRate() int   { return s.rate }
func (s *pcmState) ChannelCount() int { return s.channels }

// drain serves pending bytes first.
func (s *pcmState) drain(p []byte) (int, bool) {
	if len(s.pending) == 0 {
		return 0, false
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	s.pos += int64(n)
	return n, true
}

// emit hands out converted bytes, keeping what does not fit.
func (s *pcmState) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		s.pending = raw[n:]
	}
	s.pos += int64(n)
	return n
}

// target resolves a Seek request to a clamped output byte offset and the
// source frame it falls on.
func (s *pcmState) target(offset int64, whence int) (pos, frame int64, err error) {
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = s.pos + offset
	case io.SeekEnd:
		pos = s.total + offset
	default:
		return s.pos, 0, fmt.Errorf("invalid seek whence: %d", whence)
	}
	pos = max(0, min(pos, s.total))
	frameSize := int64(s.channels) * 2
	return pos, pos / frameSize, nil
}

func (s *pcmState) moved(pos int64) {
	s.pending = nil
	s.pos = pos
}

func putSample(dst []byte, v int) {
	v = max(-32768, min(32767, v))
	binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
}

type mp3Decoder struct{ *mp3.Decoder }

// go-mp3 always decodes to 16-bit stereo at the stream's own rate.
func (d mp3Decoder) ChannelCount() int { return 2 }

type wavDecoder struct {
	pcmState
	file     *os.File
	pcmStart int64
	depth    int
	srcFrame int64
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels < 1 || depth%8 != 0 || depth < 8 || depth > 32 {
		return nil, fmt.Errorf("unsupported WAV layout: %d channels, %d bits", channels, depth)
	}
	srcFrame := int64(channels * depth / 8)
	start, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}
	return &wavDecoder{
		pcmState: pcmState{
			total:    dec.PCMLen() / srcFrame * int64(channels) * 2,
			rate:     int(dec.SampleRate),
			channels: channels,
		},
		file:     f,
		pcmStart: start,
		depth:    depth,
		srcFrame: srcFrame,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	width := d.depth / 8
	src := make([]byte, max(1, len(p)/2)*width)
	n, err := io.ReadFull(d.file, src)
	samples := n / width
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := range samples {
		b := src[i*width:]
		var v int
		switch d.depth {
		case 8:
			v = (int(b[0]) - 128) << 8
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			v = int(s >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(b)) >> 16)
		}
		putSample(raw[i*2:], v)
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.emit(p, raw), err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, frame, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if _, err := d.file.Seek(d.pcmStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

type flacDecoder struct {
	pcmState
	stream *flac.Stream
	bps    int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcmState: pcmState{
			total:    int64(info.NSamples) * int64(channels) * 2,
			rate:     int(info.SampleRate),
			channels: channels,
		},
		stream: stream,
		bps:    int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}
	n := int(frame.Subframes[0].NSamples)
	raw := make([]byte, n*d.channels*2)
	for i := range n {
		for ch := range d.channels {
			v := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				v >>= d.bps - 16
			case d.bps < 16:
				v <<= 16 - d.bps
			}
			putSample(raw[(i*d.channels+ch)*2:], v)
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, frame, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if _, err := d.stream.Seek(uint64(frame)); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}

type oggDecoder struct {
	pcmState
	reader *oggvorbis.Reader
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		pcmState: pcmState{
			total:    reader.Length() * int64(channels) * 2,
			rate:     reader.SampleRate(),
			channels: channels,
		},
		reader: reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	samples := make([]float32, max(1, len(p)/2))
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		putSample(raw[i*2:], int(max(-1, min(1, s))*32767))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	pos, frame, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if err := d.reader.SetPosition(frame); err != nil {
		return d.pos, err
	}
	d.moved(pos)
	return pos, nil
}
