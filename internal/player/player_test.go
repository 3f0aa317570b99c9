package player

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/olivier-w/audioverlay/internal/audio"
)

type stubSeekDecoder struct {
	pos        int64
	length     int64
	sampleRate int
	channels   int
	seekErr    error
}

func (d *stubSeekDecoder) Read([]byte) (int, error) { return 0, io.EOF }

func (d *stubSeekDecoder) Seek(offset int64, whence int) (int64, error) {
	if d.seekErr != nil {
		return d.pos, d.seekErr
	}
	switch whence {
	case io.SeekStart:
		d.pos = offset
	case io.SeekCurrent:
		d.pos += offset
	case io.SeekEnd:
		d.pos = d.length + offset
	}
	return d.pos, nil
}

func (d *stubSeekDecoder) Length() int64     { return d.length }
func (d *stubSeekDecoder) SampleRate() int   { return d.sampleRate }
func (d *stubSeekDecoder) ChannelCount() int { return d.channels }

// memDecoder serves s16le PCM from memory.
type memDecoder struct {
	*bytes.Reader
	rate     int
	channels int
}

func newMemDecoder(rate, channels int, samples ...int16) *memDecoder {
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	return &memDecoder{Reader: bytes.NewReader(raw), rate: rate, channels: channels}
}

func (d *memDecoder) Length() int64     { return d.Size() }
func (d *memDecoder) SampleRate() int   { return d.rate }
func (d *memDecoder) ChannelCount() int { return d.channels }

func frames(raw []byte) [][2]int16 {
	out := make([][2]int16, len(raw)/playbackFrameSize)
	for i := range out {
		out[i][0] = int16(binary.LittleEndian.Uint16(raw[i*4:]))
		out[i][1] = int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
	}
	return out
}

func TestClampSeekByteOffsetClampsAndAligns(t *testing.T) {
	got := clampSeekByteOffset(3900*time.Millisecond, 10, 10, 4)
	if got != 8 {
		t.Fatalf("expected clamped aligned seek offset 8, got %d", got)
	}

	got = clampSeekByteOffset(-1*time.Second, 10, 100, 4)
	if got != 0 {
		t.Fatalf("expected negative seek to clamp to 0, got %d", got)
	}
}

func TestSeekToClampsAndAlignsToFrameBoundary(t *testing.T) {
	dec := &stubSeekDecoder{length: 41, sampleRate: playbackSampleRate, channels: 2}
	ring := audio.NewRingBuffer(16)
	ring.Write([]byte{1, 2, 3, 4})
	p := &Player{
		decoder: dec,
		counter: newTapReader(dec, ring),
	}

	if err := p.SeekTo(time.Hour, true); err != nil {
		t.Fatalf("SeekTo returned error: %v", err)
	}
	if dec.pos != 40 {
		t.Fatalf("expected decoder seek position 40, got %d", dec.pos)
	}
	if got := p.counter.Pos(); got != 40 {
		t.Fatalf("expected counter position 40, got %d", got)
	}
	if !p.paused {
		t.Fatal("expected paused state after forced pause seek")
	}
	if ring.Len() != 0 {
		t.Fatalf("expected seek to flush the ring, %d bytes left", ring.Len())
	}
}

func TestSeekToKeepsPositionOnDecoderError(t *testing.T) {
	dec := &stubSeekDecoder{length: 400, seekErr: io.ErrUnexpectedEOF}
	p := &Player{decoder: dec, counter: newTapReader(dec, nil)}
	p.counter.pos = 12

	if err := p.SeekTo(0, false); err == nil {
		t.Fatal("expected seek error")
	}
	if got := p.counter.Pos(); got != 12 {
		t.Fatalf("expected position to stay at 12, got %d", got)
	}
}

func TestPlayerCloseIsIdempotent(t *testing.T) {
	p := &Player{}
	p.Close()
	p.Close()
	if !p.closed {
		t.Fatal("expected player to be closed")
	}
}

func TestSetVolumeClamps(t *testing.T) {
	p := &Player{}
	p.SetVolume(1.7)
	if p.Volume() != 1 {
		t.Fatalf("expected volume 1, got %v", p.Volume())
	}
	p.AdjustVolume(-3)
	if p.Volume() != 0 {
		t.Fatalf("expected volume 0, got %v", p.Volume())
	}
}

func TestResamplerPassthrough(t *testing.T) {
	src := newMemDecoder(playbackSampleRate, 2, 1, 2, 3, 4)
	r, err := newResampler(src)
	if err != nil {
		t.Fatal(err)
	}
	if !r.passthrough {
		t.Fatal("expected 48 kHz stereo to pass through")
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if got := frames(out); len(got) != 2 || got[0] != [2]int16{1, 2} || got[1] != [2]int16{3, 4} {
		t.Fatalf("unexpected passthrough frames %v", got)
	}
}

func TestResamplerUpsamplesMono(t *testing.T) {
	src := newMemDecoder(24000, 1, 0, 1000, 2000, 3000)
	r, err := newResampler(src)
	if err != nil {
		t.Fatal(err)
	}
	if r.Length() != 8*playbackFrameSize {
		t.Fatalf("expected length of 8 frames, got %d bytes", r.Length())
	}

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{0, 500, 1000, 1500, 2000, 2500, 3000, 3000}
	got := frames(out)
	if len(got) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i] != [2]int16{w, w} {
			t.Fatalf("frame %d: expected %d in both channels, got %v", i, w, got[i])
		}
	}
}

func TestResamplerSeek(t *testing.T) {
	src := newMemDecoder(24000, 1, 0, 1000, 2000, 3000)
	r, err := newResampler(src)
	if err != nil {
		t.Fatal(err)
	}
	pos, err := r.Seek(4*playbackFrameSize+1, io.SeekStart)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 4*playbackFrameSize {
		t.Fatalf("expected frame aligned position 16, got %d", pos)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	got := frames(out)
	if len(got) != 4 || got[0][0] != 2000 || got[1][0] != 2500 {
		t.Fatalf("unexpected frames after seek %v", got)
	}
}

func TestResamplerRejectsBadLayout(t *testing.T) {
	if _, err := newResampler(&stubSeekDecoder{sampleRate: 0, channels: 2}); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := newResampler(&stubSeekDecoder{sampleRate: 44100, channels: 6}); err == nil {
		t.Fatal("expected error for six channels")
	}
}

func TestTapReaderKeepsRingFrameAligned(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	ring := audio.NewRingBuffer(64)
	tap := newTapReader(bytes.NewReader(data), ring)

	buf := make([]byte, 3)
	wantLen := []int{0, 4, 8, 12}
	for i, want := range wantLen {
		if _, err := tap.Read(buf); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if ring.Len() != want {
			t.Fatalf("after read %d: expected %d bytes in ring, got %d", i, want, ring.Len())
		}
	}
	if tap.Pos() != 12 {
		t.Fatalf("expected position 12, got %d", tap.Pos())
	}
	if !bytes.Equal(ring.Read(12), data) {
		t.Fatal("ring contents differ from the played bytes")
	}
}

func TestMetadataLabel(t *testing.T) {
	if got := (Metadata{Title: "Song", Artist: "Band"}).Label(); got != "Band - Song" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := ReadMetadata("/music/no-such-track.flac").Label(); got != "no-such-track" {
		t.Fatalf("expected file name fallback, got %q", got)
	}
}
