// Package player plays a local audio file through oto and mirrors the PCM it
// plays into a ring buffer so the visualizers can follow the music.
package player

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/olivier-w/audioverlay/internal/audio"
)

// Player manages playback of a single track.
type Player struct {
	file      *os.File
	decoder   decoder
	counter   *tapReader
	otoCtx    *oto.Context
	otoPlayer *oto.Player
	duration  time.Duration
	volume    float64
	paused    bool
	done      chan struct{}
	mu        sync.Mutex
	closed    bool
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   playbackSampleRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

// New opens path, starts playing it and copies the played PCM into ring.
// ring may be nil.
func New(path string, ring *audio.RingBuffer) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	raw, err := openDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	dec, err := newResampler(raw)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("preparing %s: %w", path, err)
	}

	ctx, err := initOto()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening audio output: %w", err)
	}

	p := &Player{
		file:     f,
		decoder:  dec,
		counter:  newTapReader(dec, ring),
		otoCtx:   ctx,
		duration: time.Duration(float64(dec.Length()) / bytesPerSec * float64(time.Second)),
		volume:   0.8,
		done:     make(chan struct{}),
	}

	p.otoPlayer = ctx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.volume)
	p.otoPlayer.Play()

	go p.monitor(p.done)

	return p, nil
}

func (p *Player) monitor(done chan struct{}) {
	for {
		p.mu.Lock()
		if p.closed || p.done != done {
			p.mu.Unlock()
			return
		}
		finished := !p.paused && p.counter.Pos() >= p.decoder.Length() && !p.otoPlayer.IsPlaying()
		p.mu.Unlock()

		if finished {
			close(done)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// Done returns a channel that closes when playback finishes.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Restart seeks to the beginning and resumes playback.
// This resets the done channel so Done() can be used again.
func (p *Player) Restart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	if _, err := p.decoder.Seek(0, io.SeekStart); err != nil {
		return
	}
	p.counter.SetPos(0)
	p.replaceOtoPlayer(false)

	p.done = make(chan struct{})
	p.paused = false
	go p.monitor(p.done)
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		p.otoPlayer.Play()
		p.paused = false
	} else {
		p.otoPlayer.Pause()
		p.paused = true
	}
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	return bytesToDuration(p.counter.Pos())
}

// Duration returns the total duration of the track.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// Seek moves playback by the given delta from current position.
func (p *Player) Seek(delta time.Duration) {
	_ = p.SeekTo(p.Position()+delta, false)
}

// SeekTo moves playback to target. The ring buffer is flushed so the
// visualizers do not show audio from before the jump.
func (p *Player) SeekTo(target time.Duration, forcePause bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	newPos := clampSeekByteOffset(target, bytesPerSec, p.decoder.Length(), playbackFrameSize)
	if _, err := p.decoder.Seek(newPos, io.SeekStart); err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	p.counter.SetPos(newPos)

	if forcePause {
		p.paused = true
	}
	if p.otoPlayer != nil {
		p.replaceOtoPlayer(p.paused)
	}
	return nil
}

// replaceOtoPlayer recreates the oto player to flush its buffers.
func (p *Player) replaceOtoPlayer(paused bool) {
	p.otoPlayer.Pause()
	p.otoPlayer.Close()
	p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.volume)
	if !paused {
		p.otoPlayer.Play()
	}
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = max(0, min(v, 1))
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(p.volume)
	}
}

// AdjustVolume adjusts volume by delta.
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	v := p.volume + delta
	p.mu.Unlock()
	p.SetVolume(v)
}

// Close releases all resources.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
		p.otoPlayer.Close()
	}
	if p.file != nil {
		p.file.Close()
	}
}

func clampSeekByteOffset(target time.Duration, bytesPerSecond, total, frameSize int64) int64 {
	pos := int64(target.Seconds() * float64(bytesPerSecond))
	pos = max(0, min(pos, total))
	return pos - pos%frameSize
}

func bytesToDuration(n int64) time.Duration {
	return time.Duration(float64(n) / bytesPerSec * float64(time.Second))
}
