package audio

import (
	"log"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// AudioData is the per-frame audio snapshot handed to every visualization.
// A new value with freshly allocated slices is produced by each Sample call
// and must be treated as read-only.
type AudioData struct {
	// FrequencyData holds byte magnitudes, lowest bin first.
	FrequencyData []byte
	// TimeDomainData holds the waveform centered at 128.
	TimeDomainData []byte

	Volume float64
	Bass   float64
	Mid    float64
	Treble float64
}

// SilentData returns a zeroed snapshot with binCount-sized arrays.
func SilentData(binCount int) AudioData {
	td := make([]byte, binCount)
	for i := range td {
		td[i] = 128
	}
	return AudioData{
		FrequencyData:  make([]byte, binCount),
		TimeDomainData: td,
	}
}

// AnalyzerOptions tunes the analyzer. Out-of-range FFTSize (a power of two
// of at least 64), Smoothing,
// decibel range, gains and UsableFraction fall back to the defaults; a zero
// NoiseFloor or SpectrumSmoothing disables the gate or per-bin filter.
type AnalyzerOptions struct {
	FFTSize int // power of two; BinCount is half of it

	// NoiseFloor gates every frequency byte below it to zero.
	NoiseFloor uint8
	// Smoothing is k in new = old*k + raw*(1-k) for the scalar outputs.
	Smoothing float64
	// SpectrumSmoothing is the same filter applied per frequency bin.
	SpectrumSmoothing float64

	MinDecibels float64
	MaxDecibels float64

	// Band gains compensate for naturally quieter high frequencies.
	BassGain   float64
	MidGain    float64
	TrebleGain float64

	// UsableFraction is the share of bins split into the three bands.
	UsableFraction float64

	Logger *log.Logger
}

const (
	defaultFFTSize           = 2048
	minFFTSize               = 64
	defaultNoiseFloor        = 12
	defaultSmoothing         = 0.8
	defaultSpectrumSmoothing = 0.6
	defaultMinDecibels       = -100
	defaultMaxDecibels       = -30
	defaultUsableFraction    = 0.5

	// settleEpsilon is where a decaying scalar snaps to exactly zero on silence.
	settleEpsilon = 1e-4
)

// DefaultAnalyzerOptions returns the tuning used by the terminal host.
func DefaultAnalyzerOptions() AnalyzerOptions {
	return AnalyzerOptions{
		FFTSize:           defaultFFTSize,
		NoiseFloor:        defaultNoiseFloor,
		Smoothing:         defaultSmoothing,
		SpectrumSmoothing: defaultSpectrumSmoothing,
		MinDecibels:       defaultMinDecibels,
		MaxDecibels:       defaultMaxDecibels,
		BassGain:          1.0,
		MidGain:           1.6,
		TrebleGain:        2.6,
		UsableFraction:    defaultUsableFraction,
	}
}

func (o AnalyzerOptions) withDefaults() AnalyzerOptions {
	d := DefaultAnalyzerOptions()
	if o.FFTSize < minFFTSize || o.FFTSize&(o.FFTSize-1) != 0 {
		o.FFTSize = d.FFTSize
	}
	if o.Smoothing <= 0 || o.Smoothing >= 1 {
		o.Smoothing = d.Smoothing
	}
	if o.SpectrumSmoothing < 0 || o.SpectrumSmoothing >= 1 {
		o.SpectrumSmoothing = d.SpectrumSmoothing
	}
	if o.MaxDecibels <= o.MinDecibels {
		o.MinDecibels = d.MinDecibels
		o.MaxDecibels = d.MaxDecibels
	}
	if o.BassGain <= 0 {
		o.BassGain = d.BassGain
	}
	if o.MidGain <= 0 {
		o.MidGain = d.MidGain
	}
	if o.TrebleGain <= 0 {
		o.TrebleGain = d.TrebleGain
	}
	if o.UsableFraction <= 0 || o.UsableFraction > 1 {
		o.UsableFraction = d.UsableFraction
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Analyzer turns a Source into AudioData snapshots. It is not safe for
// concurrent use; the frame loop calls Sample once per tick.
type Analyzer struct {
	src  Source
	opts AnalyzerOptions

	fft      *fourier.FFT
	window   []float64
	buf      []float64
	windowed []float64
	coeffs   []complex128
	spectrum []float64

	volume float64
	bass   float64
	mid    float64
	treble float64

	warned bool
}

// NewAnalyzer creates an analyzer reading from src. A nil src behaves like Silence.
func NewAnalyzer(src Source, opts AnalyzerOptions) *Analyzer {
	opts = opts.withDefaults()
	n := opts.FFTSize
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	return &Analyzer{
		src:      src,
		opts:     opts,
		fft:      fourier.NewFFT(n),
		window:   window.Hann(ones),
		buf:      make([]float64, n),
		windowed: make([]float64, n),
		coeffs:   make([]complex128, n/2+1),
		spectrum: make([]float64, n/2),
	}
}

// BinCount is the length of both AudioData arrays.
func (a *Analyzer) BinCount() int { return a.opts.FFTSize / 2 }

// SetSource replaces the source and clears the smoothing state.
func (a *Analyzer) SetSource(src Source) {
	a.src = src
	a.warned = false
	a.Reset()
}

// HistoryBytes is a ring size that holds a full window of s16le stereo
// frames with room for the writer to run ahead.
func (a *Analyzer) HistoryBytes() int { return a.opts.FFTSize * PCMFrameSize * 4 }

// Reset clears all smoothing state.
func (a *Analyzer) Reset() {
	clear(a.spectrum)
	a.volume, a.bass, a.mid, a.treble = 0, 0, 0, 0
}

// Sample analyzes the latest audio window. It never fails: a missing or
// misbehaving source produces a silent snapshot.
func (a *Analyzer) Sample() AudioData {
	n := a.read()
	bins := a.BinCount()
	if n == 0 && a.idle() {
		return SilentData(bins)
	}

	for i, s := range a.buf {
		a.windowed[i] = s * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.windowed)

	freq := make([]byte, bins)
	scale := 1 / float64(a.opts.FFTSize)
	ks := a.opts.SpectrumSmoothing
	for k := range bins {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.spectrum[k] = a.spectrum[k]*ks + mag*(1-ks)
		b := a.toByte(a.spectrum[k])
		if b < a.opts.NoiseFloor {
			b = 0
		}
		freq[k] = b
	}

	td := make([]byte, bins)
	off := len(a.buf) - bins
	for i := range td {
		v := 128 + a.buf[off+i]*128
		td[i] = uint8(math.Max(0, math.Min(255, math.Round(v))))
	}

	rawBass, rawMid, rawTreble := a.bands(freq)
	rawVolume := mean(freq) / 255

	k := a.opts.Smoothing
	a.volume = smooth(a.volume, rawVolume, k)
	a.bass = smooth(a.bass, rawBass, k)
	a.mid = smooth(a.mid, rawMid, k)
	a.treble = smooth(a.treble, rawTreble, k)

	return AudioData{
		FrequencyData:  freq,
		TimeDomainData: td,
		Volume:         a.volume,
		Bass:           a.bass,
		Mid:            a.mid,
		Treble:         a.treble,
	}
}

// idle reports whether all smoothing state has already settled to zero.
func (a *Analyzer) idle() bool {
	if a.volume != 0 || a.bass != 0 || a.mid != 0 || a.treble != 0 {
		return false
	}
	for _, v := range a.spectrum {
		if v != 0 {
			return false
		}
	}
	return true
}

// read refills buf with the newest samples, right-aligned and zero-padded.
func (a *Analyzer) read() (n int) {
	clear(a.buf)
	if a.src == nil {
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			if !a.warned {
				a.opts.Logger.Printf("Audio source failed, treating as silence: %v", r)
				a.warned = true
			}
			clear(a.buf)
			n = 0
		}
	}()

	n = a.src.Samples(a.buf)
	if n < 0 {
		n = 0
	}
	if n > len(a.buf) {
		n = len(a.buf)
	}
	if n < len(a.buf) {
		copy(a.buf[len(a.buf)-n:], a.buf[:n])
		clear(a.buf[:len(a.buf)-n])
	}
	return n
}

// toByte maps a linear magnitude onto 0-255 between MinDecibels and MaxDecibels.
func (a *Analyzer) toByte(mag float64) uint8 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := 255 * (db - a.opts.MinDecibels) / (a.opts.MaxDecibels - a.opts.MinDecibels)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// bands splits the usable spectrum into three non-overlapping thirds. Bin 0
// (DC) is excluded from the bass range.
func (a *Analyzer) bands(freq []byte) (bass, mid, treble float64) {
	usable := int(float64(len(freq)) * a.opts.UsableFraction)
	if usable < 6 {
		usable = min(6, len(freq))
	}
	third := usable / 3
	if third < 2 {
		return 0, 0, 0
	}
	bass = math.Min(1, mean(freq[1:third])/255*a.opts.BassGain)
	mid = math.Min(1, mean(freq[third:2*third])/255*a.opts.MidGain)
	treble = math.Min(1, mean(freq[2*third:usable])/255*a.opts.TrebleGain)
	return bass, mid, treble
}

func mean(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	sum := 0
	for _, v := range b {
		sum += int(v)
	}
	return float64(sum) / float64(len(b))
}

func smooth(old, raw, k float64) float64 {
	v := old*k + raw*(1-k)
	if raw == 0 && v < settleEpsilon {
		return 0
	}
	return v
}
