// Package config loads runtime settings from VIZ_* environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Frame loop
	FPS int

	// Engine transitions
	CrossfadeDuration time.Duration
	ZoomDuration      time.Duration
	FailureThreshold  int

	// Rotation
	RotateEnabled   bool
	RotateInterval  time.Duration
	RotateOrder     string // sequential or random
	RandomizeColors bool
	RandomizeConfig bool

	// Analyzer
	FFTSize    int
	NoiseFloor int
	Smoothing  float64

	// Host
	StartModule string
	Palette     string
	Mic         bool   // capture the microphone instead of playing a file
	LogFile     string // empty disables logging

	// Speech sidecar; an empty command disables it
	SpeechCommand  string
	SpeechEnabled  bool // transcribe as soon as the sidecar is ready
	SpeechModel    string
	SpeechLanguage string
	SpeechDemucs   string
	SpeechSegment  time.Duration
	SpeechStep     time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		FPS: clampInt(envInt("VIZ_FPS", 30), 1, 120),

		CrossfadeDuration: envDuration("VIZ_CROSSFADE", time.Second),
		ZoomDuration:      envDuration("VIZ_ZOOM", 800*time.Millisecond),
		FailureThreshold:  envInt("VIZ_FAILURE_THRESHOLD", 3),

		RotateEnabled:   envBool("VIZ_ROTATE", false),
		RotateInterval:  envDuration("VIZ_ROTATE_INTERVAL", 30*time.Second),
		RotateOrder:     envStr("VIZ_ROTATE_ORDER", "sequential"),
		RandomizeColors: envBool("VIZ_RANDOMIZE_COLORS", false),
		RandomizeConfig: envBool("VIZ_RANDOMIZE_CONFIG", false),

		FFTSize:    envInt("VIZ_FFT_SIZE", 2048),
		NoiseFloor: clampInt(envInt("VIZ_NOISE_FLOOR", 12), 0, 255),
		Smoothing:  envFloat("VIZ_SMOOTHING", 0.8),

		StartModule: envStr("VIZ_START", "spectrum"),
		Palette:     envStr("VIZ_PALETTE", ""),
		Mic:         envBool("VIZ_MIC", false),
		LogFile:     envStr("VIZ_LOG_FILE", ""),

		SpeechCommand:  envStr("VIZ_SPEECH_CMD", ""),
		SpeechEnabled:  envBool("VIZ_SPEECH", true),
		SpeechModel:    envStr("VIZ_SPEECH_MODEL", "small"),
		SpeechLanguage: envStr("VIZ_SPEECH_LANGUAGE", ""),
		SpeechDemucs:   envStr("VIZ_SPEECH_DEMUCS", "htdemucs"),
		SpeechSegment:  envDuration("VIZ_SPEECH_SEGMENT", 6*time.Second),
		SpeechStep:     envDuration("VIZ_SPEECH_STEP", 1500*time.Millisecond),
	}
}

// FrameInterval is the time between frame ticks.
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(max(1, c.FPS))
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envDuration accepts Go durations ("750ms") or plain seconds ("8").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs >= 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
