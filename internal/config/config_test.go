package config

import (
	"os"
	"testing"
	"time"
)

var envVars = []string{
	"VIZ_FPS", "VIZ_CROSSFADE", "VIZ_ZOOM", "VIZ_FAILURE_THRESHOLD",
	"VIZ_ROTATE", "VIZ_ROTATE_INTERVAL", "VIZ_ROTATE_ORDER",
	"VIZ_RANDOMIZE_COLORS", "VIZ_RANDOMIZE_CONFIG",
	"VIZ_FFT_SIZE", "VIZ_NOISE_FLOOR", "VIZ_SMOOTHING",
	"VIZ_START", "VIZ_PALETTE", "VIZ_MIC", "VIZ_LOG_FILE",
	"VIZ_SPEECH_CMD", "VIZ_SPEECH", "VIZ_SPEECH_MODEL", "VIZ_SPEECH_LANGUAGE",
	"VIZ_SPEECH_DEMUCS", "VIZ_SPEECH_SEGMENT", "VIZ_SPEECH_STEP",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.FPS != 30 {
		t.Errorf("FPS = %d, want 30", cfg.FPS)
	}
	if cfg.CrossfadeDuration != time.Second {
		t.Errorf("CrossfadeDuration = %v, want 1s", cfg.CrossfadeDuration)
	}
	if cfg.ZoomDuration != 800*time.Millisecond {
		t.Errorf("ZoomDuration = %v, want 800ms", cfg.ZoomDuration)
	}
	if cfg.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", cfg.FailureThreshold)
	}
	if cfg.RotateEnabled {
		t.Error("RotateEnabled = true, want false")
	}
	if cfg.RotateInterval != 30*time.Second {
		t.Errorf("RotateInterval = %v, want 30s", cfg.RotateInterval)
	}
	if cfg.RotateOrder != "sequential" {
		t.Errorf("RotateOrder = %q, want sequential", cfg.RotateOrder)
	}
	if cfg.FFTSize != 2048 {
		t.Errorf("FFTSize = %d, want 2048", cfg.FFTSize)
	}
	if cfg.NoiseFloor != 12 {
		t.Errorf("NoiseFloor = %d, want 12", cfg.NoiseFloor)
	}
	if cfg.Smoothing != 0.8 {
		t.Errorf("Smoothing = %v, want 0.8", cfg.Smoothing)
	}
	if cfg.StartModule != "spectrum" {
		t.Errorf("StartModule = %q, want spectrum", cfg.StartModule)
	}
	if cfg.Mic || cfg.LogFile != "" || cfg.Palette != "" {
		t.Errorf("unexpected host defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIZ_FPS", "60")
	t.Setenv("VIZ_CROSSFADE", "2")
	t.Setenv("VIZ_ZOOM", "250ms")
	t.Setenv("VIZ_ROTATE", "true")
	t.Setenv("VIZ_ROTATE_INTERVAL", "1m")
	t.Setenv("VIZ_ROTATE_ORDER", "random")
	t.Setenv("VIZ_RANDOMIZE_COLORS", "1")
	t.Setenv("VIZ_SMOOTHING", "0.5")
	t.Setenv("VIZ_START", "matrix")
	t.Setenv("VIZ_MIC", "yes-please")
	t.Setenv("VIZ_LOG_FILE", "/tmp/viz.log")

	cfg := Load()

	if cfg.FPS != 60 {
		t.Errorf("FPS = %d, want 60", cfg.FPS)
	}
	if cfg.CrossfadeDuration != 2*time.Second {
		t.Errorf("CrossfadeDuration = %v, want 2s", cfg.CrossfadeDuration)
	}
	if cfg.ZoomDuration != 250*time.Millisecond {
		t.Errorf("ZoomDuration = %v, want 250ms", cfg.ZoomDuration)
	}
	if !cfg.RotateEnabled || cfg.RotateInterval != time.Minute || cfg.RotateOrder != "random" {
		t.Errorf("unexpected rotation settings %+v", cfg)
	}
	if !cfg.RandomizeColors || cfg.RandomizeConfig {
		t.Errorf("RandomizeColors/Config = %v/%v, want true/false", cfg.RandomizeColors, cfg.RandomizeConfig)
	}
	if cfg.Smoothing != 0.5 {
		t.Errorf("Smoothing = %v, want 0.5", cfg.Smoothing)
	}
	if cfg.StartModule != "matrix" {
		t.Errorf("StartModule = %q, want matrix", cfg.StartModule)
	}
	if cfg.Mic {
		t.Error("unparseable VIZ_MIC should keep the default")
	}
	if cfg.LogFile != "/tmp/viz.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestLoadClampsAndRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIZ_FPS", "1000")
	t.Setenv("VIZ_NOISE_FLOOR", "-4")
	t.Setenv("VIZ_CROSSFADE", "-1s")
	t.Setenv("VIZ_FFT_SIZE", "big")

	cfg := Load()

	if cfg.FPS != 120 {
		t.Errorf("FPS = %d, want clamp to 120", cfg.FPS)
	}
	if cfg.NoiseFloor != 0 {
		t.Errorf("NoiseFloor = %d, want clamp to 0", cfg.NoiseFloor)
	}
	if cfg.CrossfadeDuration != time.Second {
		t.Errorf("CrossfadeDuration = %v, want fallback 1s", cfg.CrossfadeDuration)
	}
	if cfg.FFTSize != 2048 {
		t.Errorf("FFTSize = %d, want fallback 2048", cfg.FFTSize)
	}
}

func TestFrameInterval(t *testing.T) {
	tests := []struct {
		fps  int
		want time.Duration
	}{
		{30, time.Second / 30},
		{1, time.Second},
		{0, time.Second},
	}
	for _, tt := range tests {
		if got := (Config{FPS: tt.fps}).FrameInterval(); got != tt.want {
			t.Errorf("FrameInterval(%d) = %v, want %v", tt.fps, got, tt.want)
		}
	}
}

func TestLoadSpeech(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	if cfg.SpeechCommand != "" || !cfg.SpeechEnabled || cfg.SpeechModel != "small" ||
		cfg.SpeechDemucs != "htdemucs" || cfg.SpeechSegment != 6*time.Second ||
		cfg.SpeechStep != 1500*time.Millisecond {
		t.Fatalf("unexpected speech defaults %+v", cfg)
	}

	t.Setenv("VIZ_SPEECH_CMD", " python3 sidecar.py ")
	t.Setenv("VIZ_SPEECH", "false")
	t.Setenv("VIZ_SPEECH_LANGUAGE", "en")
	t.Setenv("VIZ_SPEECH_SEGMENT", "4")
	t.Setenv("VIZ_SPEECH_STEP", "500ms")

	cfg = Load()
	if cfg.SpeechCommand != "python3 sidecar.py" || cfg.SpeechEnabled || cfg.SpeechLanguage != "en" {
		t.Fatalf("unexpected speech overrides %+v", cfg)
	}
	if cfg.SpeechSegment != 4*time.Second || cfg.SpeechStep != 500*time.Millisecond {
		t.Fatalf("segment/step = %v/%v, want 4s/500ms", cfg.SpeechSegment, cfg.SpeechStep)
	}
}
