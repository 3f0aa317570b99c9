package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/audioverlay/internal/audio"
	"github.com/olivier-w/audioverlay/internal/capture"
	"github.com/olivier-w/audioverlay/internal/config"
	"github.com/olivier-w/audioverlay/internal/engine"
	"github.com/olivier-w/audioverlay/internal/media"
	"github.com/olivier-w/audioverlay/internal/player"
	"github.com/olivier-w/audioverlay/internal/rotation"
	"github.com/olivier-w/audioverlay/internal/speech"
	"github.com/olivier-w/audioverlay/internal/stage"
	"github.com/olivier-w/audioverlay/internal/ui"
	"github.com/olivier-w/audioverlay/internal/visualizer"
	"github.com/olivier-w/audioverlay/internal/visualizer/modes"
)

var errCancelled = errors.New("cancelled")

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errCancelled) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	closeLog, err := setupLogging(cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := log.Default()

	path, mic, err := chooseSource(cfg)
	if err != nil {
		return err
	}

	aopts := audio.DefaultAnalyzerOptions()
	aopts.FFTSize = cfg.FFTSize
	aopts.NoiseFloor = uint8(cfg.NoiseFloor)
	aopts.Smoothing = cfg.Smoothing
	aopts.Logger = logger
	analyzer := audio.NewAnalyzer(nil, aopts)
	if analyzer.BinCount()*2 != cfg.FFTSize {
		logger.Printf("invalid FFT size %d, using %d", cfg.FFTSize, analyzer.BinCount()*2)
	}
	ring := audio.NewRingBuffer(analyzer.HistoryBytes())
	analyzer.SetSource(audio.NewPCMSource(ring))

	var lyrics ui.Speech
	if sc := startSpeech(cfg, logger); sc != nil {
		defer sc.Close()
		ring.SetTee(sc)
		lyrics = sc
	}

	var (
		transport ui.Transport
		title     string
	)
	if mic {
		m, err := capture.Open(ring, capture.Options{Logger: logger})
		if err != nil {
			return err
		}
		defer m.Close()
	} else {
		if err := checkFile(path); err != nil {
			return err
		}
		p, err := player.New(path, ring)
		if err != nil {
			return fmt.Errorf("creating player: %w", err)
		}
		defer p.Close()
		transport = p
		title = player.ReadMetadata(path).Label()
	}

	reg := visualizer.NewRegistry()
	report := reg.RegisterAll(modes.All()...)
	for _, rej := range report.Rejected {
		logger.Printf("registry: %v", rej)
	}
	if reg.Len() == 0 {
		return errors.New("no visualizations registered")
	}

	eng := engine.New(reg, analyzer, stage.New(0, 0), engine.Options{
		CrossfadeDuration: cfg.CrossfadeDuration,
		ZoomDuration:      cfg.ZoomDuration,
		FailureThreshold:  cfg.FailureThreshold,
		Logger:            logger,
	})
	defer eng.Shutdown()
	if err := eng.SwitchTo(cfg.StartModule, nil); err != nil {
		logger.Printf("start module: %v", err)
		if err := eng.SwitchTo(reg.IDs()[0], nil); err != nil {
			return err
		}
	}

	order, err := rotation.ParseOrder(cfg.RotateOrder)
	if err != nil {
		logger.Printf("rotation: %v, using %s", err, order)
	}
	ctrl := rotation.New(eng, reg, rotation.Config{
		Enabled:         cfg.RotateEnabled,
		Interval:        cfg.RotateInterval,
		Order:           order,
		RandomizeColors: cfg.RandomizeColors,
		RandomizeConfig: cfg.RandomizeConfig,
	}, rotation.WithLogger(logger))
	defer ctrl.Close()

	palette := cfg.Palette
	if palette != "" && !stage.HasPalette(palette) {
		logger.Printf("unknown palette %q (available: %s)", palette, strings.Join(stage.PaletteNames(), ", "))
		palette = ""
	}

	model := ui.New(ui.Options{
		Engine:        eng,
		Rotation:      ctrl,
		Transport:     transport,
		Speech:        lyrics,
		Title:         title,
		FrameInterval: cfg.FrameInterval(),
		Profile:       stage.DetectProfile(),
		Palette:       palette,
		Logger:        logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}

// setupLogging sends the standard logger to path, or discards it. Stdout
// belongs to the alt screen either way.
func setupLogging(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "audioverlay")
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return func() { f.Close() }, nil
}

// startSpeech launches the transcription sidecar named by VIZ_SPEECH_CMD.
// A sidecar that fails to start is logged and skipped.
func startSpeech(cfg config.Config, logger *log.Logger) *speech.Client {
	args := strings.Fields(cfg.SpeechCommand)
	if len(args) == 0 {
		return nil
	}
	sc, err := speech.Start(context.Background(), speech.Options{
		Command:     args,
		Model:       cfg.SpeechModel,
		Language:    cfg.SpeechLanguage,
		DemucsModel: cfg.SpeechDemucs,
		Segment:     cfg.SpeechSegment,
		Step:        cfg.SpeechStep,
		SampleRate:  capture.DefaultSampleRate,
		Enabled:     cfg.SpeechEnabled,
		Logger:      logger,
	})
	if err != nil {
		logger.Printf("speech: %v", err)
		return nil
	}
	return sc
}

// chooseSource resolves the audio source from VIZ_MIC, the first argument,
// or the file browser.
func chooseSource(cfg config.Config) (path string, mic bool, err error) {
	if cfg.Mic {
		return "", true, nil
	}
	if len(os.Args) >= 2 {
		return os.Args[1], false, nil
	}

	browser := ui.NewBrowser(".")
	if err := browser.Error(); err != nil {
		return "", false, err
	}
	finalModel, err := tea.NewProgram(browser, tea.WithAltScreen()).Run()
	if err != nil {
		return "", false, err
	}
	bm, ok := finalModel.(ui.BrowserModel)
	if !ok {
		return "", false, errors.New("unexpected model type from browser")
	}
	result := bm.Result()
	if result.Cancelled {
		return "", false, errCancelled
	}
	return result.Path, result.Mic, nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !media.IsSupportedExt(ext) {
		return fmt.Errorf("unsupported format %s (supported: %s)", ext, media.SupportedExtsList())
	}
	return nil
}
