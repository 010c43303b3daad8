package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"github.com/nickysemenza/gola"
	"github.com/robmorgan/metronome/audio"
	"github.com/robmorgan/metronome/audio/device"
	"github.com/robmorgan/metronome/config"
	"github.com/robmorgan/metronome/fixture"
	"github.com/robmorgan/metronome/logger"
	"github.com/robmorgan/metronome/rhythm"
	"github.com/robmorgan/metronome/ui"
	"k8s.io/utils/clock"
)

func main() {
	ctx := context.Background()
	Run(ctx)
}

// Run starts the metronome and blocks until the UI exits.
func Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log := logger.GetProjectLogger()
	wg := sync.WaitGroup{}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config. err='%v'", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warnf("unknown log level %q, keeping info", cfg.LogLevel)
	}

	// the TUI owns the terminal, so logs go to a file
	logFile, err := cfg.GetLogFile()
	if err != nil {
		log.Fatalf("error resolving log file. err='%v'", err)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		log.Fatalf("error creating log dir. err='%v'", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("error opening log file. err='%v'", err)
	}
	defer f.Close()
	logger.SetOutput(f)

	measure, err := cfg.GetMeasure()
	if err != nil {
		log.Fatalf("invalid measure. err='%v'", err)
	}

	timer := rhythm.NewTimerClock(clock.RealClock{})
	defer timer.Close()

	opts := []rhythm.Option{rhythm.WithTempo(int(cfg.GetTempo()))}

	audioCfg := cfg.GetAudioConfig()
	if !audioCfg.Disabled {
		log.Info("Initializing audio...")
		sr := beep.SampleRate(audioCfg.SampleRate)
		sink := device.NewSpeakerSink(sr, audioCfg.Buffer())
		defer sink.Close()

		format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
		dispatcher := audio.NewDispatcher(sink, format, cfg.GetVoices(),
			audio.WithQueueSize(audioCfg.QueueSize),
			audio.WithMaxVoices(audioCfg.MaxVoices),
			audio.WithVolume(audioCfg.Volume),
		)
		wg.Add(1)
		go dispatcher.Run(ctx, &wg)
		opts = append(opts, rhythm.WithSoundDispatcher(dispatcher))
	}

	ctrl := rhythm.NewController(timer, measure, opts...)
	ctrl.OnError(func(err error) {
		log.WithError(err).Error("Metronome stopped")
	})

	dmxCfg := cfg.GetDMXConfig()
	if dmxCfg.Enabled {
		startBeatLight(ctx, ctrl, dmxCfg, &wg)
	}

	m := ui.New(ctrl, ctrl.Subscribe(), measure)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.WithError(err).Error("UI exited with an error")
	}

	log.Info("shutting down metronome")
	ctrl.Stop()
	cancel()
	wg.Wait()
}

func startBeatLight(ctx context.Context, ctrl *rhythm.Controller, cfg config.DMXConfig, wg *sync.WaitGroup) {
	log := logger.GetProjectLogger()

	light, err := fixture.NewBeatLight(clock.RealClock{}, cfg)
	if err != nil {
		log.Errorf("could not patch beat light: %v", err)
		return
	}

	log.Info("Connecting to OLA...")
	client, err := gola.New(cfg.Address)
	if err != nil {
		log.Errorf("could not connect to OLA: %v", err)
		return
	}

	ctrl.OnBeat(light.OnBeat)
	wg.Add(1)
	go fixture.SendDMXWorker(ctx, client, cfg.Refresh(), light, wg)
}
