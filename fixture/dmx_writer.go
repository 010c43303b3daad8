package fixture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robmorgan/metronome/config"
	"github.com/robmorgan/metronome/effect"
	"github.com/robmorgan/metronome/logger"
	"github.com/robmorgan/metronome/rhythm"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

const universeSize = 512

// OLAClient is the interface for communicating with OLA
type OLAClient interface {
	SendDmx(universe int, values []byte) (status bool, err error)
	Close()
}

// BeatLight flashes a single dimmer channel on every beat and lets it fade out.
type BeatLight struct {
	clock    clock.PassiveClock
	universe int
	channel  int
	accent   byte
	beat     byte
	fade     effect.Fade

	lock      sync.Mutex
	peak      byte
	flashedAt time.Time
}

// NewBeatLight creates a dark beat light patched as cfg describes.
func NewBeatLight(c clock.PassiveClock, cfg config.DMXConfig) (*BeatLight, error) {
	if cfg.Channel < 1 || cfg.Channel > universeSize {
		return nil, fmt.Errorf("dmx channel (%d) not in range", cfg.Channel)
	}
	return &BeatLight{
		clock:    c,
		universe: cfg.Universe,
		channel:  cfg.Channel,
		accent:   byte(cfg.AccentLevel),
		beat:     byte(cfg.BeatLevel),
		fade:     effect.NewFade(cfg.Fade()),
	}, nil
}

// OnBeat flashes the light. It is cheap enough to run inside the controller's beat callback.
func (b *BeatLight) OnBeat(e rhythm.BeatFired) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.peak = b.beat
	if e.Accented {
		b.peak = b.accent
	}
	b.flashedAt = b.clock.Now()
}

// Level returns the channel value right now.
func (b *BeatLight) Level() byte {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.peak == 0 {
		return 0
	}
	return byte(float64(b.peak) * b.fade.Out(b.clock.Since(b.flashedAt)))
}

// Universe returns the universe the light is patched on.
func (b *BeatLight) Universe() int {
	return b.universe
}

// Frame renders the whole universe with the light's current level.
func (b *BeatLight) Frame() []byte {
	frame := make([]byte, universeSize)
	frame[b.channel-1] = b.Level()
	return frame
}

// SendDMXWorker sends OLA the beat light's frame every tick until ctx is cancelled.
func SendDMXWorker(ctx context.Context, client OLAClient, tick time.Duration, light *BeatLight, wg *sync.WaitGroup) error {
	defer wg.Done()
	defer client.Close()

	log := logger.GetProjectLogger().WithFields(logrus.Fields{"component": "dmx", "universe": light.Universe()})

	t := time.NewTimer(tick)
	defer t.Stop()
	log.Infof("DMX worker started, tick=%v", tick)

	for {
		select {
		case <-ctx.Done():
			log.Info("DMX worker shutdown")
			return ctx.Err()
		case <-t.C:
			if _, err := client.SendDmx(light.Universe(), light.Frame()); err != nil {
				log.WithError(err).Warn("Could not send DMX frame")
			}
			t.Reset(tick)
		}
	}
}
