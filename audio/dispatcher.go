package audio

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/robmorgan/metronome/logger"
	"github.com/robmorgan/metronome/rhythm"
	"github.com/sirupsen/logrus"
)

const (
	DefaultQueueSize = 8
	DefaultMaxVoices = 4
)

// Dispatcher turns PlaySound requests into playback on a Sink. Requests are queued without
// blocking and played by Run; when the queue is full or too many clicks are still sounding,
// the request is dropped. Sound failures are logged and never reach the caller.
type Dispatcher struct {
	sink      Sink
	sounds    map[rhythm.SoundID]*beep.Buffer
	queue     chan rhythm.SoundID
	maxVoices int32
	volume    float64
	logger    *logrus.Entry

	active  atomic.Int32
	dropped atomic.Int64
	played  atomic.Int64
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueueSize sets how many requests may wait for the worker.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan rhythm.SoundID, n)
		}
	}
}

// WithMaxVoices caps how many clicks may overlap.
func WithMaxVoices(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxVoices = int32(n)
		}
	}
}

// WithVolume applies a master gain in beep's exponential volume scale; 0 leaves the voices alone.
func WithVolume(v float64) DispatcherOption {
	return func(d *Dispatcher) { d.volume = v }
}

// WithLogger replaces the project logger.
func WithLogger(l *logrus.Entry) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher pre-renders every voice in format and plays them on sink.
func NewDispatcher(sink Sink, format beep.Format, voices map[rhythm.SoundID]Voice, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:      sink,
		sounds:    make(map[rhythm.SoundID]*beep.Buffer, len(voices)),
		queue:     make(chan rhythm.SoundID, DefaultQueueSize),
		maxVoices: DefaultMaxVoices,
		logger:    logger.GetProjectLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithField("component", "audio")

	for id, v := range voices {
		d.sounds[id] = Render(v, format)
	}
	return d
}

// PlaySound queues id for playback. It never blocks.
func (d *Dispatcher) PlaySound(id rhythm.SoundID) {
	select {
	case d.queue <- id:
	default:
		d.dropped.Add(1)
		d.logger.WithField("sound", id).Debug("Sound queue full, dropping click")
	}
}

// Run plays queued sounds until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	d.logger.Info("Sound dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Sound dispatcher shutdown")
			return
		case id := <-d.queue:
			d.play(id)
		}
	}
}

// Stats reports how many clicks were played and dropped so far.
func (d *Dispatcher) Stats() (played, dropped int64) {
	return d.played.Load(), d.dropped.Load()
}

// Active returns the number of clicks currently sounding.
func (d *Dispatcher) Active() int {
	return int(d.active.Load())
}

func (d *Dispatcher) play(id rhythm.SoundID) {
	log := d.logger.WithField("sound", id)

	buf, ok := d.sounds[id]
	if !ok {
		d.dropped.Add(1)
		log.Warn("Unknown sound, skipping")
		return
	}
	if d.active.Load() >= d.maxVoices {
		d.dropped.Add(1)
		log.Debug("Too many clicks sounding, dropping")
		return
	}

	var st beep.Streamer = buf.Streamer(0, buf.Len())
	if d.volume != 0 {
		st = &effects.Volume{Streamer: st, Base: 2, Volume: d.volume}
	}

	// each click owns its playback; the callback releases its voice slot when it drains
	d.active.Add(1)
	release := beep.Callback(func() { d.active.Add(-1) })
	if err := d.sink.Play(beep.Seq(st, release)); err != nil {
		d.active.Add(-1)
		d.dropped.Add(1)
		log.WithError(err).Warn("Could not play sound")
		return
	}
	d.played.Add(1)
}
