package rhythm

import (
	"fmt"
	"sync"
	"time"

	"github.com/robmorgan/metronome/logger"
	"github.com/sirupsen/logrus"
)

// PlaybackState is whether the controller is producing beats.
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Running
)

func (s PlaybackState) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// Controller owns the start/stop/tempo lifecycle and fires exactly one beat per interval.
//
// Every transition happens under mu, including the clock callback. Beat and error listeners
// run synchronously inside that critical section, so once Stop returns no further beat is
// observed. Listeners must not call back into the controller from the same goroutine.
type Controller struct {
	clock   Clock
	measure Measure
	sound   SoundDispatcher
	logger  *logrus.Entry

	mu        sync.Mutex
	state     PlaybackState
	tempo     Tempo
	beatIndex int
	beats     int64
	runs      uint64
	pending   Handle

	// generation identifies the armed tick; stale callbacks compare unequal and bail out.
	generation uint64

	startedAt  time.Time
	lastBeatAt time.Time
	nextBeatAt time.Time

	beatListeners  []func(BeatFired)
	errorListeners []func(error)
	subscriptions  map[*Subscription]struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithTempo sets the initial tempo, clamped to range.
func WithTempo(bpm int) Option {
	return func(c *Controller) { c.tempo = ClampTempo(bpm) }
}

// WithSoundDispatcher routes every beat's sound to d.
func WithSoundDispatcher(d SoundDispatcher) Option {
	return func(c *Controller) { c.sound = d }
}

// WithLogger replaces the project logger.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a stopped controller driven by clock. A zero Measure falls back to
// DefaultMeasure.
func NewController(clock Clock, measure Measure, opts ...Option) *Controller {
	if measure.Len() == 0 {
		measure = DefaultMeasure()
	}
	c := &Controller{
		clock:   clock,
		measure: measure,
		tempo:   DefaultTempo,
		logger:  logger.GetProjectLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithField("component", "controller")
	return c
}

// OnBeat registers fn to be called synchronously for every beat.
func (c *Controller) OnBeat(fn func(BeatFired)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beatListeners = append(c.beatListeners, fn)
}

// OnError registers fn to be called when playback stops because the clock failed.
func (c *Controller) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorListeners = append(c.errorListeners, fn)
}

// Subscribe returns a channel based feed of beats and errors. Close the subscription to
// unregister it.
func (c *Controller) Subscribe() *Subscription {
	s := newSubscription()
	s.detach = func() { c.unsubscribe(s) }

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscriptions == nil {
		c.subscriptions = make(map[*Subscription]struct{})
	}
	c.subscriptions[s] = struct{}{}
	return s
}

func (c *Controller) unsubscribe(s *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, s)
}

// Start begins playback: beat 0 fires immediately and the next tick is armed. Starting a
// running controller does nothing. If the clock cannot schedule, the controller stays stopped
// and the error is returned.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		return nil
	}

	now := c.clock.Now()
	c.beatIndex = 0
	c.beats = 0
	c.startedAt = now
	if err := c.armLocked(now.Add(c.tempo.Interval())); err != nil {
		c.resetLocked()
		return err
	}
	c.state = Running
	c.runs++

	c.logger.WithFields(logrus.Fields{"tempo": c.tempo, "beats": c.measure.Len()}).Info("Metronome started")
	c.fireLocked(now)
	return nil
}

// Stop halts playback and cancels the pending tick. No beat fires after Stop returns until
// the next Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Stopped {
		return
	}
	c.resetLocked()
	c.logger.Info("Metronome stopped")
}

// SetTempo changes the tempo, clamping out-of-range values, and returns the tempo applied.
// While running, the pending tick is re-armed to the new interval measured from now.
func (c *Controller) SetTempo(bpm int) Tempo {
	c.mu.Lock()
	defer c.mu.Unlock()

	tempo := ClampTempo(bpm)
	if int(tempo) != bpm {
		c.logger.WithFields(logrus.Fields{"requested": bpm, "tempo": tempo}).Warn("Tempo out of range, clamped")
	}
	if tempo == c.tempo {
		return tempo
	}
	c.tempo = tempo
	c.logger.WithField("tempo", tempo).Debug("Tempo changed")

	if c.state != Running {
		return tempo
	}

	now := c.clock.Now()
	if err := c.armLocked(now.Add(tempo.Interval())); err != nil {
		c.failLocked(err)
	}
	return tempo
}

// Tempo returns the current tempo.
func (c *Controller) Tempo() Tempo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

// State returns the current playback state.
func (c *Controller) State() PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeatIndex returns the position within the measure of the last beat, 0 when stopped.
func (c *Controller) BeatIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beatIndex
}

// Measure returns the measure the controller cycles through.
func (c *Controller) Measure() Measure {
	return c.measure
}

// Snapshot captures the controller's position at the current clock time.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:           c.state,
		Tempo:           c.tempo,
		BeatIndex:       c.beatIndex,
		BeatsPerMeasure: c.measure.Len(),
		Beat:            c.beats,
		Run:             c.runs,
		Instant:         c.clock.Now(),
		StartedAt:       c.startedAt,
		LastBeatAt:      c.lastBeatAt,
		NextBeatAt:      c.nextBeatAt,
	}
}

// tick is the clock callback for the armed generation gen.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Running || gen != c.generation {
		return
	}
	c.pending = nil

	// Deadlines advance from the previous deadline, not from when the callback ran, so
	// callback latency does not accumulate. A callback late by more than a whole interval
	// restarts the grid from now instead of firing a burst of catch-up beats.
	due := c.nextBeatAt
	next := due.Add(c.tempo.Interval())
	if now := c.clock.Now(); next.Before(now) {
		due, next = now, now.Add(c.tempo.Interval())
	}
	if err := c.armLocked(next); err != nil {
		c.failLocked(err)
		return
	}
	c.beatIndex = Next(c.beatIndex, c.measure.Len())
	c.fireLocked(due)
}

// armLocked cancels any pending tick and schedules a new one at deadline.
func (c *Controller) armLocked(deadline time.Time) error {
	if c.pending != nil {
		c.pending.Cancel()
		c.pending = nil
	}
	c.generation++
	gen := c.generation

	delay := deadline.Sub(c.clock.Now())
	if delay < 0 {
		delay = 0
	}
	h, err := c.clock.ScheduleAfter(delay, func() { c.tick(gen) })
	if err != nil {
		return fmt.Errorf("arming next beat at %v tempo: %w", c.tempo, err)
	}
	c.pending = h
	c.nextBeatAt = deadline
	return nil
}

func (c *Controller) fireLocked(at time.Time) {
	slot := c.measure.Slot(c.beatIndex)
	c.beats++
	c.lastBeatAt = at
	ev := BeatFired{
		Index:    c.beatIndex,
		Accented: slot.Accented,
		Sound:    slot.Sound,
		Tempo:    c.tempo,
		Beat:     c.beats,
		At:       at,
		Run:      c.runs,
	}

	c.logger.WithFields(logrus.Fields{"beat": ev.Beat, "index": ev.Index, "sound": ev.Sound}).Debug("Beat")

	if c.sound != nil {
		c.sound.PlaySound(slot.Sound)
	}
	for _, fn := range c.beatListeners {
		fn(ev)
	}
	for s := range c.subscriptions {
		s.sendBeat(ev)
	}
}

// resetLocked returns to Stopped with nothing armed.
func (c *Controller) resetLocked() {
	if c.pending != nil {
		c.pending.Cancel()
		c.pending = nil
	}
	c.generation++
	c.state = Stopped
	c.beatIndex = 0
	c.beats = 0
	c.lastBeatAt = time.Time{}
	c.nextBeatAt = time.Time{}
}

func (c *Controller) failLocked(err error) {
	c.resetLocked()
	c.logger.WithError(err).Error("Playback stopped, clock failed")
	for _, fn := range c.errorListeners {
		fn(err)
	}
	for s := range c.subscriptions {
		s.sendError(err)
	}
}
