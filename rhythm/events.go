package rhythm

import (
	"sync/atomic"
	"time"
)

// BeatFired is emitted once for every beat the controller plays.
type BeatFired struct {
	// Index is the beat position within the measure, 0-based.
	Index    int
	Accented bool
	Sound    SoundID
	Tempo    Tempo

	// Beat counts beats since the last Start, starting at 1.
	Beat int64
	At   time.Time

	// Run identifies the Start that produced the beat. It increases with every Start.
	Run uint64
}

// SoundDispatcher plays sounds on request. PlaySound must not block.
type SoundDispatcher interface {
	PlaySound(id SoundID)
}

const eventBufferSize = 16

// Subscription delivers beats and errors over channels for consumers that live on their own
// goroutine. Events are dropped when a buffer is full rather than stalling the controller.
type Subscription struct {
	Beats  <-chan BeatFired
	Errors <-chan error

	beatCh  chan BeatFired
	errorCh chan error
	closed  atomic.Bool
	detach  func()
}

func newSubscription() *Subscription {
	s := &Subscription{
		beatCh:  make(chan BeatFired, eventBufferSize),
		errorCh: make(chan error, eventBufferSize),
	}
	s.Beats = s.beatCh
	s.Errors = s.errorCh
	return s
}

// Close stops delivery and unregisters the subscription from its controller. The channels are
// left open so pending readers don't see zero values. Close must not be called from a beat or
// error listener.
func (s *Subscription) Close() {
	if s.closed.Swap(true) {
		return
	}
	if s.detach != nil {
		s.detach()
	}
}

func (s *Subscription) sendBeat(e BeatFired) {
	if s.closed.Load() {
		return
	}
	select {
	case s.beatCh <- e:
	default:
	}
}

func (s *Subscription) sendError(err error) {
	if s.closed.Load() {
		return
	}
	select {
	case s.errorCh <- err:
	default:
	}
}
