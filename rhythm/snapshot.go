package rhythm

import (
	"fmt"
	"time"
)

// Snapshot is a point-in-time view of the controller, for displays that poll rather than listen.
type Snapshot struct {
	State           PlaybackState
	Tempo           Tempo
	BeatIndex       int
	BeatsPerMeasure int

	// Beat is the number of beats fired since Start, 0 when stopped.
	Beat int64

	// Run is the number of successful Starts so far; BeatFired.Run matches it for current beats.
	Run uint64

	// Instant is the time the snapshot was taken.
	Instant    time.Time
	StartedAt  time.Time
	LastBeatAt time.Time
	NextBeatAt time.Time
}

// BeatInterval gets the beat length at the snapshot's tempo.
func (s Snapshot) BeatInterval() time.Duration {
	return s.Tempo.Interval()
}

// BarInterval gets the length of a full measure.
func (s Snapshot) BarInterval() time.Duration {
	return s.BeatInterval() * time.Duration(s.BeatsPerMeasure)
}

// BeatPhase is how far the snapshot is through the current beat, in [0, 1).
func (s Snapshot) BeatPhase() float64 {
	if s.State != Running {
		return 0
	}
	span := s.NextBeatAt.Sub(s.LastBeatAt)
	if span <= 0 {
		return 0
	}
	return markerPhase(s.Instant, s.LastBeatAt, span)
}

// Bar returns the 1-based measure number since Start, 0 when stopped.
func (s Snapshot) Bar() int64 {
	if s.Beat == 0 || s.BeatsPerMeasure == 0 {
		return 0
	}
	return (s.Beat-1)/int64(s.BeatsPerMeasure) + 1
}

// IsDownBeat checks whether the current beat was the first in its measure.
func (s Snapshot) IsDownBeat() bool {
	return s.State == Running && IsAccented(s.BeatIndex)
}

// TimeUntilBeat returns how long until the next beat is due.
func (s Snapshot) TimeUntilBeat() time.Duration {
	if s.State != Running || s.NextBeatAt.Before(s.Instant) {
		return 0
	}
	return s.NextBeatAt.Sub(s.Instant)
}

// Marker returns the position as "bar.beat", both 1-based.
func (s Snapshot) Marker() string {
	if s.State != Running {
		return "-.-"
	}
	return fmt.Sprintf("%d.%d", s.Bar(), s.BeatIndex+1)
}
