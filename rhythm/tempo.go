package rhythm

import (
	"math"
	"time"

	"github.com/robmorgan/metronome/utils"
)

// Tempo is a whole number of beats per minute.
type Tempo int

const (
	MinTempo     Tempo = 40
	MaxTempo     Tempo = 200
	DefaultTempo Tempo = 120
)

// ClampTempo turns any bpm value into a playable Tempo.
func ClampTempo(bpm int) Tempo {
	return Tempo(utils.Clamp(bpm, int(MinTempo), int(MaxTempo)))
}

// Valid reports whether t is within [MinTempo, MaxTempo].
func (t Tempo) Valid() bool {
	return t >= MinTempo && t <= MaxTempo
}

// Add nudges the tempo by delta bpm, staying in range.
func (t Tempo) Add(delta int) Tempo {
	return ClampTempo(int(t) + delta)
}

// IntervalMillis returns the number of whole milliseconds a beat lasts at this tempo.
func (t Tempo) IntervalMillis() int {
	return 60000 / int(ClampTempo(int(t)))
}

// Interval returns the beat length. Fractions of a millisecond are truncated.
func (t Tempo) Interval() time.Duration {
	return time.Duration(t.IntervalMillis()) * time.Millisecond
}

// markerPhase returns how far instant is through the beat that started at start, in [0, 1).
func markerPhase(instant, start time.Time, interval time.Duration) float64 {
	if interval <= 0 || instant.Before(start) {
		return 0
	}
	ratio := float64(instant.Sub(start)) / float64(interval)
	return ratio - math.Floor(ratio)
}
