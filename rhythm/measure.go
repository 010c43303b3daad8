package rhythm

import "fmt"

// SoundID names a sound the SoundDispatcher knows how to play.
type SoundID string

const (
	DefaultAccentSound SoundID = "accent"
	DefaultBeatSound   SoundID = "beat"
	DefaultBeats               = 4
)

// Slot is a single beat position within a measure.
type Slot struct {
	Accented bool
	Sound    SoundID
}

// Measure is the fixed cycle of beat slots repeated while playing. It is immutable once built.
type Measure struct {
	slots []Slot
}

// NewMeasure builds a measure of beats slots where slot 0 plays accent and the rest play regular.
func NewMeasure(beats int, accent, regular SoundID) (Measure, error) {
	if beats < 1 {
		return Measure{}, fmt.Errorf("%w: got %d", ErrInvalidMeasure, beats)
	}
	sounds := make([]SoundID, beats)
	sounds[0] = accent
	for i := 1; i < beats; i++ {
		sounds[i] = regular
	}
	return NewMeasureFromSounds(sounds)
}

// NewMeasureFromSounds builds a measure with one slot per sound. The first slot is the accent.
func NewMeasureFromSounds(sounds []SoundID) (Measure, error) {
	if len(sounds) < 1 {
		return Measure{}, fmt.Errorf("%w: got %d", ErrInvalidMeasure, len(sounds))
	}
	slots := make([]Slot, len(sounds))
	for i, s := range sounds {
		slots[i] = Slot{Accented: IsAccented(i), Sound: s}
	}
	return Measure{slots: slots}, nil
}

// DefaultMeasure is four beats with a distinct accent on the first.
func DefaultMeasure() Measure {
	m, _ := NewMeasure(DefaultBeats, DefaultAccentSound, DefaultBeatSound)
	return m
}

// Len returns the number of beats in the measure.
func (m Measure) Len() int {
	return len(m.slots)
}

// Slot returns the slot at index, wrapping indexes outside the measure.
func (m Measure) Slot(index int) Slot {
	n := len(m.slots)
	return m.slots[((index%n)+n)%n]
}

// Slots returns a copy of the measure's slots.
func (m Measure) Slots() []Slot {
	out := make([]Slot, len(m.slots))
	copy(out, m.slots)
	return out
}

// Sounds lists the distinct sounds the measure uses, in slot order.
func (m Measure) Sounds() []SoundID {
	seen := make(map[SoundID]bool)
	var out []SoundID
	for _, s := range m.slots {
		if !seen[s.Sound] {
			seen[s.Sound] = true
			out = append(out, s.Sound)
		}
	}
	return out
}
