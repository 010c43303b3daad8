package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
)

// Voice describes a synthesized click: a sine burst with an exponential decay.
type Voice struct {
	Frequency float64
	Duration  time.Duration

	// Decay is the envelope falloff rate per second. Higher is snappier.
	Decay  float64
	Volume float64
}

var (
	// AccentVoice is the high, bright click played on the downbeat.
	AccentVoice = Voice{Frequency: 1760, Duration: 60 * time.Millisecond, Decay: 60, Volume: 0.8}

	// BeatVoice is the lower click for the remaining beats.
	BeatVoice = Voice{Frequency: 880, Duration: 50 * time.Millisecond, Decay: 70, Volume: 0.5}
)

// Streamer returns a finite streamer that renders the voice at sr.
func (v Voice) Streamer(sr beep.SampleRate) beep.Streamer {
	total := sr.N(v.Duration)
	pos := 0
	step := 2 * math.Pi * v.Frequency / float64(sr)
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= total {
			return 0, false
		}
		for i := range samples {
			if pos >= total {
				break
			}
			t := float64(pos) / float64(sr)
			s := v.Volume * math.Exp(-v.Decay*t) * math.Sin(step*float64(pos))
			samples[i][0] = s
			samples[i][1] = s
			pos++
			n++
		}
		return n, true
	})
}

// Render pre-renders the voice into a buffer so playback never synthesizes on the beat.
func Render(v Voice, format beep.Format) *beep.Buffer {
	buf := beep.NewBuffer(format)
	buf.Append(v.Streamer(format.SampleRate))
	return buf
}
