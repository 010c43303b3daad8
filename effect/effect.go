package effect

import (
	"time"

	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"
)

// Fade shapes how a beat indicator lights up and dies away.
type Fade struct {
	// Duration is the length of the tween.
	Duration time.Duration

	// Curve maps linear progress in [0, 1] onto the tween.
	Curve func(float64) float64
}

// NewFade creates a Fade of duration d using an ease-out quad curve.
func NewFade(d time.Duration) Fade {
	return Fade{Duration: d, Curve: ease.OutQuad}
}

// Progress returns the eased progress of a tween that started elapsed ago, in [0, 1].
func (f Fade) Progress(elapsed time.Duration) float64 {
	if f.Duration <= 0 || elapsed >= f.Duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(f.Duration)
	if f.Curve != nil {
		p = f.Curve(p)
	}
	return clamp01(p)
}

// In is the level of an indicator that became active elapsed ago.
func (f Fade) In(elapsed time.Duration) float64 {
	return f.Progress(elapsed)
}

// Out is the level of an indicator that stopped being active elapsed ago.
func (f Fade) Out(elapsed time.Duration) float64 {
	return 1 - f.Progress(elapsed)
}

// Blend mixes from and to by t in RGB space.
func Blend(from, to colorful.Color, t float64) colorful.Color {
	return from.BlendRgb(to, clamp01(t)).Clamped()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
