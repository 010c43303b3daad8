package audio

import "github.com/gopxl/beep/v2"

// Sink plays streamers without blocking the caller.
type Sink interface {
	Play(s beep.Streamer) error
}
