package device

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gruntwork-io/go-commons/errors"
)

// SpeakerSink plays through the default output device. The device is opened lazily on the
// first Play so a missing device only costs the sound, never the metronome.
//
// It satisfies audio.Sink. It lives apart from package audio because the speaker needs cgo.
type SpeakerSink struct {
	sampleRate beep.SampleRate
	buffer     time.Duration

	once    sync.Once
	opened  bool
	initErr error
}

// NewSpeakerSink prepares a sink at sr with the given device buffer length.
func NewSpeakerSink(sr beep.SampleRate, buffer time.Duration) *SpeakerSink {
	return &SpeakerSink{sampleRate: sr, buffer: buffer}
}

func (s *SpeakerSink) Play(st beep.Streamer) error {
	s.once.Do(func() {
		if err := speaker.Init(s.sampleRate, s.sampleRate.N(s.buffer)); err != nil {
			s.initErr = errors.WithStackTrace(err)
			return
		}
		s.opened = true
	})
	if s.initErr != nil {
		return s.initErr
	}
	speaker.Play(st)
	return nil
}

// Close drops anything still playing and releases the device.
func (s *SpeakerSink) Close() {
	if !s.opened {
		return
	}
	speaker.Clear()
	speaker.Close()
}
