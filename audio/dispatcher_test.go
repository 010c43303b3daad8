package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/robmorgan/metronome/logger"
	"github.com/robmorgan/metronome/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFormat = beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}

type recordingSink struct {
	mu        sync.Mutex
	streamers []beep.Streamer
	err       error
}

func (s *recordingSink) Play(st beep.Streamer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.streamers = append(s.streamers, st)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streamers)
}

func (s *recordingSink) get(i int) beep.Streamer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamers[i]
}

// drain streams st to the end and returns the number of samples it produced.
func drain(st beep.Streamer) int {
	buf := make([][2]float64, 256)
	total := 0
	for {
		n, ok := st.Stream(buf)
		total += n
		if !ok {
			return total
		}
	}
}

func testVoices() map[rhythm.SoundID]Voice {
	return map[rhythm.SoundID]Voice{
		rhythm.DefaultAccentSound: AccentVoice,
		rhythm.DefaultBeatSound:   BeatVoice,
	}
}

func startDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go d.Run(ctx, wg)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
}

func TestDispatcherPlaysQueuedSounds(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	d := NewDispatcher(sink, testFormat, testVoices(), WithLogger(logger.Discard()))
	startDispatcher(t, d)

	d.PlaySound(rhythm.DefaultAccentSound)
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)

	assert.Equal(t, 1, d.Active())
	samples := drain(sink.get(0))
	assert.Equal(t, testFormat.SampleRate.N(AccentVoice.Duration), samples)

	// draining the click releases its voice
	assert.Equal(t, 0, d.Active())

	played, dropped := d.Stats()
	assert.Equal(t, int64(1), played)
	assert.Equal(t, int64(0), dropped)
}

func TestDispatcherSwallowsUnknownSounds(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	d := NewDispatcher(sink, testFormat, testVoices(), WithLogger(logger.Discard()))
	startDispatcher(t, d)

	d.PlaySound("cowbell")
	d.PlaySound(rhythm.DefaultBeatSound)

	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		_, dropped := d.Stats()
		return dropped == 1
	}, time.Second, time.Millisecond)
}

func TestDispatcherSwallowsSinkErrors(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{err: errors.New("device busy")}
	d := NewDispatcher(sink, testFormat, testVoices(), WithLogger(logger.Discard()))
	startDispatcher(t, d)

	d.PlaySound(rhythm.DefaultAccentSound)
	require.Eventually(t, func() bool {
		_, dropped := d.Stats()
		return dropped == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0, d.Active())
}

func TestDispatcherLimitsOverlappingVoices(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	d := NewDispatcher(sink, testFormat, testVoices(), WithMaxVoices(2), WithLogger(logger.Discard()))
	startDispatcher(t, d)

	for i := 0; i < 3; i++ {
		d.PlaySound(rhythm.DefaultBeatSound)
	}
	require.Eventually(t, func() bool {
		played, dropped := d.Stats()
		return played == 2 && dropped == 1
	}, time.Second, time.Millisecond)

	// once a click finishes there is room again
	drain(sink.get(0))
	d.PlaySound(rhythm.DefaultBeatSound)
	require.Eventually(t, func() bool { return sink.count() == 3 }, time.Second, time.Millisecond)
}

func TestPlaySoundNeverBlocks(t *testing.T) {
	t.Parallel()

	// no worker running, so the queue fills up
	d := NewDispatcher(&recordingSink{}, testFormat, testVoices(), WithQueueSize(2), WithLogger(logger.Discard()))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.PlaySound(rhythm.DefaultBeatSound)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PlaySound blocked")
	}
	_, dropped := d.Stats()
	assert.Equal(t, int64(8), dropped)
}

func TestDispatcherWithVolume(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	d := NewDispatcher(sink, testFormat, testVoices(), WithVolume(-1), WithLogger(logger.Discard()))
	startDispatcher(t, d)

	d.PlaySound(rhythm.DefaultAccentSound)
	require.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, testFormat.SampleRate.N(AccentVoice.Duration), drain(sink.get(0)))
}

func TestDispatcherStopsWithContext(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(&recordingSink{}, testFormat, testVoices(), WithLogger(logger.Discard()))
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go d.Run(ctx, wg)

	cancel()
	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestDispatcherImplementsSoundDispatcher(t *testing.T) {
	t.Parallel()

	var _ rhythm.SoundDispatcher = (*Dispatcher)(nil)
}
