package volume

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/opd-ai/screamjump/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		want    float64
	}{
		{"empty", nil, 0},
		{"all_zero", []int16{0, 0, 0}, 0},
		{"square_wave", []int16{800, -800, 800, -800}, 800},
		{"single", []int16{-3}, 3},
		{"mixed", []int16{3, 4}, math.Sqrt(12.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RMS(tt.samples), 1e-9)
		})
	}
}

func TestImpulseAtOrBelowThreshold(t *testing.T) {
	m := DefaultImpulseMapper()
	for _, v := range []float64{0, 1, 250, 499.999, 500} {
		assert.Equal(t, 0.0, m.Impulse(v), "volume %v", v)
	}
}

func TestImpulseMonotoneAndCapped(t *testing.T) {
	m := DefaultImpulseMapper()
	prev := 0.0
	for v := 501.0; v < 20000; v += 37 {
		mag := -m.Impulse(v)
		assert.GreaterOrEqual(t, mag, prev, "volume %v", v)
		assert.LessOrEqual(t, mag, m.Cap, "volume %v", v)
		prev = mag
	}
	assert.Equal(t, -15.0, m.Impulse(1e9))
}

func TestImpulseScenario(t *testing.T) {
	m := ImpulseMapper{Threshold: 500, Base: 5, Scale: 250, Cap: 15}
	var got []float64
	for _, v := range []float64{0, 0, 800} {
		got = append(got, m.Impulse(v))
	}

	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1])
	assert.InDelta(t, -6.2, got[2], 1e-9)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, time.Millisecond)
}

func TestMonitorPublishesLoudness(t *testing.T) {
	src := audio.NewToneSource(time.Millisecond, true, audio.ToneStep{Amplitude: 800})
	chunks := audio.NewChunkLog()
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mon := NewMonitor(src, chunks, Config{FramesPerBuffer: 64, TimeProvider: fixedTime{stamp}})

	require.NoError(t, mon.Start(context.Background()))
	assert.ErrorIs(t, mon.Start(context.Background()), ErrAlreadyStarted)

	waitFor(t, func() bool { return mon.LatestVolume() == 800 })
	assert.True(t, mon.Running())

	mon.Stop()
	mon.Stop()
	assert.False(t, mon.Running())

	got, err := chunks.Chunks()
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Len(t, got[0].Samples, 64)
	assert.Equal(t, stamp, got[0].Captured)
	assert.Equal(t, mon.Reads(), uint64(len(got)))

	assert.ErrorIs(t, mon.Start(context.Background()), ErrStopped)
}

func TestMonitorSurvivesReadErrors(t *testing.T) {
	src := audio.NewToneSource(0, false,
		audio.ToneStep{Err: errors.New("overflow")},
		audio.ToneStep{Err: errors.New("overflow")},
		audio.ToneStep{Amplitude: 1200},
	)
	chunks := audio.NewChunkLog()
	mon := NewMonitor(src, chunks, Config{FramesPerBuffer: 16, ErrorBackoff: time.Millisecond})

	require.NoError(t, mon.Start(context.Background()))
	waitFor(t, func() bool { return mon.Reads() >= 1 })
	mon.Stop()

	assert.Equal(t, uint64(2), mon.Errors())
	got, err := chunks.Chunks()
	require.NoError(t, err)
	assert.Equal(t, int16(1200), got[0].Samples[0])
}

func TestMonitorAppliesGain(t *testing.T) {
	gain, err := audio.NewGain(2.0)
	require.NoError(t, err)
	src := audio.NewToneSource(time.Millisecond, true, audio.ToneStep{Amplitude: 300})
	chunks := audio.NewChunkLog()
	mon := NewMonitor(src, chunks, Config{FramesPerBuffer: 8, Gain: gain})

	require.NoError(t, mon.Start(context.Background()))
	waitFor(t, func() bool { return mon.LatestVolume() == 600 })
	mon.Stop()
}

func TestMonitorStopWithoutStartClosesLog(t *testing.T) {
	src := audio.NewToneSource(0, false)
	chunks := audio.NewChunkLog()
	mon := NewMonitor(src, chunks, Config{})

	mon.Stop()

	assert.True(t, chunks.Closed())
	_, err := src.Read(context.Background(), make([]int16, 1))
	assert.ErrorIs(t, err, audio.ErrSourceClosed)
}

func TestMonitorStopUnblocksSlowRead(t *testing.T) {
	src := audio.NewToneSource(time.Hour, true, audio.ToneStep{Amplitude: 1})
	chunks := audio.NewChunkLog()
	mon := NewMonitor(src, chunks, Config{})
	require.NoError(t, mon.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		mon.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a read was in flight")
	}
	assert.True(t, chunks.Closed())
}
