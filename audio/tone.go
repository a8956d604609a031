package audio

import (
	"context"
	"sync"
	"time"
)

// ToneStep is one scripted buffer: a square wave of the given amplitude, or
// a read failure when Err is set.
type ToneStep struct {
	Amplitude int16
	Err       error
}

// ToneSource is a synthetic Source that replays a script of square-wave
// buffers. The RMS of each buffer equals its amplitude, which makes loudness
// deterministic. After the script ends it loops or produces silence.
type ToneSource struct {
	mu       sync.Mutex
	steps    []ToneStep
	pos      int
	loop     bool
	interval time.Duration
	closed   bool
	reads    int
}

// NewToneSource creates a scripted source. Each Read waits interval first,
// emulating a device that delivers one buffer per interval.
func NewToneSource(interval time.Duration, loop bool, steps ...ToneStep) *ToneSource {
	return &ToneSource{
		steps:    steps,
		loop:     loop,
		interval: interval,
	}
}

// Read fills buf with the next scripted buffer.
func (t *ToneSource) Read(ctx context.Context, buf []int16) (int, error) {
	if t.interval > 0 {
		timer := time.NewTimer(t.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return 0, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrSourceClosed
	}
	t.reads++

	step := ToneStep{}
	if len(t.steps) > 0 {
		if t.pos >= len(t.steps) && t.loop {
			t.pos = 0
		}
		if t.pos < len(t.steps) {
			step = t.steps[t.pos]
			t.pos++
		}
	}
	if step.Err != nil {
		return 0, step.Err
	}

	for i := range buf {
		if i%2 == 0 {
			buf[i] = step.Amplitude
		} else {
			buf[i] = -step.Amplitude
		}
	}
	return len(buf), nil
}

// Reads returns the number of Read calls that reached the script.
func (t *ToneSource) Reads() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reads
}

// Close marks the source closed.
func (t *ToneSource) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
