package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/sirupsen/logrus"
)

// PulseConfig configures a PulseSource.
type PulseConfig struct {
	SampleRate      int
	FramesPerBuffer int
	// QueueDepth bounds the fragments held between the pulse callback and
	// Read. When full, new fragments are dropped and counted as overruns.
	QueueDepth  int
	ReadTimeout time.Duration
}

// PulseSource records the default PulseAudio input device.
//
// The pulse client delivers fragments on its own goroutine; they are copied
// into a bounded queue that Read drains. A slow reader therefore loses
// fragments instead of growing a backlog.
type PulseSource struct {
	client  *pulse.Client
	stream  *pulse.RecordStream
	queue   chan []int16
	pending []int16
	timeout time.Duration

	overruns  atomic.Uint64
	closeOnce sync.Once
	closed    chan struct{}
}

// NewPulseSource connects to PulseAudio and starts recording.
func NewPulseSource(cfg PulseConfig) (*PulseSource, error) {
	logrus.WithFields(logrus.Fields{
		"function":          "NewPulseSource",
		"sample_rate":       cfg.SampleRate,
		"frames_per_buffer": cfg.FramesPerBuffer,
		"queue_depth":       cfg.QueueDepth,
	}).Info("Opening PulseAudio input")

	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 32
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName("screamjump"))
	if err != nil {
		return nil, fmt.Errorf("connect to pulseaudio: %w", err)
	}

	s := &PulseSource{
		client:  client,
		queue:   make(chan []int16, cfg.QueueDepth),
		timeout: cfg.ReadTimeout,
		closed:  make(chan struct{}),
	}

	stream, err := client.NewRecord(pulse.Int16Writer(s.push),
		pulse.RecordMono,
		pulse.RecordSampleRate(cfg.SampleRate),
		pulse.RecordBufferFragmentSize(uint32(cfg.FramesPerBuffer*BytesPerSample)),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("open record stream: %w", err)
	}
	s.stream = stream
	stream.Start()

	logrus.WithFields(logrus.Fields{
		"function": "NewPulseSource",
	}).Info("PulseAudio recording started")

	return s, nil
}

// push runs on the pulse client goroutine.
func (s *PulseSource) push(buf []int16) (int, error) {
	frag := make([]int16, len(buf))
	copy(frag, buf)

	select {
	case s.queue <- frag:
	default:
		s.overruns.Add(1)
	}
	return len(buf), nil
}

// Read returns the next fragment, split across calls when it is larger than buf.
func (s *PulseSource) Read(ctx context.Context, buf []int16) (int, error) {
	if len(s.pending) == 0 {
		timer := time.NewTimer(s.timeout)
		defer timer.Stop()

		select {
		case <-s.closed:
			return 0, ErrSourceClosed
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return 0, ErrReadTimeout
		case frag := <-s.queue:
			s.pending = frag
		}
	}

	n := copy(buf, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Overruns returns the number of fragments dropped because the queue was full.
func (s *PulseSource) Overruns() uint64 {
	return s.overruns.Load()
}

// Close stops recording and disconnects. It is idempotent.
func (s *PulseSource) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.stream != nil {
			s.stream.Stop()
			s.stream.Close()
		}
		s.client.Close()

		logrus.WithFields(logrus.Fields{
			"function": "PulseSource.Close",
			"overruns": s.overruns.Load(),
		}).Info("PulseAudio recording closed")
	})
	return nil
}
