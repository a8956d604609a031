package audio

import (
	"context"
	"time"
)

// Session audio format.
const (
	SampleRate      = 44100
	Channels        = 1
	BytesPerSample  = 2
	FramesPerBuffer = 1048
)

// Source is a blocking mono int16 sample source.
//
// Read fills buf with up to len(buf) samples and returns the count. It must
// return promptly once ctx is done. Errors are per-read; a Source remains
// usable after a failed Read until Close.
type Source interface {
	Read(ctx context.Context, buf []int16) (int, error)
	Close() error
}

// Chunk is one raw buffer read from a Source.
type Chunk struct {
	Samples  []int16
	Captured time.Time
}

// Duration returns the playback length of the chunk at rate.
func (c Chunk) Duration(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(rate)
}
