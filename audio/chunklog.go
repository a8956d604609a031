package audio

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// ChunkLog is an append-only sequence of captured chunks.
//
// It is written by a single producer while open and becomes readable only
// after Close. Appends after Close are rejected so no chunk can be added to
// a log that is already being persisted.
type ChunkLog struct {
	mu      sync.Mutex
	chunks  []Chunk
	samples int
	closed  bool
}

// NewChunkLog creates an open, empty log.
func NewChunkLog() *ChunkLog {
	return &ChunkLog{}
}

// Append adds a chunk. The log takes ownership of c.Samples.
func (l *ChunkLog) Append(c Chunk) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrChunkLogClosed
	}
	l.chunks = append(l.chunks, c)
	l.samples += len(c.Samples)
	return nil
}

// Close ends the producer phase. It is idempotent.
func (l *ChunkLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true

	logrus.WithFields(logrus.Fields{
		"function": "ChunkLog.Close",
		"chunks":   len(l.chunks),
		"samples":  l.samples,
	}).Debug("Chunk log closed to further appends")
}

// Closed reports whether Close has been called.
func (l *ChunkLog) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Chunks returns the recorded chunks in append order, or ErrChunkLogOpen if
// the producer has not finished.
func (l *ChunkLog) Chunks() ([]Chunk, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.closed {
		return nil, ErrChunkLogOpen
	}
	return l.chunks, nil
}

// Len returns the number of chunks appended so far.
func (l *ChunkLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chunks)
}

// SampleCount returns the total number of samples appended so far.
func (l *ChunkLog) SampleCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.samples
}
