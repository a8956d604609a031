package audio

import (
	"fmt"
	"math"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"
)

// Format returns the beep format of session audio at rate.
func Format(rate int) beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: Channels,
		Precision:   BytesPerSample,
	}
}

// chunkStreamer streams recorded chunks as beep samples. Mono samples are
// duplicated on both channels, which the mono encoder averages back.
type chunkStreamer struct {
	chunks []Chunk
	chunk  int
	offset int
}

func (s *chunkStreamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) && s.chunk < len(s.chunks) {
		cur := s.chunks[s.chunk].Samples
		if s.offset >= len(cur) {
			s.chunk++
			s.offset = 0
			continue
		}
		v := pcmToFloat(cur[s.offset])
		samples[n][0] = v
		samples[n][1] = v
		s.offset++
		n++
	}
	return n, n > 0
}

func (s *chunkStreamer) Err() error { return nil }

// pcmToFloat maps an int16 sample to the float the beep encoder truncates
// back to the same int16. The encoder scales by 32767, so -32768 has no
// exact encoding and is written as -32767.
func pcmToFloat(s int16) float64 {
	switch {
	case s == math.MinInt16:
		return -1
	case s > 0:
		return (float64(s) + 0.5) / 32767.0
	case s < 0:
		return (float64(s) - 0.5) / 32767.0
	}
	return 0
}

// WriteWAV writes the chunks of a closed log to path as PCM WAV at rate.
// The file is synced before returning.
func WriteWAV(path string, log *ChunkLog, rate int) (err error) {
	chunks, err := log.Chunks()
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function":    "WriteWAV",
		"path":        path,
		"chunks":      len(chunks),
		"sample_rate": rate,
	}).Info("Writing audio sink")

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audio sink: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close audio sink: %w", cerr)
		}
	}()

	if err := wav.Encode(f, &chunkStreamer{chunks: chunks}, Format(rate)); err != nil {
		return fmt.Errorf("encode audio sink: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync audio sink: %w", err)
	}
	return nil
}

// WAVInfo describes a decoded WAV header.
type WAVInfo struct {
	Format beep.Format
	Frames int
}

// InspectWAV decodes the header of the WAV file at path and checks that it
// matches session audio at rate.
func InspectWAV(path string, rate int) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}

	s, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return WAVInfo{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer s.Close()

	info := WAVInfo{Format: format, Frames: s.Len()}
	want := Format(rate)
	if format.SampleRate != want.SampleRate || format.NumChannels != want.NumChannels || format.Precision != want.Precision {
		return info, fmt.Errorf("%w: got %d Hz/%d ch/%d bytes, want %d Hz/%d ch/%d bytes", ErrInvalidFormat,
			format.SampleRate, format.NumChannels, format.Precision,
			want.SampleRate, want.NumChannels, want.Precision)
	}
	return info, nil
}
