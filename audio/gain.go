package audio

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// MaxGain is the largest accepted input gain.
const MaxGain = 4.0

// Gain implements linear input gain with clipping protection.
//
// Gain values: 0.0 = silence, 1.0 = no change, >1.0 = amplification.
type Gain struct {
	gain float64
}

// NewGain creates a gain stage.
func NewGain(gain float64) (*Gain, error) {
	if gain < 0.0 || gain > MaxGain {
		logrus.WithFields(logrus.Fields{
			"function": "NewGain",
			"gain":     gain,
			"max_gain": MaxGain,
		}).Error("Gain validation failed")
		return nil, fmt.Errorf("%w: %f not in [0, %.1f]", ErrInvalidGain, gain, MaxGain)
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewGain",
		"gain":     gain,
	}).Debug("Gain stage created")

	return &Gain{gain: gain}, nil
}

// Unity reports whether the stage leaves samples untouched.
func (g *Gain) Unity() bool {
	return g == nil || g.gain == 1.0
}

// Value returns the linear multiplier.
func (g *Gain) Value() float64 {
	if g == nil {
		return 1.0
	}
	return g.gain
}

// Apply scales samples in place and returns how many were clipped to the
// int16 range.
func (g *Gain) Apply(samples []int16) int {
	if g.Unity() || len(samples) == 0 {
		return 0
	}

	clipped := 0
	for i, sample := range samples {
		v := float64(sample) * g.gain
		switch {
		case v > 32767.0:
			samples[i] = 32767
			clipped++
		case v < -32768.0:
			samples[i] = -32768
			clipped++
		default:
			samples[i] = int16(v)
		}
	}

	if clipped > 0 {
		logrus.WithFields(logrus.Fields{
			"function":      "Gain.Apply",
			"clipped_count": clipped,
			"total_samples": len(samples),
			"gain":          g.gain,
		}).Debug("Audio clipping detected during gain processing")
	}
	return clipped
}
