package volume

import "math"

// RMS returns the root-mean-square magnitude of samples in int16 units.
// Empty and all-zero buffers yield exactly 0.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	if sum == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// ImpulseMapper maps loudness to a vertical jump impulse. Negative impulses
// point up.
type ImpulseMapper struct {
	Threshold float64
	Base      float64
	Scale     float64
	Cap       float64
}

// DefaultImpulseMapper returns the reference tuning.
func DefaultImpulseMapper() ImpulseMapper {
	return ImpulseMapper{Threshold: 500, Base: 5, Scale: 250, Cap: 15}
}

// Impulse returns 0 at or below the threshold, otherwise
// -min(Base + (v-Threshold)/Scale, Cap).
func (m ImpulseMapper) Impulse(v float64) float64 {
	if v <= m.Threshold || m.Scale <= 0 {
		return 0
	}
	return -math.Min(m.Base+(v-m.Threshold)/m.Scale, m.Cap)
}
