package physics

import (
	"fmt"
	"time"

	"github.com/opd-ai/screamjump/level"
	"github.com/opd-ai/screamjump/volume"
)

// Tuning holds every gameplay constant of a world.
type Tuning struct {
	Impulse volume.ImpulseMapper

	Gravity      float64
	ScrollSpeed  float64
	AutoAdvance  float64
	ScorePerTick int
	Lives        int

	InvincibleDuration time.Duration
	BannerDuration     time.Duration
	CountdownDuration  time.Duration

	Viewport     Size
	PlatformSize Size
	PipeSize     Size
	HazardSize   Size
	GoalSize     Size
	AvatarSize   Size
	// AvatarStart is the avatar's initial midbottom.
	AvatarStart level.Point
	// GoalSink lowers the goal into its platform.
	GoalSink float64
	// AnimationStep is the per-tick frame advance of animated sprites.
	AnimationStep float64
}

// DefaultTuning returns the reference gameplay constants.
func DefaultTuning() Tuning {
	return Tuning{
		Impulse:            volume.DefaultImpulseMapper(),
		Gravity:            1,
		ScrollSpeed:        5,
		AutoAdvance:        1,
		ScorePerTick:       1,
		Lives:              3,
		InvincibleDuration: 2 * time.Second,
		BannerDuration:     3 * time.Second,
		CountdownDuration:  3 * time.Second,
		Viewport:           Size{W: 640, H: 480},
		PlatformSize:       Size{W: 200, H: 50},
		PipeSize:           Size{W: 120, H: 400},
		HazardSize:         Size{W: 40, H: 60},
		GoalSize:           Size{W: 100, H: 100},
		AvatarSize:         Size{W: 32, H: 48},
		AvatarStart:        level.Point{X: 100, Y: 350},
		GoalSink:           5,
		AnimationStep:      0.1,
	}
}

// Validate reports tuning that cannot produce a playable world.
func (t Tuning) Validate() error {
	switch {
	case t.Lives <= 0:
		return fmt.Errorf("%w: lives must be positive, got %d", ErrInvalidTuning, t.Lives)
	case t.Gravity < 0:
		return fmt.Errorf("%w: gravity must not be negative, got %v", ErrInvalidTuning, t.Gravity)
	case t.Viewport.W <= 0 || t.Viewport.H <= 0:
		return fmt.Errorf("%w: empty viewport", ErrInvalidTuning)
	case t.AvatarSize.W <= 0 || t.AvatarSize.H <= 0:
		return fmt.Errorf("%w: empty avatar", ErrInvalidTuning)
	case t.InvincibleDuration < 0 || t.BannerDuration < 0 || t.CountdownDuration < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidTuning)
	}
	return nil
}
