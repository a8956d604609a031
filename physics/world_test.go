package physics

import (
	"testing"
	"time"

	"github.com/opd-ai/screamjump/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = time.Second / 15

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func playTuning() Tuning {
	tu := DefaultTuning()
	tu.CountdownDuration = 0
	return tu
}

func newTestWorld(t *testing.T, layout level.Layout, tu Tuning) *World {
	t.Helper()
	w, err := NewWorld(layout, tu, t0)
	require.NoError(t, err)
	return w
}

func at(i int) time.Time { return t0.Add(time.Duration(i) * tick) }

func TestNewWorldValidation(t *testing.T) {
	_, err := NewWorld(level.Layout{}, DefaultTuning(), t0)
	assert.ErrorIs(t, err, level.ErrEmptyLayout)

	tu := DefaultTuning()
	tu.Lives = 0
	_, err = NewWorld(level.Default(), tu, t0)
	assert.ErrorIs(t, err, ErrInvalidTuning)
}

func TestNewWorldGeometry(t *testing.T) {
	w := newTestWorld(t, level.Default(), playTuning())

	require.Len(t, w.platforms, 8)
	require.Len(t, w.pipes, 8)
	require.Len(t, w.hazards, 3)

	for i := range w.platforms {
		p, pipe := w.platforms[i].Rect, w.pipes[i].Rect
		assert.Equal(t, p.CenterX(), pipe.CenterX())
		assert.Equal(t, p.Bottom(), pipe.Top())
	}

	last := w.platforms[len(w.platforms)-1].Rect
	assert.Equal(t, last.CenterX(), w.goal.Rect.CenterX())
	assert.Equal(t, last.Top()+5, w.goal.Rect.Bottom())

	h := w.hazards[0].Rect
	assert.Equal(t, 450.0, h.CenterX())
	assert.Equal(t, 300.0, h.Bottom())

	a := w.Avatar()
	assert.Equal(t, 100.0, a.Rect.CenterX())
	assert.Equal(t, 350.0, a.Rect.Bottom())
	assert.True(t, a.Grounded)
	assert.Equal(t, 3, w.Lives())
	assert.Equal(t, PhasePlaying, w.Phase())
}

func TestRectOverlaps(t *testing.T) {
	base := Rect{X: 0, Y: 0, W: 10, H: 10}
	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"inside", Rect{X: 2, Y: 2, W: 2, H: 2}, true},
		{"partial", Rect{X: 5, Y: 5, W: 10, H: 10}, true},
		{"touching_right", Rect{X: 10, Y: 0, W: 5, H: 5}, false},
		{"touching_bottom", Rect{X: 0, Y: 10, W: 5, H: 5}, false},
		{"disjoint", Rect{X: 20, Y: 20, W: 5, H: 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestJumpOnlyWhenGrounded(t *testing.T) {
	w := newTestWorld(t, level.Default(), playTuning())

	res := w.Step(800, at(1))
	assert.True(t, res.Jumped)
	assert.InDelta(t, -6.2, res.Impulse, 1e-9)
	a := w.Avatar()
	assert.False(t, a.Grounded)
	assert.InDelta(t, -5.2, a.Velocity, 1e-9)
	assert.Equal(t, SpriteJump, a.CurrentImage())

	res = w.Step(20000, at(2))
	assert.False(t, res.Jumped)
	assert.Equal(t, -15.0, res.Impulse)
	assert.InDelta(t, -4.2, w.Avatar().Velocity, 1e-9)
}

func TestGroundedAvatarStaysOnPlatform(t *testing.T) {
	w := newTestWorld(t, level.Default(), playTuning())

	for i := 1; i <= 10; i++ {
		res := w.Step(0, at(i))
		assert.False(t, res.Jumped)
		a := w.Avatar()
		assert.True(t, a.Grounded, "tick %d", i)
		assert.Equal(t, 350.0, a.Rect.Bottom(), "tick %d", i)
		assert.Equal(t, 0.0, a.Velocity)
	}
	assert.Equal(t, 10, w.Score())
	assert.Equal(t, 100.0+10, w.Avatar().Rect.CenterX())
}

func TestScrollPreservesSpacing(t *testing.T) {
	w := newTestWorld(t, level.Default(), playTuning())
	before := w.View()

	const ticks = 20
	for i := 1; i <= ticks; i++ {
		w.Step(0, at(i))
	}
	require.Equal(t, PhasePlaying, w.Phase())
	after := w.View()

	shift := float64(ticks) * 5
	groups := [][2][]Drawable{
		{before.Platforms, after.Platforms},
		{before.Pipes, after.Pipes},
		{before.Hazards, after.Hazards},
	}
	for _, g := range groups {
		for i := range g[0] {
			assert.InDelta(t, g[0][i].Bounds.X-shift, g[1][i].Bounds.X, 1e-9)
			assert.Equal(t, g[0][i].Bounds.Y, g[1][i].Bounds.Y)
		}
	}
	assert.InDelta(t, before.Goal.Bounds.X-shift, after.Goal.Bounds.X, 1e-9)
	assert.Equal(t, after.Platforms[0].Bounds.CenterX(), after.Pipes[0].Bounds.CenterX())
}

func TestHazardHitOncePerInvincibilityWindow(t *testing.T) {
	tu := playTuning()
	tu.ScrollSpeed = 0
	tu.AutoAdvance = 0
	tu.Lives = 10
	layout := level.Layout{
		Platforms: []level.Point{{X: 0, Y: 350}, {X: 2000, Y: 350}},
		Hazards:   []level.Point{{X: 100, Y: 350}},
	}
	w := newTestWorld(t, layout, tu)

	var hits []int
	for i := 0; i < 90; i++ {
		res := w.Step(0, at(i))
		if res.HazardHit {
			hits = append(hits, i)
		}
	}

	assert.Equal(t, []int{0, 31, 62}, hits)
	assert.Equal(t, 7, w.Lives())
	assert.Equal(t, PhasePlaying, w.Phase())
	for k := 1; k < len(hits); k++ {
		gap := at(hits[k]).Sub(at(hits[k-1]))
		assert.Greater(t, gap, tu.InvincibleDuration)
	}
}

func TestFallOutOfBounds(t *testing.T) {
	layout := level.Layout{Platforms: []level.Point{{X: 1000, Y: 300}}}
	tu := playTuning()
	tu.InvincibleDuration = time.Hour
	w := newTestWorld(t, layout, tu)
	w.avatar.Invincible = true
	w.avatar.lastHit = t0

	prevY := w.Avatar().Rect.Y
	oob := 0
	for i := 1; i <= 50; i++ {
		res := w.Step(0, at(i))
		if res.OutOfBounds {
			oob++
			assert.True(t, res.Respawned)
			a := w.Avatar()
			assert.True(t, a.Grounded)
			assert.Equal(t, 300.0, a.Rect.Bottom())
			continue
		}
		if oob == 0 {
			y := w.Avatar().Rect.Y
			assert.Greater(t, y, prevY, "tick %d", i)
			prevY = y
		}
	}

	assert.Equal(t, 1, oob)
	assert.Equal(t, 2, w.Lives())
}

func TestFallWithLastLifeFails(t *testing.T) {
	layout := level.Layout{Platforms: []level.Point{{X: 1000, Y: 300}}}
	tu := playTuning()
	tu.Lives = 1
	w := newTestWorld(t, layout, tu)

	var end int
	for i := 1; i <= 50; i++ {
		if res := w.Step(0, at(i)); res.OutOfBounds {
			end = i
			break
		}
	}
	require.NotZero(t, end)
	assert.Equal(t, PhaseTerminal, w.Phase())
	assert.Equal(t, OutcomeFailure, w.Outcome())
	assert.Equal(t, 0, w.Lives())
	assert.Equal(t, SpriteDeath, w.Avatar().CurrentImage())

	frozen := w.Avatar().Rect
	score := w.Score()
	w.Step(20000, at(end+1))
	assert.Equal(t, frozen, w.Avatar().Rect)
	assert.Equal(t, score, w.Score())

	v := w.View()
	assert.Equal(t, BannerFailure, v.Banner.Kind)
	assert.Equal(t, "Game Over", v.Banner.Text)
}

func TestGoalEndsWithBannerThenDone(t *testing.T) {
	layout := level.Layout{Platforms: []level.Point{{X: 0, Y: 350}}}
	w := newTestWorld(t, layout, playTuning())

	res := w.Step(0, at(1))
	assert.True(t, res.ReachedGoal)
	assert.Equal(t, PhaseTerminal, res.Phase)
	assert.Equal(t, OutcomeSuccess, w.Outcome())
	assert.Equal(t, 0, w.Score())

	v := w.View()
	assert.Equal(t, BannerSuccess, v.Banner.Kind)
	assert.Equal(t, "Congratulations!", v.Banner.Text)

	w.Step(0, at(1).Add(time.Second))
	assert.False(t, w.Done())

	res = w.Step(0, at(1).Add(3*time.Second))
	assert.Equal(t, PhaseDone, res.Phase)
	assert.True(t, w.Done())
	assert.Equal(t, BannerNone, w.View().Banner.Kind)
	assert.Equal(t, OutcomeSuccess, w.Outcome())
}

func TestCountdown(t *testing.T) {
	w := newTestWorld(t, level.Default(), DefaultTuning())
	require.Equal(t, PhaseCountdown, w.Phase())

	tests := []struct {
		name   string
		offset time.Duration
		want   string
	}{
		{"start", 0, "3"},
		{"after_one_second", time.Second, "2"},
		{"last_second", 2500 * time.Millisecond, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := w.Step(800, t0.Add(tt.offset))
			assert.Equal(t, PhaseCountdown, res.Phase)
			assert.False(t, res.Jumped)
			assert.Equal(t, tt.want, w.View().Banner.Text)
		})
	}
	assert.Equal(t, uint64(0), w.Ticks())

	res := w.Step(0, t0.Add(3*time.Second))
	assert.Equal(t, PhasePlaying, res.Phase)
	assert.Equal(t, uint64(1), w.Ticks())
	assert.Equal(t, BannerNone, w.View().Banner.Kind)
}

func TestEntityAnimation(t *testing.T) {
	h := newEntity(KindHazard, Rect{W: 10, H: 10}, 0.1)
	assert.Equal(t, SpriteHazard1, h.CurrentImage())
	for i := 0; i < 11; i++ {
		h.Update()
	}
	assert.Equal(t, 1, h.FrameIndex())
	assert.Equal(t, SpriteHazard2, h.CurrentImage())
	for i := 0; i < 10; i++ {
		h.Update()
	}
	assert.Equal(t, 0, h.FrameIndex())

	p := newEntity(KindPlatform, Rect{W: 10, H: 10}, 0.1)
	p.Update()
	assert.Equal(t, SpriteGround, p.CurrentImage())
	assert.Equal(t, "platform", p.Kind.String())
}

func TestPlatformCollisionCases(t *testing.T) {
	tests := []struct {
		name      string
		platforms []level.Point
		volume    float64
		advance   float64
		check     func(t *testing.T, a Avatar)
	}{
		{
			name:      "ceiling_clamps_top",
			platforms: []level.Point{{X: 0, Y: 350}, {X: 50, Y: 250}},
			volume:    20000,
			advance:   1,
			check: func(t *testing.T, a Avatar) {
				assert.Equal(t, 300.0, a.Rect.Top())
				assert.False(t, a.Grounded)
				assert.InDelta(t, -14.0, a.Velocity, 1e-9)
			},
		},
		{
			name:      "right_blocked",
			platforms: []level.Point{{X: 0, Y: 350}, {X: 118, Y: 300}},
			advance:   5,
			check: func(t *testing.T, a Avatar) {
				assert.Equal(t, 118.0, a.Rect.Right())
				assert.True(t, a.Grounded)
				assert.Equal(t, 350.0, a.Rect.Bottom())
			},
		},
		{
			name:      "left_blocked",
			platforms: []level.Point{{X: 0, Y: 350}, {X: -110, Y: 300}},
			check: func(t *testing.T, a Avatar) {
				assert.Equal(t, 90.0, a.Rect.Left())
				assert.True(t, a.Grounded)
			},
		},
		{
			name:      "landing_wins_over_side",
			platforms: []level.Point{{X: 0, Y: 350}, {X: 110, Y: 340}},
			check: func(t *testing.T, a Avatar) {
				assert.Equal(t, 340.0, a.Rect.Bottom())
				assert.Equal(t, 84.0, a.Rect.Left())
				assert.True(t, a.Grounded)
				assert.Equal(t, 0.0, a.Velocity)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tu := playTuning()
			tu.AutoAdvance = tt.advance
			w := newTestWorld(t, level.Layout{Platforms: tt.platforms}, tu)

			res := w.Step(tt.volume, at(1))
			assert.Equal(t, PhasePlaying, res.Phase)
			assert.False(t, res.ReachedGoal)
			tt.check(t, w.Avatar())
		})
	}
}

func TestHazardWithLastLifeKills(t *testing.T) {
	tu := playTuning()
	tu.Lives = 1
	layout := level.Layout{
		Platforms: []level.Point{{X: 0, Y: 350}, {X: 2000, Y: 350}},
		Hazards:   []level.Point{{X: 100, Y: 350}},
	}
	w := newTestWorld(t, layout, tu)

	res := w.Step(0, at(1))
	assert.True(t, res.HazardHit)
	assert.Equal(t, PhaseTerminal, res.Phase)
	assert.Equal(t, OutcomeFailure, w.Outcome())
	assert.Equal(t, 0, w.Lives())
	assert.Equal(t, 0, w.Score())

	a := w.Avatar()
	assert.True(t, a.Dead)
	assert.Equal(t, SpriteDeath, a.CurrentImage())
	assert.Equal(t, BannerFailure, w.View().Banner.Kind)
}

func TestBeginRestartsCountdown(t *testing.T) {
	w := newTestWorld(t, level.Default(), DefaultTuning())
	late := t0.Add(10 * time.Second)
	w.Begin(late)

	res := w.Step(0, late)
	assert.Equal(t, PhaseCountdown, res.Phase)
	assert.Equal(t, "3", w.View().Banner.Text)

	res = w.Step(0, late.Add(3*time.Second))
	assert.Equal(t, PhasePlaying, res.Phase)

	w.Begin(late.Add(time.Hour))
	res = w.Step(0, late.Add(3*time.Second+tick))
	assert.Equal(t, PhasePlaying, res.Phase)
	assert.Equal(t, uint64(2), w.Ticks())
}
