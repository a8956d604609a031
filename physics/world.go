package physics

import (
	"fmt"
	"time"

	"github.com/opd-ai/screamjump/level"
	"github.com/sirupsen/logrus"
)

// Phase is the lifecycle stage of a world.
type Phase uint8

const (
	// PhaseCountdown holds the world still until the countdown elapses.
	PhaseCountdown Phase = iota
	// PhasePlaying advances the world every tick.
	PhasePlaying
	// PhaseTerminal freezes the world while the result banner shows.
	PhaseTerminal
	// PhaseDone tells the session loop to stop.
	PhaseDone
)

// String returns the phase name used in logs.
func (p Phase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseTerminal:
		return "terminal"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// Outcome is how a session ended.
type Outcome uint8

const (
	// OutcomeNone means the world has not reached a terminal phase.
	OutcomeNone Outcome = iota
	// OutcomeSuccess means the avatar reached the goal.
	OutcomeSuccess
	// OutcomeFailure means the avatar ran out of lives or platforms.
	OutcomeFailure
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	}
	return "none"
}

// StepResult reports what happened during one tick.
type StepResult struct {
	Phase       Phase
	Impulse     float64
	Jumped      bool
	HazardHit   bool
	OutOfBounds bool
	Respawned   bool
	ReachedGoal bool
}

// World is the complete mutable game state. It is not safe for concurrent
// use; the session loop owns it.
type World struct {
	tuning Tuning

	avatar    Avatar
	platforms []Entity
	pipes     []Entity
	hazards   []Entity
	goal      Entity

	phase      Phase
	outcome    Outcome
	lives      int
	score      int
	tick       uint64
	started    time.Time
	terminalAt time.Time
	now        time.Time
}

// NewWorld builds a world from layout. now is the start of the countdown.
func NewWorld(layout level.Layout, tuning Tuning, now time.Time) (*World, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := tuning.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		tuning:  tuning,
		lives:   tuning.Lives,
		started: now,
		now:     now,
	}

	for _, p := range layout.Platforms {
		r := Rect{X: p.X, Y: p.Y, W: tuning.PlatformSize.W, H: tuning.PlatformSize.H}
		w.platforms = append(w.platforms, newEntity(KindPlatform, r, 0))
		w.pipes = append(w.pipes, newEntity(KindPipe, RectFromMidTop(r.CenterX(), r.Bottom(), tuning.PipeSize), 0))
	}
	for _, h := range layout.Hazards {
		w.hazards = append(w.hazards, newEntity(KindHazard, RectFromMidBottom(h.X, h.Y, tuning.HazardSize), tuning.AnimationStep))
	}
	last := w.platforms[len(w.platforms)-1].Rect
	w.goal = newEntity(KindGoal, RectFromMidBottom(last.CenterX(), last.Top()+tuning.GoalSink, tuning.GoalSize), 0)

	w.avatar = Avatar{
		Rect:     RectFromMidBottom(tuning.AvatarStart.X, tuning.AvatarStart.Y, tuning.AvatarSize),
		Grounded: true,
		step:     tuning.AnimationStep,
	}

	w.phase = PhasePlaying
	if tuning.CountdownDuration > 0 {
		w.phase = PhaseCountdown
	}

	logrus.WithFields(logrus.Fields{
		"function":  "NewWorld",
		"layout":    layout.String(),
		"lives":     w.lives,
		"phase":     w.phase.String(),
		"countdown": tuning.CountdownDuration,
	}).Info("World created")

	return w, nil
}

// Begin restarts the countdown at now. It has no effect once the countdown
// is over.
func (w *World) Begin(now time.Time) {
	if w.phase != PhaseCountdown {
		return
	}
	w.started = now
	w.now = now
}

// Step advances the world by one tick using the latest loudness.
func (w *World) Step(volume float64, now time.Time) StepResult {
	w.now = now

	switch w.phase {
	case PhaseDone:
		return StepResult{Phase: w.phase}
	case PhaseTerminal:
		if now.Sub(w.terminalAt) >= w.tuning.BannerDuration {
			w.phase = PhaseDone
			logrus.WithFields(logrus.Fields{
				"function": "World.Step",
				"outcome":  w.outcome.String(),
				"score":    w.score,
			}).Info("Result banner dismissed")
		}
		return StepResult{Phase: w.phase}
	case PhaseCountdown:
		if now.Sub(w.started) < w.tuning.CountdownDuration {
			return StepResult{Phase: w.phase}
		}
		w.phase = PhasePlaying
		logrus.WithFields(logrus.Fields{
			"function": "World.Step",
		}).Info("Countdown finished")
	}

	w.tick++
	res := StepResult{}
	a := &w.avatar

	res.Impulse = w.tuning.Impulse.Impulse(volume)
	if res.Impulse != 0 && a.Grounded {
		a.Velocity = res.Impulse
		res.Jumped = true
	}

	a.Velocity += w.tuning.Gravity
	a.Rect.Y += a.Velocity
	a.animate()
	a.Rect.X += w.tuning.AutoAdvance
	if a.Invincible && now.Sub(a.lastHit) > w.tuning.InvincibleDuration {
		a.Invincible = false
	}

	a.Grounded = false
	for i := range w.platforms {
		w.resolve(w.platforms[i].Rect)
	}

	for i := range w.hazards {
		h := &w.hazards[i]
		h.Update()
		if a.Invincible || !a.Rect.Overlaps(h.Rect) {
			continue
		}
		res.HazardHit = true
		w.loseLife(now, "hazard")
		if w.phase == PhaseTerminal {
			res.Phase = w.phase
			return res
		}
	}

	if a.Rect.Overlaps(w.goal.Rect) {
		res.ReachedGoal = true
		w.finish(OutcomeSuccess, now)
		res.Phase = w.phase
		return res
	}

	if a.Rect.Top() > w.tuning.Viewport.H {
		res.OutOfBounds = true
		w.loseLife(now, "out_of_bounds")
		if w.phase == PhaseTerminal {
			res.Phase = w.phase
			return res
		}
		res.Respawned = w.respawn()
		if !res.Respawned {
			w.finish(OutcomeFailure, now)
			res.Phase = w.phase
			return res
		}
	}

	w.scroll()
	w.score += w.tuning.ScorePerTick

	res.Phase = w.phase
	return res
}

// resolve applies the first matching platform case to the avatar.
func (w *World) resolve(p Rect) {
	a := &w.avatar
	r := a.Rect
	if !r.Overlaps(p) {
		return
	}

	switch {
	case r.Bottom() > p.Top() && r.Top() < p.Top():
		a.Rect.Y = p.Top() - r.H
		a.Grounded = true
		a.Velocity = 0
	case r.Top() < p.Bottom() && r.Bottom() > p.Bottom():
		a.Rect.Y = p.Bottom()
	case r.Right() > p.Left() && r.Left() < p.Left():
		a.Rect.X = p.Left() - r.W
	case r.Left() < p.Right() && r.Right() > p.Right():
		a.Rect.X = p.Right()
	}
}

// loseLife removes one life and opens a new invincibility window. A world
// with no lives left ends in failure.
func (w *World) loseLife(now time.Time, cause string) {
	w.lives--
	w.avatar.Invincible = true
	w.avatar.lastHit = now

	logrus.WithFields(logrus.Fields{
		"function": "World.loseLife",
		"cause":    cause,
		"lives":    w.lives,
		"tick":     w.tick,
	}).Info("Life lost")

	if w.lives <= 0 {
		w.lives = 0
		w.avatar.Dead = true
		w.finish(OutcomeFailure, now)
	}
}

// respawn places the avatar on the first platform at or ahead of it.
func (w *World) respawn() bool {
	a := &w.avatar
	for i := range w.platforms {
		p := w.platforms[i].Rect
		if p.Right() <= a.Rect.Left() {
			continue
		}
		if a.Rect.X < p.Left() {
			a.Rect.X = p.Left()
		}
		a.Rect.Y = p.Top() - a.Rect.H
		a.Velocity = 0
		a.Grounded = true
		return true
	}

	logrus.WithFields(logrus.Fields{
		"function": "World.respawn",
		"x":        a.Rect.X,
	}).Warn("No platform ahead of avatar")
	return false
}

func (w *World) finish(o Outcome, now time.Time) {
	if w.phase == PhaseTerminal || w.phase == PhaseDone {
		return
	}
	w.phase = PhaseTerminal
	w.outcome = o
	w.terminalAt = now

	logrus.WithFields(logrus.Fields{
		"function": "World.finish",
		"outcome":  o.String(),
		"score":    w.score,
		"lives":    w.lives,
		"tick":     w.tick,
	}).Info("Session finished")
}

func (w *World) scroll() {
	dx := w.tuning.ScrollSpeed
	for i := range w.platforms {
		w.platforms[i].Rect.X -= dx
	}
	for i := range w.pipes {
		w.pipes[i].Rect.X -= dx
	}
	for i := range w.hazards {
		w.hazards[i].Rect.X -= dx
	}
	w.goal.Rect.X -= dx
}

// Phase returns the lifecycle stage.
func (w *World) Phase() Phase { return w.phase }

// Outcome returns the terminal outcome, or OutcomeNone while playing.
func (w *World) Outcome() Outcome { return w.outcome }

// Done reports whether the result banner has been dismissed.
func (w *World) Done() bool { return w.phase == PhaseDone }

// Lives returns the remaining lives.
func (w *World) Lives() int { return w.lives }

// Score returns the score.
func (w *World) Score() int { return w.score }

// Ticks returns the number of playing ticks simulated.
func (w *World) Ticks() uint64 { return w.tick }

// Avatar returns a copy of the avatar.
func (w *World) Avatar() Avatar { return w.avatar }

// String summarizes the world for logging.
func (w *World) String() string {
	return fmt.Sprintf("World(phase=%s, outcome=%s, lives=%d, score=%d, tick=%d)",
		w.phase, w.outcome, w.lives, w.score, w.tick)
}
