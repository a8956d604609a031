// Package physics advances the world state of a screamjump session one fixed
// tick at a time.
//
// A World is built once from a level.Layout and mutated only by Step, which
// the session calls exactly once per rendered frame with the latest loudness
// and the tick timestamp. Step never reads the clock itself, so tests drive
// time explicitly.
//
// # Tick Order
//
// While playing, every Step performs, in order:
//
//  1. jump: the loudness is mapped to an impulse, applied only when grounded
//  2. gravity: the vertical accumulator grows by Gravity and moves the avatar;
//     the avatar auto-advances horizontally and animates
//  3. platforms: grounded is cleared, then each platform in declared order
//     resolves the first matching case of landing, ceiling, right-blocked,
//     left-blocked
//  4. hazards: an overlap while not invincible costs one life and starts the
//     invincibility window
//  5. goal: an overlap ends the session with success
//  6. out of bounds: falling below the viewport costs one life regardless of
//     invincibility
//  7. scroll: every platform, pipe, hazard and the goal move left by the
//     same ScrollSpeed; the score grows
//
// # Phases
//
// A world starts in PhaseCountdown (skipped when CountdownDuration is zero),
// plays in PhasePlaying, freezes in PhaseTerminal while the result banner is
// shown and ends in PhaseDone once BannerDuration has elapsed.
//
// # Entities
//
// Platforms, pipes, hazards and the goal share one tagged Entity type; the
// Kind field selects behaviour and each entity exposes Update, CurrentImage
// and Bounds.
package physics
