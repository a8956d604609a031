// Package compositor renders one output frame per tick: the camera image as
// background with the world, HUD and banners drawn on top.
//
// Draw order is fixed: background, pipes, platforms, hazards, avatar, goal,
// water overlay, HUD, banner. Sprites come from a SpriteProvider; any sprite
// it cannot supply is drawn as a flat-coloured rectangle of the entity's
// bounds, so a compositor without assets still renders a playable scene.
//
// Scaled sprites and rendered text are kept in bounded LRU caches keyed by
// their source and target size.
package compositor
