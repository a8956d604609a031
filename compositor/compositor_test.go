package compositor

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/screamjump/physics"
	"github.com/opd-ai/screamjump/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dryConfig() Config {
	cfg := DefaultConfig()
	cfg.WaterTop = -1
	return cfg
}

func sceneView() physics.View {
	return physics.View{
		Phase: physics.PhasePlaying,
		Pipes: []physics.Drawable{
			{Kind: physics.KindPipe, Bounds: physics.Rect{X: 140, Y: 350, W: 120, H: 400}, Image: physics.SpritePipe},
		},
		Platforms: []physics.Drawable{
			{Kind: physics.KindPlatform, Bounds: physics.Rect{X: 100, Y: 300, W: 200, H: 50}, Image: physics.SpriteGround},
		},
		Hazards: []physics.Drawable{
			{Kind: physics.KindHazard, Bounds: physics.Rect{X: 150, Y: 240, W: 40, H: 60}, Image: physics.SpriteHazard1},
		},
		Avatar: physics.Drawable{Kind: physics.KindAvatar, Bounds: physics.Rect{X: 170, Y: 260, W: 32, H: 40}, Image: physics.SpriteWalk1},
		Goal:   physics.Drawable{Kind: physics.KindGoal, Bounds: physics.Rect{X: 450, Y: 200, W: 100, H: 100}, Image: physics.SpriteGoal},
		Lives:  3,
	}
}

func solidFrame(w, h int, b, g, r byte) *video.Frame {
	f := video.NewFrame(w, h, video.FormatBGR24)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
	}
	return f
}

func TestRenderFallbackDrawOrder(t *testing.T) {
	c, err := New(dryConfig(), nil)
	require.NoError(t, err)

	img, err := c.Render(nil, sceneView(), HUD{})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"pipe", 200, 420, ColorPipe},
		{"platform_over_pipe", 200, 345, ColorPlatform},
		{"hazard", 155, 245, ColorHazard},
		{"avatar_over_hazard", 175, 280, ColorAvatar},
		{"goal", 500, 250, ColorGoal},
		{"background", 600, 150, color.RGBA{0, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, img.RGBAAt(tt.x, tt.y))
		})
	}
}

func TestRenderCameraBackground(t *testing.T) {
	c, err := New(dryConfig(), nil)
	require.NoError(t, err)

	img, err := c.Render(solidFrame(640, 480, 10, 20, 30), physics.View{}, HUD{})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{30, 20, 10, 255}, img.RGBAAt(600, 150))

	small, err := c.Render(solidFrame(320, 240, 10, 20, 30), physics.View{}, HUD{})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{30, 20, 10, 255}, small.RGBAAt(600, 150))

	_, err = c.Render(&video.Frame{Width: 640, Height: 480}, physics.View{}, HUD{})
	assert.ErrorIs(t, err, video.ErrFrameSize)
}

func TestRenderMirror(t *testing.T) {
	bg := solidFrame(640, 480, 0, 0, 0)
	// left column red, everything else black
	for y := 0; y < 480; y++ {
		bg.Pix[y*640*3+2] = 255
	}

	cfg := dryConfig()
	cfg.Mirror = true
	c, err := New(cfg, nil)
	require.NoError(t, err)

	img, err := c.Render(bg, physics.View{}, HUD{})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.RGBAAt(639, 300).R)
	assert.Equal(t, uint8(0), img.RGBAAt(0, 300).R)
}

func countColor(img *image.RGBA, r image.Rectangle, want color.RGBA) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == want {
				n++
			}
		}
	}
	return n
}

func TestRenderBanners(t *testing.T) {
	c, err := New(dryConfig(), nil)
	require.NoError(t, err)
	center := image.Rect(120, 200, 520, 280)

	tests := []struct {
		name   string
		banner physics.Banner
		red    bool
		white  bool
	}{
		{"none", physics.Banner{}, false, false},
		{"failure", physics.Banner{Kind: physics.BannerFailure, Text: "Game Over"}, true, false},
		{"success", physics.Banner{Kind: physics.BannerSuccess, Text: "Congratulations!"}, false, true},
		{"countdown", physics.Banner{Kind: physics.BannerCountdown, Text: "3"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := c.Render(nil, physics.View{Banner: tt.banner}, HUD{})
			require.NoError(t, err)
			assert.Equal(t, tt.red, countColor(img, center, ColorFailure) > 0)
			assert.Equal(t, tt.white, countColor(img, center, ColorText) > 0)
		})
	}
}

func TestRenderHUD(t *testing.T) {
	c, err := New(dryConfig(), nil)
	require.NoError(t, err)

	img, err := c.Render(nil, physics.View{}, HUD{Volume: 812.7, Score: 40, Lives: 2})
	require.NoError(t, err)

	for _, row := range []int{10, 50, 90} {
		r := image.Rect(10, row, 200, row+26)
		assert.Greater(t, countColor(img, r, ColorText), 0, "hud row %d", row)
	}
	assert.Equal(t, 0, countColor(img, image.Rect(10, 130, 200, 160), ColorText))
}

func TestSpritesAreScaledAndCached(t *testing.T) {
	green := color.RGBA{0, 255, 0, 255}
	ground := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(ground.Pix); i += 4 {
		copy(ground.Pix[i:], []byte{green.R, green.G, green.B, green.A})
	}

	c, err := New(dryConfig(), SpriteSet{physics.SpriteGround: ground})
	require.NoError(t, err)

	view := sceneView()
	view.Platforms = append(view.Platforms, physics.Drawable{
		Kind: physics.KindPlatform, Bounds: physics.Rect{X: 400, Y: 400, W: 200, H: 50}, Image: physics.SpriteGround,
	})

	for i := 0; i < 2; i++ {
		img, err := c.Render(nil, view, HUD{})
		require.NoError(t, err)
		assert.Equal(t, green, img.RGBAAt(200, 320))
		assert.Equal(t, green, img.RGBAAt(500, 420))
	}

	sprites, texts := c.CacheLen()
	assert.Equal(t, 1, sprites)
	assert.Equal(t, 3, texts)
}

func TestWaterOverlay(t *testing.T) {
	c, err := New(DefaultConfig(), nil)
	require.NoError(t, err)

	img, err := c.Render(nil, physics.View{}, HUD{})
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(600, 150))
	below := img.RGBAAt(600, 400)
	assert.Greater(t, below.B, uint8(0))
	assert.Equal(t, uint8(255), below.A)
}

func TestNewRejectsEmptySize(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestLoadSprites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipe.png"), []byte("not png"), 0o644))
	_, err := LoadSprites(dir)
	assert.Error(t, err)

	set, err := LoadSprites(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, set)
	_, ok := set.Sprite(physics.SpriteGround)
	assert.False(t, ok)
}
