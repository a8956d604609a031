package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opd-ai/screamjump/physics"
	"github.com/opd-ai/screamjump/video"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Fallback colours for entities without sprites.
var (
	ColorPlatform = color.RGBA{139, 90, 43, 255}
	ColorPipe     = color.RGBA{30, 150, 40, 255}
	ColorHazard   = color.RGBA{200, 30, 30, 255}
	ColorGoal     = color.RGBA{150, 150, 160, 255}
	ColorAvatar   = color.RGBA{40, 80, 220, 255}
	ColorWater    = color.NRGBA{0, 50, 140, 90}
	ColorText     = color.RGBA{255, 255, 255, 255}
	ColorFailure  = color.RGBA{255, 0, 0, 255}
)

// Config configures a Compositor.
type Config struct {
	Width  int
	Height int
	// Mirror flips camera frames horizontally.
	Mirror bool
	// WaterTop is the y of the water overlay's top edge; negative disables it.
	WaterTop int
	// HUDScale and BannerScale multiply the 7x13 base glyph size.
	HUDScale    int
	BannerScale int
	// CacheSize bounds each of the sprite and text caches.
	CacheSize int
}

// DefaultConfig returns a 640x480 configuration.
func DefaultConfig() Config {
	return Config{
		Width:       video.Width,
		Height:      video.Height,
		WaterTop:    165,
		HUDScale:    2,
		BannerScale: 5,
		CacheSize:   128,
	}
}

// HUD carries the values displayed in the corner.
type HUD struct {
	Volume float64
	Score  int
	Lives  int
}

type spriteKey struct {
	id   physics.SpriteID
	w, h int
}

type textKey struct {
	text  string
	color color.RGBA
	scale int
}

// Compositor renders frames. It is not safe for concurrent use.
type Compositor struct {
	cfg     Config
	sprites SpriteProvider
	scaled  *lru.Cache[spriteKey, *image.RGBA]
	texts   *lru.Cache[textKey, *image.RGBA]
	face    font.Face
}

// New creates a compositor. A nil provider renders every entity as a flat
// colour.
func New(cfg Config, sprites SpriteProvider) (*Compositor, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("compositor: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.HUDScale <= 0 {
		cfg.HUDScale = 1
	}
	if cfg.BannerScale <= 0 {
		cfg.BannerScale = 1
	}
	if sprites == nil {
		sprites = SpriteSet{}
	}

	scaled, err := lru.New[spriteKey, *image.RGBA](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("sprite cache: %w", err)
	}
	texts, err := lru.New[textKey, *image.RGBA](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("text cache: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "compositor.New",
		"size":       fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"mirror":     cfg.Mirror,
		"cache_size": cfg.CacheSize,
	}).Info("Compositor created")

	return &Compositor{
		cfg:     cfg,
		sprites: sprites,
		scaled:  scaled,
		texts:   texts,
		face:    basicfont.Face7x13,
	}, nil
}

// Render composites one frame. A nil background renders over black.
func (c *Compositor) Render(bg *video.Frame, view physics.View, hud HUD) (*image.RGBA, error) {
	dst := image.NewRGBA(image.Rect(0, 0, c.cfg.Width, c.cfg.Height))

	if bg != nil {
		img, err := bg.ToRGBA(c.cfg.Mirror)
		if err != nil {
			return nil, fmt.Errorf("convert camera frame: %w", err)
		}
		draw.Draw(dst, dst.Bounds(), video.Fit(img, c.cfg.Width, c.cfg.Height), image.Point{}, draw.Src)
	} else {
		draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	}

	for _, d := range view.Pipes {
		c.drawEntity(dst, d)
	}
	for _, d := range view.Platforms {
		c.drawEntity(dst, d)
	}
	for _, d := range view.Hazards {
		c.drawEntity(dst, d)
	}
	c.drawEntity(dst, view.Avatar)
	c.drawEntity(dst, view.Goal)
	c.drawWater(dst)

	c.drawText(dst, fmt.Sprintf("Volume: %d", int(hud.Volume)), ColorText, c.cfg.HUDScale, image.Pt(10, 10))
	c.drawText(dst, fmt.Sprintf("Score: %d", hud.Score), ColorText, c.cfg.HUDScale, image.Pt(10, 50))
	c.drawText(dst, fmt.Sprintf("Lives: %d", hud.Lives), ColorText, c.cfg.HUDScale, image.Pt(10, 90))

	if view.Banner.Kind != physics.BannerNone {
		c.drawBanner(dst, view.Banner)
	}
	return dst, nil
}

func toImageRect(r physics.Rect) image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	return image.Rect(x0, y0, x0+int(math.Round(r.W)), y0+int(math.Round(r.H)))
}

func fallbackColor(k physics.EntityKind) color.RGBA {
	switch k {
	case physics.KindPlatform:
		return ColorPlatform
	case physics.KindPipe:
		return ColorPipe
	case physics.KindHazard:
		return ColorHazard
	case physics.KindGoal:
		return ColorGoal
	}
	return ColorAvatar
}

func (c *Compositor) drawEntity(dst *image.RGBA, d physics.Drawable) {
	r := toImageRect(d.Bounds)
	if !r.Overlaps(dst.Bounds()) {
		return
	}
	if img := c.scaledSprite(d.Image, r.Dx(), r.Dy()); img != nil {
		draw.Draw(dst, r, img, image.Point{}, draw.Over)
		return
	}
	draw.Draw(dst, r, image.NewUniform(fallbackColor(d.Kind)), image.Point{}, draw.Src)
}

func (c *Compositor) scaledSprite(id physics.SpriteID, w, h int) *image.RGBA {
	if id == "" || w <= 0 || h <= 0 {
		return nil
	}
	key := spriteKey{id: id, w: w, h: h}
	if img, ok := c.scaled.Get(key); ok {
		return img
	}
	src, ok := c.sprites.Sprite(id)
	if !ok {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(img, img.Bounds(), src, src.Bounds(), draw.Src, nil)
	c.scaled.Add(key, img)
	return img
}

func (c *Compositor) drawWater(dst *image.RGBA) {
	if c.cfg.WaterTop < 0 || c.cfg.WaterTop >= c.cfg.Height {
		return
	}
	r := image.Rect(0, c.cfg.WaterTop, c.cfg.Width, c.cfg.WaterTop+c.cfg.Height)
	if img := c.scaledSprite(physics.SpriteWater, r.Dx(), r.Dy()); img != nil {
		draw.Draw(dst, r, img, image.Point{}, draw.Over)
		return
	}
	draw.Draw(dst, r, image.NewUniform(ColorWater), image.Point{}, draw.Over)
}

// textImage renders text on a transparent background at scale.
func (c *Compositor) textImage(text string, col color.RGBA, scale int) *image.RGBA {
	key := textKey{text: text, color: col, scale: scale}
	if img, ok := c.texts.Get(key); ok {
		return img
	}

	w := font.MeasureString(c.face, text).Ceil()
	m := c.face.Metrics()
	h := m.Height.Ceil()
	if w <= 0 || h <= 0 {
		return nil
	}
	base := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  base,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(text)

	img := base
	if scale > 1 {
		img = image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
		draw.NearestNeighbor.Scale(img, img.Bounds(), base, base.Bounds(), draw.Src, nil)
	}
	c.texts.Add(key, img)
	return img
}

func (c *Compositor) drawText(dst *image.RGBA, text string, col color.RGBA, scale int, at image.Point) image.Rectangle {
	img := c.textImage(text, col, scale)
	if img == nil {
		return image.Rectangle{}
	}
	r := img.Bounds().Add(at)
	draw.Draw(dst, r, img, image.Point{}, draw.Over)
	return r
}

func (c *Compositor) drawBanner(dst *image.RGBA, b physics.Banner) {
	col := ColorText
	if b.Kind == physics.BannerFailure {
		col = ColorFailure
	}
	img := c.textImage(b.Text, col, c.cfg.BannerScale)
	if img == nil {
		return
	}
	at := image.Pt((c.cfg.Width-img.Bounds().Dx())/2, (c.cfg.Height-img.Bounds().Dy())/2)
	draw.Draw(dst, img.Bounds().Add(at), img, image.Point{}, draw.Over)
}

// CacheLen returns the number of cached scaled sprites and rendered texts.
func (c *Compositor) CacheLen() (sprites, texts int) {
	return c.scaled.Len(), c.texts.Len()
}
