package video

import (
	"fmt"
	"image"
	"time"

	"golang.org/x/image/draw"
)

// Nominal output geometry.
const (
	Width         = 640
	Height        = 480
	BytesPerPixel = 3
)

// PixelFormat is the byte order of a packed 24-bit frame.
type PixelFormat uint8

const (
	FormatBGR24 PixelFormat = iota
	FormatRGB24
)

func (p PixelFormat) String() string {
	switch p {
	case FormatBGR24:
		return "bgr24"
	case FormatRGB24:
		return "rgb24"
	}
	return "unknown"
}

// Frame is a packed 24-bit camera frame.
type Frame struct {
	Width    int
	Height   int
	Format   PixelFormat
	Pix      []byte
	Captured time.Time
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int, format PixelFormat) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Format: format,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// Validate checks that Pix holds exactly Width*Height pixels.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || len(f.Pix) != f.Width*f.Height*BytesPerPixel {
		return fmt.Errorf("%w: %dx%d with %d bytes", ErrFrameSize, f.Width, f.Height, len(f.Pix))
	}
	return nil
}

// ToRGBA converts the frame to RGBA, optionally mirrored horizontally.
func (f *Frame) ToRGBA(mirror bool) (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	// byte offsets of red and blue within a source pixel
	ri, bi := 2, 0
	if f.Format == FormatRGB24 {
		ri, bi = 0, 2
	}

	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*f.Width*BytesPerPixel:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			sx := x
			if mirror {
				sx = f.Width - 1 - x
			}
			s := src[sx*BytesPerPixel:]
			d := dst[x*4:]
			d[0] = s[ri]
			d[1] = s[1]
			d[2] = s[bi]
			d[3] = 0xff
		}
	}
	return img, nil
}

// Fit scales img to width x height. Images already at that size are
// returned unchanged.
func Fit(img *image.RGBA, width, height int) *image.RGBA {
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// CapturedFrame is one composited output frame.
type CapturedFrame struct {
	Image     *image.RGBA
	Tick      uint64
	Timestamp time.Time
}

// PackRGB24 drops the alpha channel of img into a packed RGB24 buffer.
func PackRGB24(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*BytesPerPixel)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):]
		for x := 0; x < b.Dx(); x++ {
			out = append(out, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}

// UnpackRGB24 expands a packed RGB24 buffer into an opaque RGBA image.
func UnpackRGB24(width, height int, pix []byte) (*image.RGBA, error) {
	if len(pix) != width*height*BytesPerPixel {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrFrameSize, width, height, len(pix))
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		img.Pix[j] = pix[i]
		img.Pix[j+1] = pix[i+1]
		img.Pix[j+2] = pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}
