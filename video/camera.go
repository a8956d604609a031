package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Camera is a pull-based frame source. ReadFrame waits at most the camera's
// configured timeout and returns ErrCameraTimeout when no frame arrived.
type Camera interface {
	ReadFrame(ctx context.Context) (*Frame, error)
	Close() error
}

// CameraOptions configures an FFmpegCamera.
type CameraOptions struct {
	FFmpegPath  string
	InputFormat string
	Device      string
	Width       int
	Height      int
	FPS         int
	Timeout     time.Duration
}

func (o *CameraOptions) setDefaults() {
	if o.FFmpegPath == "" {
		o.FFmpegPath = "ffmpeg"
	}
	if o.Width <= 0 {
		o.Width = Width
	}
	if o.Height <= 0 {
		o.Height = Height
	}
	if o.FPS <= 0 {
		o.FPS = 15
	}
	if o.Timeout <= 0 {
		o.Timeout = 50 * time.Millisecond
	}
}

// Args returns the ffmpeg arguments that stream the device as rawvideo BGR24
// on stdout.
func (o CameraOptions) Args() []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if o.InputFormat != "" {
		args = append(args, "-f", o.InputFormat)
	}
	args = append(args,
		"-framerate", strconv.Itoa(o.FPS),
		"-video_size", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-i", o.Device,
		"-vf", fmt.Sprintf("scale=%d:%d", o.Width, o.Height),
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-",
	)
	return args
}

// FFmpegCamera reads frames from an ffmpeg subprocess. A reader goroutine
// keeps only the newest frame; older unread frames are dropped.
type FFmpegCamera struct {
	opts   CameraOptions
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stream io.ReadCloser

	latest chan *Frame
	done   chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// OpenFFmpegCamera starts ffmpeg and begins reading frames.
func OpenFFmpegCamera(ctx context.Context, opts CameraOptions) (*FFmpegCamera, error) {
	opts.setDefaults()
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, opts.FFmpegPath, opts.Args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("camera stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start camera process: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenFFmpegCamera",
		"device":   opts.Device,
		"format":   opts.InputFormat,
		"size":     fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"pid":      cmd.Process.Pid,
	}).Info("Camera process started")

	c := newStreamCamera(stdout, opts)
	c.cmd = cmd
	c.cancel = cancel
	return c, nil
}

// newStreamCamera reads rawvideo BGR24 frames from r.
func newStreamCamera(r io.ReadCloser, opts CameraOptions) *FFmpegCamera {
	opts.setDefaults()
	c := &FFmpegCamera{
		opts:   opts,
		stream: r,
		latest: make(chan *Frame, 1),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *FFmpegCamera) readLoop() {
	defer close(c.done)
	size := c.opts.Width * c.opts.Height * BytesPerPixel

	for {
		buf := make([]byte, size)
		if _, err := io.ReadFull(c.stream, buf); err != nil {
			c.fail(err)
			return
		}
		c.publish(&Frame{
			Width:    c.opts.Width,
			Height:   c.opts.Height,
			Format:   FormatBGR24,
			Pix:      buf,
			Captured: time.Now(),
		})
	}
}

func (c *FFmpegCamera) publish(f *Frame) {
	select {
	case c.latest <- f:
		return
	default:
	}
	select {
	case <-c.latest:
	default:
	}
	select {
	case c.latest <- f:
	default:
	}
}

func (c *FFmpegCamera) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("%w: stream ended", ErrCameraClosed)
	}
	c.err = err

	logrus.WithFields(logrus.Fields{
		"function": "FFmpegCamera.readLoop",
		"error":    err.Error(),
	}).Warn("Camera stream stopped")
}

// ReadFrame returns the newest frame not yet returned.
func (c *FFmpegCamera) ReadFrame(ctx context.Context) (*Frame, error) {
	select {
	case f := <-c.latest:
		return f, nil
	default:
	}

	timer := time.NewTimer(c.opts.Timeout)
	defer timer.Stop()

	select {
	case f := <-c.latest:
		return f, nil
	case <-c.done:
		select {
		case f := <-c.latest:
			return f, nil
		default:
		}
		return nil, c.streamErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrCameraTimeout
	}
}

func (c *FFmpegCamera) streamErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrCameraClosed
}

// Close stops the subprocess and waits for the reader to exit.
func (c *FFmpegCamera) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	err := c.stream.Close()
	<-c.done

	if c.cmd != nil {
		// killed by cancel; the exit status carries no information
		_ = c.cmd.Wait()
	}

	logrus.WithFields(logrus.Fields{
		"function": "FFmpegCamera.Close",
		"device":   c.opts.Device,
	}).Info("Camera closed")
	return err
}

// PatternCamera synthesizes moving gradient frames. Every FailEvery-th read
// times out when FailEvery is positive.
type PatternCamera struct {
	Width     int
	Height    int
	FailEvery int

	mu     sync.Mutex
	reads  int
	closed bool
}

// NewPatternCamera returns a camera producing width x height frames.
func NewPatternCamera(width, height int) *PatternCamera {
	return &PatternCamera{Width: width, Height: height}
}

// ReadFrame returns the next synthetic frame.
func (p *PatternCamera) ReadFrame(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrCameraClosed
	}
	p.reads++
	if p.FailEvery > 0 && p.reads%p.FailEvery == 0 {
		return nil, ErrCameraTimeout
	}

	f := NewFrame(p.Width, p.Height, FormatBGR24)
	f.Captured = time.Now()
	shift := p.reads * 4
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			i := (y*p.Width + x) * BytesPerPixel
			f.Pix[i] = byte(y)
			f.Pix[i+1] = byte(x / 4)
			f.Pix[i+2] = byte(x + shift)
		}
	}
	return f, nil
}

// Reads returns the number of ReadFrame calls that reached the generator.
func (p *PatternCamera) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// Close marks the camera closed.
func (p *PatternCamera) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
