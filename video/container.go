package video

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

const containerMagic = "SJV1"

// ContainerHeader is the first record of a frame container.
type ContainerHeader struct {
	Magic       string    `msgpack:"magic"`
	Width       int       `msgpack:"width"`
	Height      int       `msgpack:"height"`
	FPS         int       `msgpack:"fps"`
	Format      string    `msgpack:"format"`
	Compression string    `msgpack:"compression"`
	Created     time.Time `msgpack:"created"`
}

const (
	recordFrame   uint8 = 1
	recordTrailer uint8 = 2
)

type containerRecord struct {
	Kind      uint8     `msgpack:"k"`
	Tick      uint64    `msgpack:"t,omitempty"`
	Timestamp time.Time `msgpack:"ts,omitempty"`
	Payload   []byte    `msgpack:"p,omitempty"`
	Frames    uint64    `msgpack:"n,omitempty"`
}

// ContainerOptions describes the frames written to a container.
type ContainerOptions struct {
	Width  int
	Height int
	FPS    int
	// Compression is a zstd level name: fastest, default, better or best.
	Compression string
}

// FrameWriter appends composited frames to a container file. It is a single
// writer and not safe for concurrent use.
type FrameWriter struct {
	path string
	opts ContainerOptions
	file *os.File
	buf  *bufio.Writer
	enc  *msgpack.Encoder
	zenc *zstd.Encoder

	frames uint64
	bytes  uint64
	closed bool
}

// CreateFrameWriter creates path and writes the container header.
func CreateFrameWriter(path string, opts ContainerOptions, now time.Time) (*FrameWriter, error) {
	if opts.Compression == "" {
		opts.Compression = "fastest"
	}
	ok, level := zstd.EncoderLevelFromString(opts.Compression)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCompression, opts.Compression)
	}

	zenc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create frame encoder: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		zenc.Close()
		return nil, fmt.Errorf("create video sink: %w", err)
	}

	w := &FrameWriter{
		path: path,
		opts: opts,
		file: f,
		buf:  bufio.NewWriterSize(f, 1<<20),
		zenc: zenc,
	}
	w.enc = msgpack.NewEncoder(w.buf)

	hdr := ContainerHeader{
		Magic:       containerMagic,
		Width:       opts.Width,
		Height:      opts.Height,
		FPS:         opts.FPS,
		Format:      FormatRGB24.String(),
		Compression: opts.Compression,
		Created:     now,
	}
	if err := w.enc.Encode(&hdr); err != nil {
		f.Close()
		zenc.Close()
		return nil, fmt.Errorf("write container header: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "CreateFrameWriter",
		"path":        path,
		"size":        fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"fps":         opts.FPS,
		"compression": opts.Compression,
	}).Info("Video sink opened")

	return w, nil
}

// WriteFrame appends one frame. The image must match the container size.
func (w *FrameWriter) WriteFrame(f *CapturedFrame) error {
	if w.closed {
		return ErrWriterClosed
	}
	b := f.Image.Bounds()
	if b.Dx() != w.opts.Width || b.Dy() != w.opts.Height {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), w.opts.Width, w.opts.Height)
	}

	payload := w.zenc.EncodeAll(PackRGB24(f.Image), nil)
	rec := containerRecord{
		Kind:      recordFrame,
		Tick:      f.Tick,
		Timestamp: f.Timestamp,
		Payload:   payload,
	}
	if err := w.enc.Encode(&rec); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Tick, err)
	}
	w.frames++
	w.bytes += uint64(len(payload))
	return nil
}

// Frames returns the number of frames written.
func (w *FrameWriter) Frames() uint64 { return w.frames }

// Path returns the container path.
func (w *FrameWriter) Path() string { return w.path }

// Close writes the trailer, flushes, syncs and closes the file.
// It is idempotent.
func (w *FrameWriter) Close() (err error) {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.zenc.Close()
	defer func() {
		if cerr := w.file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close video sink: %w", cerr)
		}
	}()

	if err := w.enc.Encode(&containerRecord{Kind: recordTrailer, Frames: w.frames}); err != nil {
		return fmt.Errorf("write container trailer: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush video sink: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync video sink: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":         "FrameWriter.Close",
		"path":             w.path,
		"frames":           w.frames,
		"compressed_bytes": w.bytes,
	}).Info("Video sink sealed")
	return nil
}

// DecodedFrame is one frame read back from a container.
type DecodedFrame struct {
	Tick      uint64
	Timestamp time.Time
	// RGB holds packed RGB24 pixels.
	RGB []byte
}

// Image expands the frame to RGBA.
func (d *DecodedFrame) Image(width, height int) (*image.RGBA, error) {
	return UnpackRGB24(width, height, d.RGB)
}

// FrameReader reads frames back from a container.
type FrameReader struct {
	header ContainerHeader
	dec    *msgpack.Decoder
	zdec   *zstd.Decoder
	read   uint64
	done   bool
}

// NewFrameReader reads the container header from r.
func NewFrameReader(r io.Reader) (*FrameReader, error) {
	dec := msgpack.NewDecoder(bufio.NewReaderSize(r, 1<<20))

	var hdr ContainerHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if hdr.Magic != containerMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, hdr.Magic)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadMagic, hdr.Width, hdr.Height)
	}

	zdec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create frame decoder: %w", err)
	}
	return &FrameReader{header: hdr, dec: dec, zdec: zdec}, nil
}

// Header returns the container header.
func (r *FrameReader) Header() ContainerHeader { return r.header }

// Next returns the next frame, or io.EOF after a valid trailer.
func (r *FrameReader) Next() (*DecodedFrame, error) {
	if r.done {
		return nil, io.EOF
	}

	var rec containerRecord
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w after %d frames", ErrTruncated, r.read)
		}
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	switch rec.Kind {
	case recordTrailer:
		r.done = true
		if rec.Frames != r.read {
			return nil, fmt.Errorf("%w: trailer counts %d frames, read %d", ErrTruncated, rec.Frames, r.read)
		}
		return nil, io.EOF
	case recordFrame:
	default:
		return nil, fmt.Errorf("%w: unknown record kind %d", ErrTruncated, rec.Kind)
	}

	want := r.header.Width * r.header.Height * BytesPerPixel
	rgb, err := r.zdec.DecodeAll(rec.Payload, make([]byte, 0, want))
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", rec.Tick, err)
	}
	if len(rgb) != want {
		return nil, fmt.Errorf("%w: frame %d has %d bytes, want %d", ErrFrameSize, rec.Tick, len(rgb), want)
	}

	r.read++
	return &DecodedFrame{Tick: rec.Tick, Timestamp: rec.Timestamp, RGB: rgb}, nil
}

// Close releases decoder resources.
func (r *FrameReader) Close() {
	r.zdec.Close()
}

// ScanContainer reads every frame in path and returns the header and frame
// count. It fails on truncated or corrupt containers.
func ScanContainer(path string) (ContainerHeader, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContainerHeader{}, 0, err
	}
	defer f.Close()

	r, err := NewFrameReader(f)
	if err != nil {
		return ContainerHeader{}, 0, err
	}
	defer r.Close()

	var n uint64
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			return r.Header(), n, nil
		}
		if err != nil {
			return r.Header(), n, err
		}
		n++
	}
}
