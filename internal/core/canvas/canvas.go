// Package canvas holds the pixel buffer behind a drawable surface.
//
// A Canvas has exactly one writer, the goroutine handling the current
// stroke, which draws into a private working buffer. Publish freezes the
// working buffer into an immutable Snapshot that renderers read through
// Latest without locking. Previously drawn pixels are never moved: the
// buffer is textured onto the rotating geometry, so it stays valid in
// surface-local pixel space for its whole life.
package canvas

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/desksim/pkg/generic"
)

var (
	ErrInvalidResolution = errors.New("canvas: resolution must be positive")
	ErrSizeMismatch      = errors.New("canvas: image size does not match canvas")
)

// Snapshot is an immutable published state of a canvas. Rows are stored
// top-down in buffer order (row 0 first); a renderer that needs the
// opposite orientation flips at upload time.
type Snapshot struct {
	Version uint64
	Hash    uint64
	Size    int
	Pix     []byte // RGBA, 4*Size bytes per row
}

// Image wraps the snapshot pixels without copying. Callers must not modify it.
func (s *Snapshot) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    s.Pix,
		Stride: 4 * s.Size,
		Rect:   image.Rect(0, 0, s.Size, s.Size),
	}
}

// At returns the colour of pixel (col, row).
func (s *Snapshot) At(col, row int) color.NRGBA {
	i := 4 * (row*s.Size + col)
	return color.NRGBA{R: s.Pix[i], G: s.Pix[i+1], B: s.Pix[i+2], A: s.Pix[i+3]}
}

// encoderBuffers lets concurrent encoders share zlib state between calls.
type encoderBuffers struct {
	pool *generic.Pool[*png.EncoderBuffer]
}

func (b encoderBuffers) Get() *png.EncoderBuffer  { return b.pool.Get() }
func (b encoderBuffers) Put(buf *png.EncoderBuffer) { b.pool.Put(buf) }

var encoder = &png.Encoder{
	CompressionLevel: png.BestSpeed,
	BufferPool: encoderBuffers{pool: generic.NewPool(func() *png.EncoderBuffer {
		return new(png.EncoderBuffer)
	}, nil)},
}

// pngBuffers holds the scratch buffers PNG encodes into. A 512 px drawing
// is a few hundred KB, grown once and reused.
var pngBuffers = generic.NewPool(func() *bytes.Buffer {
	return new(bytes.Buffer)
}, (*bytes.Buffer).Reset)

// PNG encodes the snapshot.
func (s *Snapshot) PNG() ([]byte, error) {
	return generic.Borrow(pngBuffers, func(buf *bytes.Buffer) ([]byte, error) {
		if err := encoder.Encode(buf, s.Image()); err != nil {
			return nil, fmt.Errorf("canvas: encode png: %w", err)
		}
		return bytes.Clone(buf.Bytes()), nil
	})
}

// DataURL encodes the snapshot as a base64 PNG data URL, the format the
// renderer stores per-object drawings in.
func (s *Snapshot) DataURL() (string, error) {
	raw, err := s.PNG()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

type Canvas struct {
	size       int
	background color.NRGBA
	work       *image.NRGBA
	dirty      bool
	version    uint64
	latest     atomic.Pointer[Snapshot]
}

// New creates a size×size canvas filled with background and publishes it
// as version 1.
func New(size int, background color.NRGBA) (*Canvas, error) {
	if size <= 0 {
		return nil, ErrInvalidResolution
	}
	c := &Canvas{
		size:       size,
		background: background,
		work:       image.NewNRGBA(image.Rect(0, 0, size, size)),
	}
	c.fill(background)
	c.dirty = true
	c.Publish()
	return c, nil
}

func (c *Canvas) Size() int { return c.size }

func (c *Canvas) Background() color.NRGBA { return c.background }

// Latest returns the most recently published snapshot. Safe for concurrent use.
func (c *Canvas) Latest() *Snapshot {
	return c.latest.Load()
}

// Dirty reports whether the working buffer has changes that are not published yet.
func (c *Canvas) Dirty() bool { return c.dirty }

// Publish freezes the working buffer into a new snapshot if anything changed
// since the last publish and returns the snapshot now visible to readers.
func (c *Canvas) Publish() *Snapshot {
	if !c.dirty {
		return c.latest.Load()
	}
	pix := make([]byte, len(c.work.Pix))
	copy(pix, c.work.Pix)
	c.version++
	snap := &Snapshot{
		Version: c.version,
		Hash:    xxhash.Sum64(pix),
		Size:    c.size,
		Pix:     pix,
	}
	c.latest.Store(snap)
	c.dirty = false
	return snap
}

// Clear resets the working buffer to the background colour.
func (c *Canvas) Clear() {
	c.fill(c.background)
	c.dirty = true
}

// Load replaces the working buffer with img, which must be exactly size×size.
func (c *Canvas) Load(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != c.size || b.Dy() != c.size {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrSizeMismatch, b.Dx(), b.Dy(), c.size, c.size)
	}
	draw.Draw(c.work, c.work.Bounds(), img, b.Min, draw.Src)
	c.dirty = true
	return nil
}

// LoadPNG decodes a PNG (raw or as a data URL) into the working buffer.
func (c *Canvas) LoadPNG(data []byte) error {
	const prefix = "data:image/png;base64,"
	if bytes.HasPrefix(data, []byte(prefix)) {
		decoded, err := base64.StdEncoding.DecodeString(string(data[len(prefix):]))
		if err != nil {
			return fmt.Errorf("canvas: decode data url: %w", err)
		}
		data = decoded
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("canvas: decode png: %w", err)
	}
	return c.Load(img)
}

func (c *Canvas) set(col, row int, clr color.NRGBA) {
	if col < 0 || row < 0 || col >= c.size || row >= c.size {
		return
	}
	i := c.work.PixOffset(col, row)
	c.work.Pix[i] = clr.R
	c.work.Pix[i+1] = clr.G
	c.work.Pix[i+2] = clr.B
	c.work.Pix[i+3] = clr.A
	c.dirty = true
}

func (c *Canvas) fill(clr color.NRGBA) {
	draw.Draw(c.work, c.work.Bounds(), &image.Uniform{C: clr}, image.Point{}, draw.Src)
}
