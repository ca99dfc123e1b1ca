package canvas

import (
	"image/color"

	"github.com/zeusync/desksim/internal/core/surface"
)

// Brush describes how samples are stamped into the buffer. Radius 0 draws
// single pixels. An erasing brush paints the canvas background.
type Brush struct {
	Color  color.NRGBA
	Radius int
	Erase  bool
}

// DefaultBrush is a thin dark pen.
var DefaultBrush = Brush{Color: color.NRGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}, Radius: 1}

// DrawDot stamps the brush once at p.
func (c *Canvas) DrawDot(p surface.SurfacePixel, b Brush) {
	c.stamp(p.Col, p.Row, b, c.brushColor(b))
}

// DrawSegment stamps the brush along the straight pixel line from a to b,
// both endpoints included.
func (c *Canvas) DrawSegment(a, b surface.SurfacePixel, brush Brush) {
	clr := c.brushColor(brush)
	x0, y0, x1, y1 := a.Col, a.Row, b.Col, b.Row

	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		c.stamp(x0, y0, brush, clr)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) brushColor(b Brush) color.NRGBA {
	if b.Erase {
		return c.background
	}
	return b.Color
}

func (c *Canvas) stamp(col, row int, b Brush, clr color.NRGBA) {
	if b.Radius <= 0 {
		c.set(col, row, clr)
		return
	}
	r2 := b.Radius * b.Radius
	for dy := -b.Radius; dy <= b.Radius; dy++ {
		for dx := -b.Radius; dx <= b.Radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				c.set(col+dx, row+dy, clr)
			}
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
