package geomag

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

// EGM96Scale is the number of grid posts per degree of the 15 arc-minute
// EGM96 undulation grid.
const EGM96Scale = 4

// Geoid is a global grid of geoid undulations in meters. Rows run from
// 90N to 90S and columns from 0 to 360 east, inclusive at both ends.
type Geoid struct {
	scale      float64
	cols, rows int
	heights    []float64
}

// NewGeoid wraps a grid with scale posts per degree. values must hold
// (360*scale+1)*(180*scale+1) heights in row-major order.
func NewGeoid(scale int, values []float64) (*Geoid, error) {
	if scale < 1 {
		return nil, fmt.Errorf("invalid geoid scale %d", scale)
	}
	cols := 360*scale + 1
	rows := 180*scale + 1
	if len(values) != cols*rows {
		return nil, fmt.Errorf("geoid grid has %d values, want %d (%dx%d)", len(values), cols*rows, cols, rows)
	}
	return &Geoid{
		scale:   float64(scale),
		cols:    cols,
		rows:    rows,
		heights: values,
	}, nil
}

// LoadGeoid reads a whitespace separated undulation grid with scale posts
// per degree.
func LoadGeoid(r io.Reader, scale int) (*Geoid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	values := make([]float64, 0, (360*scale+1)*(180*scale+1))
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("geoid value %d: %w", len(values)+1, err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading geoid grid: %w", err)
	}

	return NewGeoid(scale, values)
}

// Height returns the bilinearly interpolated undulation in meters at
// geodetic latitude/longitude in degrees.
func (g *Geoid) Height(latDeg, lonDeg float64) float64 {
	lon := math.Mod(lonDeg, 360)
	if lon < 0 {
		lon += 360
	}
	lat := math.Max(-90, math.Min(90, latDeg))

	offsetX := lon * g.scale
	offsetY := (90 - lat) * g.scale

	postX := int(math.Floor(offsetX))
	if postX+1 >= g.cols {
		postX = g.cols - 2
	}
	postY := int(math.Floor(offsetY))
	if postY+1 >= g.rows {
		postY = g.rows - 2
	}

	top := postY * g.cols
	bottom := (postY + 1) * g.cols
	nw := g.heights[top+postX]
	ne := g.heights[top+postX+1]
	sw := g.heights[bottom+postX]
	se := g.heights[bottom+postX+1]

	dx := offsetX - float64(postX)
	dy := offsetY - float64(postY)

	upper := nw + dx*(ne-nw)
	lower := sw + dx*(se-sw)
	return upper + dy*(lower-upper)
}
