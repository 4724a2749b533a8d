package purfectest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOf(regions ...Region) *Capture {
	return &Capture{regions: regions}
}

func sixelAt(row, col, cols, rows int) Region {
	return Region{Protocol: ProtocolSixel, Row: row, Col: col, Cols: cols, Rows: rows}
}

func TestRegionWithin(t *testing.T) {
	r := sixelAt(5, 10, 13, 9)

	assert.True(t, r.Within(Area{Row: 0, Col: 0, Width: 30, Height: 20}))
	// Exceeds both the right and bottom edges
	assert.False(t, r.Within(Area{Row: 0, Col: 0, Width: 15, Height: 10}))
	// Exact fit counts as within
	assert.True(t, r.Within(Area{Row: 5, Col: 10, Width: 13, Height: 9}))
}

func TestRegionOverlaps(t *testing.T) {
	r := sixelAt(5, 5, 4, 4)

	assert.True(t, r.Overlaps(Area{Row: 7, Col: 7, Width: 10, Height: 10}))
	// Touching edges do not overlap
	assert.False(t, r.Overlaps(Area{Row: 9, Col: 5, Width: 4, Height: 4}))
	assert.False(t, r.Overlaps(Area{Row: 0, Col: 0, Width: 5, Height: 5}))
}

func TestCaptureByProtocol(t *testing.T) {
	c := captureOf(
		sixelAt(0, 0, 2, 2),
		Region{Protocol: ProtocolKitty, Cols: 1, Rows: 1},
		sixelAt(3, 3, 1, 1),
	)

	assert.Len(t, c.ByProtocol(ProtocolSixel), 2)
	assert.Len(t, c.ByProtocol(ProtocolKitty), 1)
	assert.Empty(t, c.ByProtocol(ProtocolITerm2))
	assert.Equal(t, 2, c.CountByProtocol(ProtocolSixel))
	assert.Equal(t, 3, c.Count())
}

func TestCaptureAreaQueries(t *testing.T) {
	inside := sixelAt(1, 1, 2, 2)
	outside := sixelAt(20, 20, 5, 5)
	straddling := sixelAt(8, 8, 5, 5)
	c := captureOf(inside, outside, straddling)
	area := Area{Row: 0, Col: 0, Width: 10, Height: 10}

	in := c.InArea(area)
	require.Len(t, in, 1)
	assert.Equal(t, inside, in[0])

	out := c.OutsideArea(area)
	assert.Len(t, out, 2)

	over := c.Overlapping(area)
	assert.Len(t, over, 2)
}

func TestCaptureAt(t *testing.T) {
	c := captureOf(sixelAt(5, 5, 3, 3))

	assert.Len(t, c.At(6, 6), 1)
	assert.Empty(t, c.At(8, 8))
}

func TestCaptureTotalCoverage(t *testing.T) {
	c := captureOf(sixelAt(0, 0, 3, 2), sixelAt(10, 10, 4, 4))
	assert.Equal(t, 22, c.TotalCoverage())

	assert.Zero(t, captureOf().TotalCoverage())
}

func TestCaptureBoundingBox(t *testing.T) {
	c := captureOf(sixelAt(2, 3, 4, 2), sixelAt(8, 1, 2, 3))

	box, ok := c.BoundingBox()
	require.True(t, ok)
	assert.Equal(t, Area{Row: 2, Col: 1, Width: 6, Height: 9}, box)

	_, ok = captureOf().BoundingBox()
	assert.False(t, ok)
}

func TestCaptureDiffersFrom(t *testing.T) {
	empty := captureOf()
	one := captureOf(sixelAt(0, 0, 2, 2))

	assert.True(t, empty.DiffersFrom(one))
	assert.True(t, one.DiffersFrom(empty))
	assert.False(t, one.DiffersFrom(captureOf(sixelAt(0, 0, 2, 2))))
	assert.False(t, empty.DiffersFrom(captureOf()))

	moved := captureOf(sixelAt(0, 1, 2, 2))
	assert.True(t, one.DiffersFrom(moved))

	otherProtocol := captureOf(Region{Protocol: ProtocolKitty, Cols: 2, Rows: 2})
	assert.True(t, one.DiffersFrom(otherProtocol))
}

func TestCaptureAssertAllWithin(t *testing.T) {
	c := captureOf(sixelAt(1, 1, 2, 2))
	require.NoError(t, c.AssertAllWithin(Area{Row: 0, Col: 0, Width: 10, Height: 10}))

	err := c.AssertAllWithin(Area{Row: 0, Col: 0, Width: 2, Height: 2})
	var gErr *GraphicsValidationError
	require.ErrorAs(t, err, &gErr)
	assert.Contains(t, gErr.Message, "sixel")
}

func TestCaptureAssertProtocolExists(t *testing.T) {
	c := captureOf(sixelAt(0, 0, 1, 1))
	require.NoError(t, c.AssertProtocolExists(ProtocolSixel))

	err := c.AssertProtocolExists(ProtocolKitty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kitty")
}

func TestCaptureSnapshotIsImmutable(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	s.Feed([]byte("\x1bP0q\"1;1;8;6~\x1b\\"))

	before := s.Capture()
	s.Feed([]byte("\x1bP0q\"1;1;8;6~\x1b\\"))
	after := s.Capture()

	assert.Equal(t, 1, before.Count())
	assert.Equal(t, 2, after.Count())
	assert.True(t, before.DiffersFrom(after))
}
