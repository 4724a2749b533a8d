package purfectest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSixelWithRasterAttributes(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	// Position the cursor first; the region records where the sequence
	// started.
	s.Feed([]byte("\x1b[6;11H"))
	s.Feed([]byte("\x1bP1;1;100;50q\"1;1;100;50#0~\x1b\\"))

	regions := s.SixelRegions()
	require.Len(t, regions, 1)
	r := regions[0]
	assert.Equal(t, ProtocolSixel, r.Protocol)
	assert.Equal(t, 5, r.Row)
	assert.Equal(t, 10, r.Col)
	assert.Equal(t, 100, r.WidthPx)
	assert.Equal(t, 50, r.HeightPx)
	// ceil(100/8) and ceil(50/6) with the default ratio
	assert.Equal(t, 13, r.Cols)
	assert.Equal(t, 9, r.Rows)
}

func TestSixelMissingRasterAttributes(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	s.Feed([]byte("\x1bP0q#0!100~-~~\x1b\\"))

	regions := s.SixelRegions()
	require.Len(t, regions, 1)
	r := regions[0]
	assert.Equal(t, 100, r.WidthPx)
	assert.Equal(t, 100, r.HeightPx)
	assert.GreaterOrEqual(t, r.Cols, 1)
	assert.GreaterOrEqual(t, r.Rows, 1)
}

func TestSixelMalformedRasterAttributes(t *testing.T) {
	// Fewer than four fields falls back to the defaults
	s := newTestScreen(t, 80, 24)
	s.Feed([]byte("\x1bP0q\"1;1~~\x1b\\"))

	regions := s.SixelRegions()
	require.Len(t, regions, 1)
	assert.Equal(t, 100, regions[0].WidthPx)
	assert.Equal(t, 100, regions[0].HeightPx)
}

func TestSixelDimensionClamping(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	s.Feed([]byte("\x1bP0q\"1;1;99999;0~~\x1b\\"))

	regions := s.SixelRegions()
	require.Len(t, regions, 1)
	assert.Equal(t, 10000, regions[0].WidthPx)
	// Zero height falls back rather than propagating zero cells
	assert.Equal(t, 100, regions[0].HeightPx)
	assert.GreaterOrEqual(t, regions[0].Rows, 1)
}

func TestSixelPayloadPreserved(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	s.Feed([]byte("\x1bP0q\"1;1;8;6#0~~\x1b\\"))

	regions := s.SixelRegions()
	require.Len(t, regions, 1)
	assert.Equal(t, `"1;1;8;6#0~~`, string(regions[0].Payload))
	assert.Equal(t, 1, regions[0].Cols)
	assert.Equal(t, 1, regions[0].Rows)
}

func TestSixelMultipleRegions(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	s.Feed([]byte("\x1bP0q\"1;1;16;6~\x1b\\"))
	s.Feed([]byte("\x1b[10;1H"))
	s.Feed([]byte("\x1bP0q\"1;1;8;12~\x1b\\"))

	regions := s.SixelRegions()
	require.Len(t, regions, 2)
	assert.Equal(t, 0, regions[0].Row)
	assert.Equal(t, 9, regions[1].Row)
	assert.Equal(t, 2, regions[0].Cols)
	assert.Equal(t, 2, regions[1].Rows)
}

func TestSixelNonQDCSIgnored(t *testing.T) {
	s := newTestScreen(t, 80, 24)
	// DECRQSS and friends use other mode bytes; they are not graphics
	s.Feed([]byte("\x1bP1$r0m\x1b\\"))

	assert.Empty(t, s.SixelRegions())
}
