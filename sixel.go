package purfectest

import (
	"bytes"
	"strconv"
)

// Sixel fallback pixel size, used when the payload carries no usable
// raster attributes.
const (
	sixelDefaultWidthPx  = 100
	sixelDefaultHeightPx = 100
	sixelMaxDimensionPx  = 10000
)

// parseSixel builds a graphics region from an accumulated Sixel DCS
// payload. The cursor position is the one captured when the DCS opened.
// Malformed raster attributes never fail the sequence; the defaults apply
// instead, because terminal streams are best-effort interpreted.
func parseSixel(payload []byte, row, col int, ratio PixelRatio) Region {
	width, height := sixelRasterSize(payload)
	data := make([]byte, len(payload))
	copy(data, payload)
	return Region{
		Protocol: ProtocolSixel,
		Row:      row,
		Col:      col,
		WidthPx:  width,
		HeightPx: height,
		Cols:     pixelsToCells(width, ratio.CellWidthPx),
		Rows:     pixelsToCells(height, ratio.CellHeightPx),
		Payload:  data,
	}
}

// sixelRasterSize extracts the pixel dimensions from a raster attribute
// prefix of the form `"Pan;Pad;Ph;Pv`: the third and fourth fields are
// width and height. Absent or malformed attributes fall back to the
// default size; each axis is clamped to (0, 10000].
func sixelRasterSize(payload []byte) (int, int) {
	width, height := sixelDefaultWidthPx, sixelDefaultHeightPx

	idx := bytes.IndexByte(payload, '"')
	if idx < 0 {
		return width, height
	}
	attrs := payload[idx+1:]
	// The attribute block ends at the first byte that is neither a digit
	// nor a semicolon.
	end := 0
	for end < len(attrs) && (attrs[end] == ';' || (attrs[end] >= '0' && attrs[end] <= '9')) {
		end++
	}
	fields := bytes.Split(attrs[:end], []byte{';'})
	if len(fields) < 4 {
		return width, height
	}

	if w, err := strconv.Atoi(string(fields[2])); err == nil {
		width = clampPixels(w)
	}
	if h, err := strconv.Atoi(string(fields[3])); err == nil {
		height = clampPixels(h)
	}
	return width, height
}

func clampPixels(px int) int {
	if px <= 0 {
		return sixelDefaultWidthPx
	}
	if px > sixelMaxDimensionPx {
		return sixelMaxDimensionPx
	}
	return px
}
