package purfectest

import (
	"bytes"
	"strconv"
	"strings"
)

// parseITerm2 builds a graphics region from an OSC 1337 payload of the
// form `File=<key=value;...>:<base64-data>`. The width and height values
// may be a bare integer (cells), `<n>px` (pixels), or `auto`. Auto and
// absent dimensions default to one cell; there is no image decoding to
// recover a natural size from.
func parseITerm2(payload []byte, row, col int, ratio PixelRatio) (Region, bool) {
	if !bytes.HasPrefix(payload, []byte("File=")) {
		return Region{}, false
	}
	rest := payload[len("File="):]

	params := rest
	var data []byte
	if sep := bytes.IndexByte(rest, ':'); sep >= 0 {
		params = rest[:sep]
		data = rest[sep+1:]
	}

	region := Region{
		Protocol: ProtocolITerm2,
		Row:      row,
		Col:      col,
		Cols:     1,
		Rows:     1,
	}
	for _, pair := range strings.Split(string(params), ";") {
		eq := strings.IndexByte(pair, '=')
		if eq <= 0 {
			continue
		}
		key, val := pair[:eq], pair[eq+1:]
		switch key {
		case "width":
			cells, px := parseITerm2Dimension(val, ratio.CellWidthPx)
			region.Cols = cells
			region.WidthPx = px
		case "height":
			cells, px := parseITerm2Dimension(val, ratio.CellHeightPx)
			region.Rows = cells
			region.HeightPx = px
		}
	}

	region.Payload = make([]byte, len(data))
	copy(region.Payload, data)
	return region, true
}

// parseITerm2Dimension interprets one width/height value, returning the
// cell extent and the pixel extent when one was given (zero otherwise).
func parseITerm2Dimension(val string, perCell int) (int, int) {
	if val == "" || val == "auto" {
		return 1, 0
	}
	if px, ok := strings.CutSuffix(val, "px"); ok {
		n, err := strconv.Atoi(px)
		if err != nil || n <= 0 {
			return 1, 0
		}
		return pixelsToCells(n, perCell), n
	}
	// Bare integer is already cell-valued; no pixel conversion applies.
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 1, 0
	}
	return n, 0
}
