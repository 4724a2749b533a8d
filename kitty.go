package purfectest

import (
	"bytes"
	"strconv"
)

// parseKitty builds a graphics region from a Kitty graphics APC payload:
// `G<key=value,...>;<base64-data>`. Recognized keys are w and h (pixel
// size) and c and r (cell size directly, bypassing pixel conversion).
// Payloads that are not Kitty graphics commands return false.
func parseKitty(payload []byte, row, col int, ratio PixelRatio) (Region, bool) {
	if len(payload) == 0 || payload[0] != 'G' {
		return Region{}, false
	}
	rest := payload[1:]

	control := rest
	var data []byte
	if sep := bytes.IndexByte(rest, ';'); sep >= 0 {
		control = rest[:sep]
		data = rest[sep+1:]
	}

	var widthPx, heightPx, cellCols, cellRows int
	for _, pair := range bytes.Split(control, []byte{','}) {
		eq := bytes.IndexByte(pair, '=')
		if eq <= 0 {
			continue
		}
		val, err := strconv.Atoi(string(pair[eq+1:]))
		if err != nil {
			continue
		}
		switch string(pair[:eq]) {
		case "w":
			widthPx = val
		case "h":
			heightPx = val
		case "c":
			cellCols = val
		case "r":
			cellRows = val
		}
	}

	cols := cellCols
	if cols <= 0 {
		cols = pixelsToCells(widthPx, ratio.CellWidthPx)
	}
	rows := cellRows
	if rows <= 0 {
		rows = pixelsToCells(heightPx, ratio.CellHeightPx)
	}

	raw := make([]byte, len(data))
	copy(raw, data)
	return Region{
		Protocol: ProtocolKitty,
		Row:      row,
		Col:      col,
		WidthPx:  widthPx,
		HeightPx: heightPx,
		Cols:     cols,
		Rows:     rows,
		Payload:  raw,
	}, true
}
