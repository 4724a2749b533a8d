package purfectest

import "fmt"

// Protocol identifies a terminal graphics encoding.
type Protocol int

const (
	ProtocolSixel Protocol = iota
	ProtocolKitty
	ProtocolITerm2
)

func (p Protocol) String() string {
	switch p {
	case ProtocolSixel:
		return "sixel"
	case ProtocolKitty:
		return "kitty"
	case ProtocolITerm2:
		return "iterm2"
	default:
		return fmt.Sprintf("protocol(%d)", int(p))
	}
}

// PixelRatio is the assumed pixel size of one terminal cell, used to
// convert pixel-valued image dimensions into cell counts.
type PixelRatio struct {
	CellWidthPx  int
	CellHeightPx int
}

// DefaultPixelRatio returns the standard 8x6 pixels-per-cell assumption.
func DefaultPixelRatio() PixelRatio {
	return PixelRatio{CellWidthPx: 8, CellHeightPx: 6}
}

// pixelsToCells converts a pixel extent to cells, rounding up and never
// returning less than one cell.
func pixelsToCells(px, perCell int) int {
	if perCell <= 0 {
		perCell = 1
	}
	cells := (px + perCell - 1) / perCell
	if cells < 1 {
		cells = 1
	}
	return cells
}

// Region is one decoded graphics image placement. Position is the cursor
// position captured before any byte of the sequence was consumed. Payload
// is the opaque image data; it is never decoded.
type Region struct {
	Protocol Protocol
	Row      int
	Col      int
	WidthPx  int
	HeightPx int
	Cols     int // width in cells, always >= 1
	Rows     int // height in cells, always >= 1
	Payload  []byte
}

func (r Region) String() string {
	return fmt.Sprintf("%s region at (%d,%d) %dx%d px %dx%d cells",
		r.Protocol, r.Row, r.Col, r.WidthPx, r.HeightPx, r.Cols, r.Rows)
}

// Area is a rectangular span of cells: Width columns by Height rows with
// the top-left corner at (Row, Col).
type Area struct {
	Row    int
	Col    int
	Width  int
	Height int
}

func (a Area) String() string {
	return fmt.Sprintf("area (%d,%d) %dx%d", a.Row, a.Col, a.Width, a.Height)
}

// Within reports whether the region lies entirely inside the area.
func (r Region) Within(a Area) bool {
	return r.Row >= a.Row && r.Col >= a.Col &&
		r.Row+r.Rows <= a.Row+a.Height &&
		r.Col+r.Cols <= a.Col+a.Width
}

// Overlaps reports whether the region and area share at least one cell.
func (r Region) Overlaps(a Area) bool {
	return !(r.Row >= a.Row+a.Height ||
		r.Row+r.Rows <= a.Row ||
		r.Col >= a.Col+a.Width ||
		r.Col+r.Cols <= a.Col)
}

// Capture is an immutable snapshot of a screen's graphics regions, in
// decode order with Sixel first, then Kitty, then iTerm2.
type Capture struct {
	regions []Region
}

// Regions returns all regions in the capture.
func (c *Capture) Regions() []Region {
	return copyRegions(c.regions)
}

// Count returns the total number of regions.
func (c *Capture) Count() int {
	return len(c.regions)
}

// ByProtocol returns the regions decoded from the given protocol.
func (c *Capture) ByProtocol(p Protocol) []Region {
	var out []Region
	for _, r := range c.regions {
		if r.Protocol == p {
			out = append(out, r)
		}
	}
	return out
}

// CountByProtocol returns the number of regions for one protocol.
func (c *Capture) CountByProtocol(p Protocol) int {
	n := 0
	for _, r := range c.regions {
		if r.Protocol == p {
			n++
		}
	}
	return n
}

// InArea returns regions lying entirely within the area.
func (c *Capture) InArea(a Area) []Region {
	var out []Region
	for _, r := range c.regions {
		if r.Within(a) {
			out = append(out, r)
		}
	}
	return out
}

// OutsideArea returns regions not entirely within the area.
func (c *Capture) OutsideArea(a Area) []Region {
	var out []Region
	for _, r := range c.regions {
		if !r.Within(a) {
			out = append(out, r)
		}
	}
	return out
}

// Overlapping returns regions sharing at least one cell with the area.
func (c *Capture) Overlapping(a Area) []Region {
	var out []Region
	for _, r := range c.regions {
		if r.Overlaps(a) {
			out = append(out, r)
		}
	}
	return out
}

// At returns the regions covering the single cell at (row, col).
func (c *Capture) At(row, col int) []Region {
	return c.Overlapping(Area{Row: row, Col: col, Width: 1, Height: 1})
}

// TotalCoverage returns the summed cell area of all regions. Overlapping
// regions are counted once each, not deduplicated.
func (c *Capture) TotalCoverage() int {
	total := 0
	for _, r := range c.regions {
		total += r.Cols * r.Rows
	}
	return total
}

// BoundingBox returns the minimal area enclosing every region, or false
// when the capture is empty.
func (c *Capture) BoundingBox() (Area, bool) {
	if len(c.regions) == 0 {
		return Area{}, false
	}
	minRow, minCol := c.regions[0].Row, c.regions[0].Col
	maxRow, maxCol := minRow+c.regions[0].Rows, minCol+c.regions[0].Cols
	for _, r := range c.regions[1:] {
		if r.Row < minRow {
			minRow = r.Row
		}
		if r.Col < minCol {
			minCol = r.Col
		}
		if r.Row+r.Rows > maxRow {
			maxRow = r.Row + r.Rows
		}
		if r.Col+r.Cols > maxCol {
			maxCol = r.Col + r.Cols
		}
	}
	return Area{
		Row:    minRow,
		Col:    minCol,
		Width:  maxCol - minCol,
		Height: maxRow - minRow,
	}, true
}

// DiffersFrom reports whether the two captures' region sets are unequal in
// count, protocol, position, or size. Payload bytes are not compared.
func (c *Capture) DiffersFrom(other *Capture) bool {
	if len(c.regions) != len(other.regions) {
		return true
	}
	for i, r := range c.regions {
		o := other.regions[i]
		if r.Protocol != o.Protocol || r.Row != o.Row || r.Col != o.Col ||
			r.Cols != o.Cols || r.Rows != o.Rows {
			return true
		}
	}
	return false
}

// AssertAllWithin fails with a GraphicsValidationError naming the first
// region not entirely inside the area.
func (c *Capture) AssertAllWithin(a Area) error {
	for i, r := range c.regions {
		if !r.Within(a) {
			return &GraphicsValidationError{
				Message: fmt.Sprintf("region %d (%s) is not within %s", i, r, a),
			}
		}
	}
	return nil
}

// AssertProtocolExists fails when no region of the protocol was decoded.
func (c *Capture) AssertProtocolExists(p Protocol) error {
	if c.CountByProtocol(p) == 0 {
		return &GraphicsValidationError{
			Message: fmt.Sprintf("no %s regions present (%d regions total)", p, len(c.regions)),
		}
	}
	return nil
}
