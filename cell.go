package purfectest

// DefaultColor marks a cell attribute that has not been set by an SGR
// sequence.
const DefaultColor = -1

// Cell represents a single character cell in the decoded screen grid.
//
// Attribute tracking is deliberately minimal: bold plus the 16 indexed ANSI
// colors. That is enough to assert on highlighted regions in tests without
// modeling full SGR rendition.
type Cell struct {
	Char rune
	Bold bool
	Fg   int // ANSI color index 0-15, or DefaultColor
	Bg   int // ANSI color index 0-15, or DefaultColor
}

func blankCell() Cell {
	return Cell{Char: ' ', Fg: DefaultColor, Bg: DefaultColor}
}
