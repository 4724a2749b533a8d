package purfectest

import (
	"strings"
	"sync"
)

// Screen is the decoded terminal state: a fixed-size cell grid, a cursor,
// and the graphics regions observed so far. It owns the decoder; Feed is
// the only mutation path. Feed must not be called concurrently, but the
// read accessors are safe alongside each other.
type Screen struct {
	mu sync.RWMutex

	cols int
	rows int
	grid [][]Cell

	cursorRow int
	cursorCol int
	savedRow  int
	savedCol  int

	// Current SGR attributes applied to printed cells
	curBold bool
	curFg   int
	curBg   int

	parser *Parser

	ratio PixelRatio

	sixelRegions  []Region
	kittyRegions  []Region
	iterm2Regions []Region

	// In-progress DCS capture (Sixel payload accumulation)
	dcsActive   bool
	dcsMode     byte
	dcsParams   []int
	dcsStartRow int
	dcsStartCol int
	dcsPayload  []byte
}

// NewScreen creates a blank screen of the given dimensions. Both axes must
// be positive.
func NewScreen(cols, rows int) (*Screen, error) {
	return NewScreenRatio(cols, rows, DefaultPixelRatio())
}

// NewScreenRatio creates a screen with an explicit pixel-per-cell ratio for
// graphics size conversion.
func NewScreenRatio(cols, rows int, ratio PixelRatio) (*Screen, error) {
	if cols <= 0 || rows <= 0 {
		return nil, &DimensionError{Cols: cols, Rows: rows}
	}
	s := &Screen{
		cols:   cols,
		rows:   rows,
		parser: NewParser(),
		ratio:  ratio,
		curFg:  DefaultColor,
		curBg:  DefaultColor,
	}
	s.grid = newGrid(cols, rows)
	return s, nil
}

func newGrid(cols, rows int) [][]Cell {
	grid := make([][]Cell, rows)
	for r := range grid {
		grid[r] = make([]Cell, cols)
		for c := range grid[r] {
			grid[r][c] = blankCell()
		}
	}
	return grid
}

// Feed decodes a chunk of raw terminal output into the screen. Chunks may
// split escape sequences at any byte offset; decoding state carries over
// between calls.
func (s *Screen) Feed(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parser.Feed(data, s.apply)
}

func (s *Screen) apply(ev Event) {
	switch ev.Kind {
	case EventPrint:
		s.writeChar(ev.Rune)
	case EventControl:
		s.handleControl(ev.Byte)
	case EventCSI:
		s.handleCSI(ev)
	case EventEsc:
		s.handleEsc(ev.Final)
	case EventOSC:
		s.handleOSC(ev)
	case EventDCSHook:
		s.dcsActive = true
		s.dcsMode = ev.Mode
		s.dcsParams = ev.Params
		s.dcsStartRow = s.cursorRow
		s.dcsStartCol = s.cursorCol
		s.dcsPayload = s.dcsPayload[:0]
	case EventDCSPut:
		if s.dcsActive {
			s.dcsPayload = append(s.dcsPayload, ev.Byte)
		}
	case EventDCSUnhook:
		if s.dcsActive {
			s.finishDCS()
			s.dcsActive = false
		}
	case EventAPC:
		s.handleAPC(ev.Payload)
	}
}

// finishDCS closes an accumulated device control string. Mode byte q is
// Sixel; everything else is ignored.
func (s *Screen) finishDCS() {
	if s.dcsMode != 'q' {
		return
	}
	region := parseSixel(s.dcsPayload, s.dcsStartRow, s.dcsStartCol, s.ratio)
	s.sixelRegions = append(s.sixelRegions, region)
}

func (s *Screen) handleAPC(payload []byte) {
	if region, ok := parseKitty(payload, s.cursorRow, s.cursorCol, s.ratio); ok {
		s.kittyRegions = append(s.kittyRegions, region)
	}
}

func (s *Screen) handleOSC(ev Event) {
	if ev.Cmd != 1337 {
		return
	}
	if region, ok := parseITerm2(ev.Payload, s.cursorRow, s.cursorCol, s.ratio); ok {
		s.iterm2Regions = append(s.iterm2Regions, region)
	}
}

// Size returns the grid dimensions as (cols, rows).
func (s *Screen) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols, s.rows
}

// CursorPosition returns the cursor as (row, col), 0-indexed.
func (s *Screen) CursorPosition() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursorRow, s.cursorCol
}

// CellAt returns the cell at (row, col), or false when out of bounds.
func (s *Screen) CellAt(row, col int) (Cell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return Cell{}, false
	}
	return s.grid[row][col], true
}

// Contents renders the grid as rows joined by newlines, with trailing
// blanks trimmed from each row.
func (s *Screen) Contents() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sb strings.Builder
	for r := 0; r < s.rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(s.renderRow(r))
	}
	return sb.String()
}

// RowContents renders a single row with trailing blanks trimmed. Out of
// range rows render empty.
func (s *Screen) RowContents(row int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if row < 0 || row >= s.rows {
		return ""
	}
	return s.renderRow(row)
}

func (s *Screen) renderRow(row int) string {
	var sb strings.Builder
	for c := 0; c < s.cols; c++ {
		sb.WriteRune(s.grid[row][c].Char)
	}
	return strings.TrimRight(sb.String(), " ")
}

// Contains reports whether text appears in the rendered screen contents,
// either within a single row or across the row-joined rendering.
func (s *Screen) Contains(text string) bool {
	return strings.Contains(s.Contents(), text)
}

// Resize replaces the grid with a blank one of the new dimensions and homes
// the cursor. Decoder state and graphics regions are preserved.
func (s *Screen) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return &DimensionError{Cols: cols, Rows: rows}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols = cols
	s.rows = rows
	s.grid = newGrid(cols, rows)
	s.cursorRow = 0
	s.cursorCol = 0
	return nil
}

// Reset restores the screen to its initial blank state, including decoder
// state and graphics regions.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = newGrid(s.cols, s.rows)
	s.cursorRow = 0
	s.cursorCol = 0
	s.savedRow = 0
	s.savedCol = 0
	s.curBold = false
	s.curFg = DefaultColor
	s.curBg = DefaultColor
	s.parser = NewParser()
	s.dcsActive = false
	s.dcsPayload = nil
	s.sixelRegions = nil
	s.kittyRegions = nil
	s.iterm2Regions = nil
}

// SixelRegions returns a copy of the Sixel regions decoded so far, in
// arrival order.
func (s *Screen) SixelRegions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRegions(s.sixelRegions)
}

// KittyRegions returns a copy of the Kitty regions decoded so far.
func (s *Screen) KittyRegions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRegions(s.kittyRegions)
}

// ITerm2Regions returns a copy of the iTerm2 regions decoded so far.
func (s *Screen) ITerm2Regions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRegions(s.iterm2Regions)
}

// ClearGraphics drops all tracked graphics regions. Erase-display control
// sequences do NOT clear region tracking; this is the only pruning path.
func (s *Screen) ClearGraphics() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sixelRegions = nil
	s.kittyRegions = nil
	s.iterm2Regions = nil
}

// Capture takes an immutable snapshot of all region lists for querying.
func (s *Screen) Capture() *Capture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Capture{
		regions: append(append(copyRegions(s.sixelRegions),
			s.kittyRegions...), s.iterm2Regions...),
	}
}

func copyRegions(src []Region) []Region {
	out := make([]Region, len(src))
	copy(out, src)
	return out
}
