package purfectest

import (
	"github.com/mattn/go-runewidth"
)

// writeChar places a printable character at the cursor and advances it,
// wrapping to the next row at the right edge and clamping at the bottom
// row. No scrollback is modeled.
func (s *Screen) writeChar(ch rune) {
	w := runewidth.RuneWidth(ch)
	if w == 0 {
		// Combining or zero-width character; drop it rather than
		// corrupt the grid.
		return
	}

	if s.cursorCol+w > s.cols {
		s.cursorCol = 0
		if s.cursorRow < s.rows-1 {
			s.cursorRow++
		}
	}

	s.grid[s.cursorRow][s.cursorCol] = Cell{
		Char: ch,
		Bold: s.curBold,
		Fg:   s.curFg,
		Bg:   s.curBg,
	}
	if w == 2 && s.cursorCol+1 < s.cols {
		// Wide character occupies two columns; blank the spill cell
		s.grid[s.cursorRow][s.cursorCol+1] = blankCell()
	}

	s.cursorCol += w
	if s.cursorCol >= s.cols {
		s.cursorCol = 0
		if s.cursorRow < s.rows-1 {
			s.cursorRow++
		}
	}
}

func (s *Screen) handleControl(b byte) {
	switch b {
	case '\r': // CR
		s.cursorCol = 0
	case '\n': // LF
		if s.cursorRow < s.rows-1 {
			s.cursorRow++
		}
	case '\b': // BS
		if s.cursorCol > 0 {
			s.cursorCol--
		}
	case '\t': // HT - advance to next 8-column tab stop
		s.cursorCol = (s.cursorCol/8 + 1) * 8
		if s.cursorCol >= s.cols {
			s.cursorCol = s.cols - 1
		}
	case 0x07: // BEL - ignore
	case 0x0B, 0x0C: // VT, FF - treat as LF
		if s.cursorRow < s.rows-1 {
			s.cursorRow++
		}
	}
}

// eraseDisplay implements ED (CSI n J). Graphics region tracking is not
// touched; see ClearGraphics.
func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0: // Cursor to end of screen
		s.eraseLineRange(s.cursorRow, s.cursorCol, s.cols)
		for r := s.cursorRow + 1; r < s.rows; r++ {
			s.eraseLineRange(r, 0, s.cols)
		}
	case 1: // Start of screen to cursor
		for r := 0; r < s.cursorRow; r++ {
			s.eraseLineRange(r, 0, s.cols)
		}
		s.eraseLineRange(s.cursorRow, 0, s.cursorCol+1)
	case 2, 3: // Entire screen
		for r := 0; r < s.rows; r++ {
			s.eraseLineRange(r, 0, s.cols)
		}
	}
}

// eraseLine implements EL (CSI n K).
func (s *Screen) eraseLine(mode int) {
	switch mode {
	case 0: // Cursor to end of line
		s.eraseLineRange(s.cursorRow, s.cursorCol, s.cols)
	case 1: // Start of line to cursor
		s.eraseLineRange(s.cursorRow, 0, s.cursorCol+1)
	case 2: // Entire line
		s.eraseLineRange(s.cursorRow, 0, s.cols)
	}
}

func (s *Screen) eraseLineRange(row, from, to int) {
	if row < 0 || row >= s.rows {
		return
	}
	if from < 0 {
		from = 0
	}
	if to > s.cols {
		to = s.cols
	}
	for c := from; c < to; c++ {
		s.grid[row][c] = blankCell()
	}
}
