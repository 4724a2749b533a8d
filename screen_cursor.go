package purfectest

// getParam returns the CSI parameter at idx, or def when absent or zero.
func getParam(params []int, idx, def int) int {
	if idx >= len(params) || params[idx] == 0 {
		return def
	}
	return params[idx]
}

func (s *Screen) handleCSI(ev Event) {
	if ev.Private == '?' {
		// DEC private modes (cursor visibility, alt screen, ...) do not
		// affect the cell grid; ignore them.
		return
	}

	switch ev.Final {
	case 'A': // CUU - Cursor Up
		s.moveCursor(-getParam(ev.Params, 0, 1), 0)
	case 'B': // CUD - Cursor Down
		s.moveCursor(getParam(ev.Params, 0, 1), 0)
	case 'C': // CUF - Cursor Forward
		s.moveCursor(0, getParam(ev.Params, 0, 1))
	case 'D': // CUB - Cursor Back
		s.moveCursor(0, -getParam(ev.Params, 0, 1))
	case 'E': // CNL - Cursor Next Line
		s.moveCursor(getParam(ev.Params, 0, 1), 0)
		s.cursorCol = 0
	case 'F': // CPL - Cursor Previous Line
		s.moveCursor(-getParam(ev.Params, 0, 1), 0)
		s.cursorCol = 0
	case 'G': // CHA - Cursor Horizontal Absolute
		s.setCursor(s.cursorRow, getParam(ev.Params, 0, 1)-1)
	case 'H', 'f': // CUP / HVP - Cursor Position (1-indexed)
		s.setCursor(getParam(ev.Params, 0, 1)-1, getParam(ev.Params, 1, 1)-1)
	case 'd': // VPA - Vertical Position Absolute
		s.setCursor(getParam(ev.Params, 0, 1)-1, s.cursorCol)
	case 'J': // ED - Erase in Display
		s.eraseDisplay(paramOrZero(ev.Params, 0))
	case 'K': // EL - Erase in Line
		s.eraseLine(paramOrZero(ev.Params, 0))
	case 'm': // SGR - Select Graphic Rendition
		s.handleSGR(ev.Params)
	case 's': // DECSC variant - Save Cursor
		s.savedRow = s.cursorRow
		s.savedCol = s.cursorCol
	case 'u': // DECRC variant - Restore Cursor
		s.setCursor(s.savedRow, s.savedCol)
	}
}

func paramOrZero(params []int, idx int) int {
	if idx >= len(params) {
		return 0
	}
	return params[idx]
}

// moveCursor shifts the cursor by a delta, clamping to grid bounds.
func (s *Screen) moveCursor(dRow, dCol int) {
	s.setCursor(s.cursorRow+dRow, s.cursorCol+dCol)
}

// setCursor places the cursor at an absolute position, clamping to grid
// bounds.
func (s *Screen) setCursor(row, col int) {
	if row < 0 {
		row = 0
	}
	if row >= s.rows {
		row = s.rows - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= s.cols {
		col = s.cols - 1
	}
	s.cursorRow = row
	s.cursorCol = col
}

func (s *Screen) handleSGR(params []int) {
	if len(params) == 0 {
		params = []int{0}
	}
	for _, p := range params {
		switch {
		case p == 0: // Reset
			s.curBold = false
			s.curFg = DefaultColor
			s.curBg = DefaultColor
		case p == 1:
			s.curBold = true
		case p == 22:
			s.curBold = false
		case p >= 30 && p <= 37:
			s.curFg = p - 30
		case p == 39:
			s.curFg = DefaultColor
		case p >= 40 && p <= 47:
			s.curBg = p - 40
		case p == 49:
			s.curBg = DefaultColor
		case p >= 90 && p <= 97: // Bright foreground
			s.curFg = p - 90 + 8
		case p >= 100 && p <= 107: // Bright background
			s.curBg = p - 100 + 8
		}
	}
}

func (s *Screen) handleEsc(final byte) {
	switch final {
	case '7': // DECSC - Save Cursor
		s.savedRow = s.cursorRow
		s.savedCol = s.cursorCol
	case '8': // DECRC - Restore Cursor
		s.setCursor(s.savedRow, s.savedCol)
	case 'c': // RIS - Reset to Initial State
		s.grid = newGrid(s.cols, s.rows)
		s.cursorRow = 0
		s.cursorCol = 0
		s.curBold = false
		s.curFg = DefaultColor
		s.curBg = DefaultColor
	case 'D': // IND - Index
		if s.cursorRow < s.rows-1 {
			s.cursorRow++
		}
	case 'E': // NEL - Next Line
		s.cursorCol = 0
		if s.cursorRow < s.rows-1 {
			s.cursorRow++
		}
	case 'M': // RI - Reverse Index
		if s.cursorRow > 0 {
			s.cursorRow--
		}
	}
}
