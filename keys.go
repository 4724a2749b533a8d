package purfectest

import "fmt"

// Key identifies a special key for input encoding. Printable text goes
// through SendText instead.
type Key int

const (
	KeyEnter Key = iota
	KeyTab
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keySequences = map[Key]string{
	KeyEnter:     "\n",
	KeyTab:       "\t",
	KeyEscape:    "\x1b",
	KeyBackspace: "\x7f",
	KeyDelete:    "\x1b[3~",
	KeyInsert:    "\x1b[2~",
	KeyUp:        "\x1b[A",
	KeyDown:      "\x1b[B",
	KeyRight:     "\x1b[C",
	KeyLeft:      "\x1b[D",
	KeyHome:      "\x1b[H",
	KeyEnd:       "\x1b[F",
	KeyPageUp:    "\x1b[5~",
	KeyPageDown:  "\x1b[6~",
	KeyF1:        "\x1bOP",
	KeyF2:        "\x1bOQ",
	KeyF3:        "\x1bOR",
	KeyF4:        "\x1bOS",
	KeyF5:        "\x1b[15~",
	KeyF6:        "\x1b[17~",
	KeyF7:        "\x1b[18~",
	KeyF8:        "\x1b[19~",
	KeyF9:        "\x1b[20~",
	KeyF10:       "\x1b[21~",
	KeyF11:       "\x1b[23~",
	KeyF12:       "\x1b[24~",
}

// EncodeKey returns the byte sequence a terminal sends for a special key.
func EncodeKey(k Key) []byte {
	if seq, ok := keySequences[k]; ok {
		return []byte(seq)
	}
	return nil
}

// EncodeCtrl returns the control-character encoding of Ctrl plus a letter
// (c in a-z or A-Z). Other runes encode as themselves.
func EncodeCtrl(c rune) []byte {
	if c >= 'a' && c <= 'z' {
		return []byte{byte(c) - 'a' + 1}
	}
	if c >= 'A' && c <= 'Z' {
		return []byte{byte(c) - 'A' + 1}
	}
	return []byte(string(c))
}

// EncodeAlt returns the ESC-prefixed encoding of Alt plus a character.
func EncodeAlt(c rune) []byte {
	return append([]byte{0x1b}, []byte(string(c))...)
}

// MouseButton identifies a mouse event for SGR mouse reporting.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
	MouseScrollUp
	MouseScrollDown
)

func (b MouseButton) code() int {
	switch b {
	case MouseLeft:
		return 0
	case MouseMiddle:
		return 1
	case MouseRight:
		return 2
	case MouseScrollUp:
		return 64
	case MouseScrollDown:
		return 65
	default:
		return 0
	}
}

// EncodeMousePress returns the SGR mouse press report for a button at the
// given 0-indexed cell. SGR reports are 1-indexed on the wire.
func EncodeMousePress(b MouseButton, row, col int) []byte {
	return []byte(fmt.Sprintf("\x1b[<%d;%d;%dM", b.code(), col+1, row+1))
}

// EncodeMouseRelease returns the SGR mouse release report. Scroll events
// have no release form; callers send only the press.
func EncodeMouseRelease(b MouseButton, row, col int) []byte {
	return []byte(fmt.Sprintf("\x1b[<%d;%d;%dm", b.code(), col+1, row+1))
}
