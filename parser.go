package purfectest

import (
	"strconv"
	"strings"
)

// Parser states
type parserState int

const (
	stateGround     parserState = iota
	stateEscape                 // After ESC
	stateCSI                    // After ESC [
	stateCSIParam               // Reading CSI parameters
	stateOSC                    // After ESC ] (reading command number)
	stateOSCString              // Reading OSC string payload
	stateOSCEscape              // ESC seen inside an OSC string (possible ST)
	stateDCSParam               // After ESC P (reading params up to the mode byte)
	stateDCSPass                // DCS pass-through payload
	stateDCSEscape              // ESC seen inside DCS payload (possible ST)
	stateAPC                    // After ESC _ (reading payload)
	stateAPCEscape              // ESC seen inside APC payload (possible ST)
	stateCharset                // After ESC ( or ESC )
)

// EventKind tags a decoder dispatch event.
type EventKind int

const (
	// EventPrint carries a printable rune for the current cursor cell.
	EventPrint EventKind = iota
	// EventControl carries a C0 control byte (CR, LF, BS, TAB, BEL, ...).
	EventControl
	// EventCSI is a complete control sequence (ESC [ params final).
	EventCSI
	// EventEsc is a plain two-byte escape (ESC final).
	EventEsc
	// EventOSC is a complete operating system command, terminated by BEL
	// or ST. Cmd holds the numeric command, Payload the text after the
	// first semicolon.
	EventOSC
	// EventDCSHook marks entry into a device control string. Mode holds
	// the final byte selecting the sub-protocol (q for Sixel), Params the
	// numeric parameters before it.
	EventDCSHook
	// EventDCSPut carries one pass-through payload byte of an open DCS.
	EventDCSPut
	// EventDCSUnhook marks DCS termination (ST).
	EventDCSUnhook
	// EventAPC is a complete application program command payload.
	EventAPC
)

// Event is the tagged dispatch record produced by the decoder. Exactly the
// fields relevant to its Kind are populated.
type Event struct {
	Kind    EventKind
	Rune    rune   // EventPrint
	Byte    byte   // EventControl, EventDCSPut
	Params  []int  // EventCSI, EventDCSHook
	Private byte   // EventCSI: leading ? > ! <
	Final   byte   // EventCSI, EventEsc
	Mode    byte   // EventDCSHook
	Cmd     int    // EventOSC
	Payload []byte // EventOSC, EventAPC
}

// Parser is an incremental escape-sequence decoder. All in-progress sequence
// state lives in struct fields, never on the stack, so a stream may be fed
// in arbitrarily split chunks: Feed(a) then Feed(b) is equivalent to
// Feed(a+b) for every split point, including mid-DCS-payload and
// mid-UTF-8-rune.
type Parser struct {
	state parserState

	// CSI sequence accumulator
	csiParams    []int
	csiPrivate   byte
	csiIntermed  byte
	csiBuf       strings.Builder
	csiParamSeen bool

	// OSC accumulator
	oscCmd int
	oscBuf []byte

	// DCS accumulator (params only; payload bytes are dispatched as
	// EventDCSPut without buffering here)
	dcsParams []int
	dcsBuf    strings.Builder

	// APC accumulator
	apcBuf []byte

	// UTF-8 multi-byte handling
	utf8Buf  []byte
	utf8Need int
}

// NewParser creates a decoder in the ground state.
func NewParser() *Parser {
	return &Parser{
		csiParams: make([]int, 0, 16),
		dcsParams: make([]int, 0, 8),
	}
}

// Feed processes a chunk of raw terminal output, invoking emit for each
// dispatch event in order. The chunk may end anywhere, including inside an
// escape sequence; decoding resumes on the next call.
func (p *Parser) Feed(data []byte, emit func(Event)) {
	for _, b := range data {
		p.processByte(b, emit)
	}
}

func (p *Parser) processByte(b byte, emit func(Event)) {
	// Handle UTF-8 continuation bytes
	if p.utf8Need > 0 {
		if b&0xC0 == 0x80 {
			p.utf8Buf = append(p.utf8Buf, b)
			p.utf8Need--
			if p.utf8Need == 0 {
				if p.state == stateGround {
					emit(Event{Kind: EventPrint, Rune: decodeUTF8(p.utf8Buf)})
				}
				p.utf8Buf = p.utf8Buf[:0]
			}
			return
		}
		// Invalid UTF-8, reset and reprocess
		p.utf8Buf = p.utf8Buf[:0]
		p.utf8Need = 0
	}

	// UTF-8 start bytes are only meaningful as text, i.e. in ground state
	if p.state == stateGround {
		switch {
		case b&0xE0 == 0xC0:
			p.utf8Buf = append(p.utf8Buf[:0], b)
			p.utf8Need = 1
			return
		case b&0xF0 == 0xE0:
			p.utf8Buf = append(p.utf8Buf[:0], b)
			p.utf8Need = 2
			return
		case b&0xF8 == 0xF0:
			p.utf8Buf = append(p.utf8Buf[:0], b)
			p.utf8Need = 3
			return
		}
	}

	switch p.state {
	case stateGround:
		p.handleGround(b, emit)
	case stateEscape:
		p.handleEscape(b, emit)
	case stateCSI, stateCSIParam:
		p.handleCSI(b, emit)
	case stateOSC:
		p.handleOSC(b)
	case stateOSCString:
		p.handleOSCString(b, emit)
	case stateOSCEscape:
		p.dispatchOSC(emit)
		p.state = stateGround
		if b != '\\' {
			p.state = stateEscape
			p.handleEscape(b, emit)
		}
	case stateDCSParam:
		p.handleDCSParam(b, emit)
	case stateDCSPass:
		if b == 0x1B {
			p.state = stateDCSEscape
		} else {
			emit(Event{Kind: EventDCSPut, Byte: b})
		}
	case stateDCSEscape:
		emit(Event{Kind: EventDCSUnhook})
		p.state = stateGround
		if b != '\\' {
			p.state = stateEscape
			p.handleEscape(b, emit)
		}
	case stateAPC:
		if b == 0x1B {
			p.state = stateAPCEscape
		} else if b == 0x07 {
			// Some emitters terminate APC with BEL; accept it.
			p.dispatchAPC(emit)
			p.state = stateGround
		} else {
			p.apcBuf = append(p.apcBuf, b)
		}
	case stateAPCEscape:
		p.dispatchAPC(emit)
		p.state = stateGround
		if b != '\\' {
			p.state = stateEscape
			p.handleEscape(b, emit)
		}
	case stateCharset:
		// Consume one designation character and return to ground
		p.state = stateGround
	}
}

func decodeUTF8(buf []byte) rune {
	switch len(buf) {
	case 2:
		return rune(buf[0]&0x1F)<<6 | rune(buf[1]&0x3F)
	case 3:
		return rune(buf[0]&0x0F)<<12 | rune(buf[1]&0x3F)<<6 | rune(buf[2]&0x3F)
	case 4:
		return rune(buf[0]&0x07)<<18 | rune(buf[1]&0x3F)<<12 | rune(buf[2]&0x3F)<<6 | rune(buf[3]&0x3F)
	default:
		return 0xFFFD
	}
}

func (p *Parser) handleGround(b byte, emit func(Event)) {
	switch {
	case b == 0x1B:
		p.state = stateEscape
	case b == 0x00:
		// NUL - ignore
	case b < 0x20 || b == 0x7F:
		emit(Event{Kind: EventControl, Byte: b})
	default:
		// Printable ASCII
		emit(Event{Kind: EventPrint, Rune: rune(b)})
	}
}

func (p *Parser) handleEscape(b byte, emit func(Event)) {
	switch b {
	case '[': // CSI - Control Sequence Introducer
		p.state = stateCSI
		p.csiParams = p.csiParams[:0]
		p.csiPrivate = 0
		p.csiIntermed = 0
		p.csiBuf.Reset()
		p.csiParamSeen = false
	case ']': // OSC - Operating System Command
		p.state = stateOSC
		p.oscCmd = 0
		p.oscBuf = p.oscBuf[:0]
	case 'P': // DCS - Device Control String
		p.state = stateDCSParam
		p.dcsParams = p.dcsParams[:0]
		p.dcsBuf.Reset()
	case '_': // APC - Application Program Command
		p.state = stateAPC
		p.apcBuf = p.apcBuf[:0]
	case '(', ')': // Character set designation
		p.state = stateCharset
	case '\\': // Stray ST - ignore
		p.state = stateGround
	default:
		// Two-byte escape (RIS, IND, NEL, DECSC, ...)
		emit(Event{Kind: EventEsc, Final: b})
		p.state = stateGround
	}
}

func (p *Parser) handleCSI(b byte, emit func(Event)) {
	if p.state == stateCSI {
		// First byte after ESC [
		if b == '?' || b == '>' || b == '!' || b == '<' {
			p.csiPrivate = b
			p.state = stateCSIParam
			return
		}
		p.state = stateCSIParam
	}

	switch {
	case b >= '0' && b <= '9':
		p.csiBuf.WriteByte(b)
		p.csiParamSeen = true
		return
	case b == ';':
		p.flushCSIParam()
		return
	case b == ':':
		// Sub-parameter separator; keep only the base value
		p.csiBuf.WriteByte(b)
		return
	case b >= 0x20 && b <= 0x2F:
		// Intermediate bytes (e.g. SP in DECSCUSR)
		p.flushCSIParam()
		p.csiIntermed = b
		return
	}

	// Final byte - dispatch the sequence
	if p.csiParamSeen || p.csiBuf.Len() > 0 {
		p.flushCSIParam()
	}
	params := make([]int, len(p.csiParams))
	copy(params, p.csiParams)
	emit(Event{Kind: EventCSI, Params: params, Private: p.csiPrivate, Final: b})
	p.state = stateGround
}

func (p *Parser) flushCSIParam() {
	s := p.csiBuf.String()
	p.csiBuf.Reset()
	if colon := strings.IndexByte(s, ':'); colon >= 0 {
		s = s[:colon]
	}
	n, _ := strconv.Atoi(s)
	p.csiParams = append(p.csiParams, n)
	p.csiParamSeen = true
}

func (p *Parser) handleOSC(b byte) {
	if b >= '0' && b <= '9' {
		p.oscCmd = p.oscCmd*10 + int(b-'0')
		return
	}
	if b == ';' {
		p.state = stateOSCString
		return
	}
	// Invalid OSC, return to ground
	p.state = stateGround
}

func (p *Parser) handleOSCString(b byte, emit func(Event)) {
	switch b {
	case 0x07: // BEL terminates OSC
		p.dispatchOSC(emit)
		p.state = stateGround
	case 0x1B: // Possible ST (ESC \)
		p.state = stateOSCEscape
	default:
		p.oscBuf = append(p.oscBuf, b)
	}
}

func (p *Parser) dispatchOSC(emit func(Event)) {
	payload := make([]byte, len(p.oscBuf))
	copy(payload, p.oscBuf)
	emit(Event{Kind: EventOSC, Cmd: p.oscCmd, Payload: payload})
	p.oscBuf = p.oscBuf[:0]
}

func (p *Parser) dispatchAPC(emit func(Event)) {
	payload := make([]byte, len(p.apcBuf))
	copy(payload, p.apcBuf)
	emit(Event{Kind: EventAPC, Payload: payload})
	p.apcBuf = p.apcBuf[:0]
}

// handleDCSParam reads the parameter section of a DCS introducer. The first
// byte in 0x40-0x7E is the mode byte: it selects the sub-protocol and opens
// the pass-through payload.
func (p *Parser) handleDCSParam(b byte, emit func(Event)) {
	switch {
	case b >= '0' && b <= '9':
		p.dcsBuf.WriteByte(b)
	case b == ';':
		p.flushDCSParam()
	case b >= 0x40 && b <= 0x7E:
		if p.dcsBuf.Len() > 0 || len(p.dcsParams) > 0 {
			p.flushDCSParam()
		}
		params := make([]int, len(p.dcsParams))
		copy(params, p.dcsParams)
		emit(Event{Kind: EventDCSHook, Mode: b, Params: params})
		p.state = stateDCSPass
	case b == 0x1B:
		// DCS aborted before its mode byte
		p.state = stateEscape
	default:
		// Intermediate or invalid byte - tolerate and keep scanning
	}
}

func (p *Parser) flushDCSParam() {
	n, _ := strconv.Atoi(p.dcsBuf.String())
	p.dcsParams = append(p.dcsParams, n)
	p.dcsBuf.Reset()
}
