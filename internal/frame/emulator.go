package frame

import (
	"bytes"
	"encoding/binary"
	"strings"
	"sync"
	"unicode/utf8"
)

type scrollingText struct {
	position     int
	windowLength int
	text         string
}

// Emulator behaves like the front panel at the frame level: it applies request frames to an
// in-memory display and answers button report requests from injected dial input.
type Emulator struct {
	lock sync.Mutex

	cells      [TextCells]rune
	upperBar   uint32
	graphics   [OneLineCanvas]byte
	brightness int
	scrolling  map[Slot]scrollingText
	reports    []ButtonReport
	frameCount int
}

func NewEmulator() *Emulator {
	e := &Emulator{brightness: 3}
	e.clear()
	return e
}

// Tx mirrors a bus transaction: w is applied as a request, r is filled with the response if any.
func (e *Emulator) Tx(w, r []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(w) == 1 && w[0] == OpButtonReport {
		if len(r) != ButtonReportSize {
			return errorf("emulator", "button report needs %d bytes, %d requested", ButtonReportSize, len(r))
		}
		report := ButtonReport{}
		if len(e.reports) > 0 {
			report = e.reports[0]
			e.reports = e.reports[1:]
		}
		data, err := EncodeButtonReport(report)
		if err != nil {
			return err
		}
		copy(r, data)
		return nil
	}

	if len(r) != 0 {
		return errorf("emulator", "opcode %d has no response", w[0])
	}
	return e.apply(w)
}

// PushButtonReport queues a report returned by a future button report request.
func (e *Emulator) PushButtonReport(report ButtonReport) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.reports = append(e.reports, report)
}

func (e *Emulator) apply(w []byte) error {
	if len(w) == 0 {
		return errorf("emulator", "empty frame")
	}
	e.frameCount++

	switch w[0] {
	case OpClear:
		e.clear()
	case OpBrightness:
		if len(w) != 2 || int(w[1]) > MaxBrightness {
			return errorf("emulator", "malformed brightness frame %v", w)
		}
		e.brightness = int(w[1])
	case OpStaticText:
		if len(w) < 4 {
			return errorf("emulator", "static text frame too short")
		}
		text, err := frameText(w[3:])
		if err != nil {
			return err
		}
		if utf8.RuneCountInString(text) != int(w[2]) {
			return errorf("emulator", "static text length %d does not match %q", w[2], text)
		}
		e.put(int(w[1]), text)
	case OpScrollingText:
		if len(w) < 5 {
			return errorf("emulator", "scrolling text frame too short")
		}
		slot := Slot(w[1])
		text, err := frameText(w[4:])
		if err != nil {
			return err
		}
		if slot.Capacity() == 0 || len(text) > slot.Capacity() {
			return errorf("emulator", "text of %d bytes does not fit %s", len(text), slot)
		}
		st := scrollingText{position: int(w[2]), windowLength: int(w[3]), text: text}
		if st.position+st.windowLength > TextCells {
			return errorf("emulator", "scrolling window exceeds display boundaries")
		}
		e.scrolling[slot] = st
		window := []rune(text)
		if len(window) > st.windowLength {
			window = window[:st.windowLength]
		}
		e.put(st.position, string(window)+strings.Repeat(" ", st.windowLength-len(window)))
	case OpDrawGraphics:
		if len(w) < 4 || len(w) != 4+int(w[2]) {
			return errorf("emulator", "malformed graphics frame")
		}
		position := int(w[1])
		if position+int(w[2]) > OneLineCanvas {
			return errorf("emulator", "graphics exceed the canvas")
		}
		for idx, column := range w[4:] {
			if w[3] == 1 {
				e.graphics[position+idx] |= column
			} else {
				e.graphics[position+idx] = column
			}
		}
	case OpUpperBar:
		if len(w) != 5 {
			return errorf("emulator", "malformed upper bar frame")
		}
		e.upperBar = binary.LittleEndian.Uint32(w[1:])
	default:
		return errorf("emulator", "unknown opcode %d", w[0])
	}
	return nil
}

func frameText(payload []byte) (string, error) {
	end := bytes.IndexByte(payload, 0)
	if end != len(payload)-1 {
		return "", errorf("emulator", "text has to be terminated by a single zero byte")
	}
	text := string(payload[:end])
	if !utf8.ValidString(text) {
		return "", errorf("emulator", "text is not valid UTF-8")
	}
	return text, nil
}

func (e *Emulator) put(position int, text string) {
	for _, r := range text {
		if position >= TextCells {
			return
		}
		e.cells[position] = r
		position++
	}
}

func (e *Emulator) clear() {
	for idx := range e.cells {
		e.cells[idx] = ' '
	}
	e.upperBar = 0
	e.graphics = [OneLineCanvas]byte{}
	e.scrolling = make(map[Slot]scrollingText)
}

// Text returns the characters of the cells from..to-1.
func (e *Emulator) Text(from, to int) string {
	e.lock.Lock()
	defer e.lock.Unlock()
	return string(e.cells[from:to])
}

func (e *Emulator) Line1() string {
	return e.Text(0, RowCells)
}

func (e *Emulator) Line2() string {
	return e.Text(RowCells, TextCells)
}

// UpperBar renders active segments as '*'.
func (e *Emulator) UpperBar() string {
	e.lock.Lock()
	defer e.lock.Unlock()
	var sb strings.Builder
	for idx := 0; idx < BarSegments; idx++ {
		if e.upperBar&(1<<uint(idx)) != 0 {
			sb.WriteByte('*')
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

// ScrollingText returns the full text stored in a slot.
func (e *Emulator) ScrollingText(slot Slot) (string, bool) {
	e.lock.Lock()
	defer e.lock.Unlock()
	st, ok := e.scrolling[slot]
	return st.text, ok
}

// Columns returns a copy of the pixel columns from..to-1.
func (e *Emulator) Columns(from, to int) []byte {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]byte(nil), e.graphics[from:to]...)
}

func (e *Emulator) Brightness() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.brightness
}

// FrameCount returns the number of request frames applied so far, button reads excluded.
func (e *Emulator) FrameCount() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.frameCount
}

// Render draws the panel as three text lines.
func (e *Emulator) Render() string {
	return "<" + e.UpperBar() + ">\n|" + e.Line1() + "|\n|" + e.Line2() + "|"
}
