// Package frame encodes requests for the front panel and decodes its responses.
//
// Every request is an opcode byte followed by an opcode-specific payload. Encoders validate
// their arguments first and return an *Error without producing any bytes when an invariant is
// violated, so a frame is either complete or absent.
package frame

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Opcodes understood by the front panel firmware.
const (
	OpButtonReport  byte = 1
	OpClear         byte = 2
	OpBrightness    byte = 3
	OpStaticText    byte = 4
	OpScrollingText byte = 5
	OpDrawGraphics  byte = 6
	OpUpperBar      byte = 7
)

const (
	// TextCells is the number of character cells of both display rows.
	TextCells = 40
	// RowCells is the number of character cells of one display row.
	RowCells = 20
	// BarSegments is the number of segments of the upper bar.
	BarSegments = 20
	// ColumnsPerCell is the number of pixel columns of one character cell.
	ColumnsPerCell = 5
	// MaxBrightness is the highest level accepted by the panel.
	MaxBrightness = 5
	// ButtonReportSize is the size of the response to OpButtonReport.
	ButtonReportSize = 2
)

type Slot int

const (
	Slot0 Slot = iota
	Slot1
	Slot2
)

var slotCapacities = [...]int{150, 70, 30}

// Capacity returns the number of UTF-8 bytes the slot can hold.
func (s Slot) Capacity() int {
	if s < Slot0 || s > Slot2 {
		return 0
	}
	return slotCapacities[s]
}

func (s Slot) String() string {
	return fmt.Sprintf("SLOT%d", int(s))
}

// Error reports a request that violates the panel protocol.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string {
	return "frame: " + e.Op + ": " + e.Msg
}

func errorf(op string, format string, args ...interface{}) *Error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...)}
}

func EncodeClear() []byte {
	return []byte{OpClear}
}

func EncodeSetBrightness(level int) ([]byte, error) {
	if level < 0 || level > MaxBrightness {
		return nil, errorf("brightness", "level has to be between 0 and %d, %d provided", MaxBrightness, level)
	}
	return []byte{OpBrightness, byte(level)}, nil
}

// EncodeStaticText writes text at the given cell, 0..19 being the upper row and 20..39 the lower one.
func EncodeStaticText(position int, text string) ([]byte, error) {
	const op = "static text"
	length := utf8.RuneCountInString(text)
	if err := checkTextPlacement(op, position, length, text); err != nil {
		return nil, err
	}
	if length > 255 {
		return nil, errorf(op, "text too long: %d characters", length)
	}

	return appendText([]byte{OpStaticText, byte(position), byte(length)}, text), nil
}

// EncodeScrollingText stores text in a slot which scrolls inside a window of windowLength cells.
func EncodeScrollingText(slot Slot, position int, windowLength int, text string) ([]byte, error) {
	const op = "scrolling text"
	if slot.Capacity() == 0 {
		return nil, errorf(op, "unknown slot %d", int(slot))
	}
	if len(text) > slot.Capacity() {
		return nil, errorf(op, "UTF-8 text length (%d bytes) cannot exceed the capacity of %s, which is %d", len(text), slot, slot.Capacity())
	}
	if windowLength < 1 {
		return nil, errorf(op, "window length has to be at least 1, %d provided", windowLength)
	}
	if err := checkTextPlacement(op, position, windowLength, text); err != nil {
		return nil, err
	}

	return appendText([]byte{OpScrollingText, byte(slot), byte(position), byte(windowLength)}, text), nil
}

func checkTextPlacement(op string, position int, length int, text string) error {
	if position < 0 || position >= TextCells {
		return errorf(op, "position has to be between 0 and %d, %d provided", TextCells-1, position)
	}
	if text == "" {
		return errorf(op, "text length has to be at least 1")
	}
	if !utf8.ValidString(text) {
		return errorf(op, "text is not valid UTF-8")
	}
	if position+length > TextCells {
		return errorf(op, "end of the text cannot exceed position %d, but has length %d and position %d, which sums to %d", TextCells-1, length, position, position+length)
	}
	return nil
}

func appendText(header []byte, text string) []byte {
	buf := make([]byte, 0, len(header)+len(text)+1)
	buf = append(buf, header...)
	buf = append(buf, text...)
	return append(buf, 0)
}

// EncodeUpperBar sets all 20 segments of the upper bar.
func EncodeUpperBar(content [BarSegments]bool) []byte {
	var mask uint32
	for idx, active := range content {
		if active {
			mask |= 1 << uint(idx)
		}
	}
	return encodeUpperBarMask(mask)
}

// EncodeUpperBarPositions lights the listed segments, or all the other ones when invert is set.
func EncodeUpperBarPositions(activePositions []int, invert bool) ([]byte, error) {
	var mask uint32
	for _, pos := range activePositions {
		if pos < 0 || pos >= BarSegments {
			return nil, errorf("upper bar", "position numbers between 0 and %d are allowed, %d provided", BarSegments-1, pos)
		}
		mask |= 1 << uint(pos)
	}
	if invert {
		mask = ^mask
	}
	return encodeUpperBarMask(mask), nil
}

func encodeUpperBarMask(mask uint32) []byte {
	buf := make([]byte, 5)
	buf[0] = OpUpperBar
	binary.LittleEndian.PutUint32(buf[1:], mask)
	return buf
}

// EncodeButtonReportRequest asks for the button and encoder changes since the previous request.
func EncodeButtonReportRequest() []byte {
	return []byte{OpButtonReport}
}
