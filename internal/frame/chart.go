package frame

import (
	"math"
	"time"
)

const (
	// MaxChartValues bounds the number of columns of one chart, the pivot included.
	MaxChartValues = ColumnsPerCell * RowCells
	// OneLineCanvas is the number of pixel columns addressable by a one-line chart.
	OneLineCanvas = ColumnsPerCell * TextCells
	// TwoLinesCanvas is the number of pixel columns of the upper row, which a two-line chart mirrors
	// on the lower row.
	TwoLinesCanvas = ColumnsPerCell * RowCells

	chartRows = 7
)

// Column glyphs of the one-line chart, indexed by deviation bucket -3..+3.
var oneLineGlyphs = [...]byte{
	0b1111000,
	0b0111000,
	0b0011000,
	0b0001000,
	0b0001100,
	0b0001110,
	0b0001111,
}

const (
	oneLineMissingGlyph = 0b1000001
	oneLinePivotGlyph   = 0b0001000

	twoLinesMissingUpper = 0b0000001
	twoLinesMissingLower = 0b1000000
	twoLinesPivotUpper   = 0b1000000
	twoLinesPivotLower   = 0b0000001
)

// encodeBitmap draws raw pixel columns starting at the given column. When overlay is set the
// columns are OR-ed with the text already displayed.
func encodeBitmap(position int, overlay bool, columns []byte) []byte {
	buf := make([]byte, 0, len(columns)+4)
	var overlayFlag byte
	if overlay {
		overlayFlag = 1
	}
	buf = append(buf, OpDrawGraphics, byte(position), byte(len(columns)), overlayFlag)
	return append(buf, columns...)
}

// Deviation returns the signed number of units between value and pivot, clamped to [-limit, limit].
func Deviation(value, pivot, unit float64, limit int) int {
	d := math.Round((value - pivot) / unit)
	if d > float64(limit) {
		return limit
	}
	if d < -float64(limit) {
		return -limit
	}
	return int(d)
}

// OneLineGlyph returns the column drawn for a deviation bucket of the one-line chart.
func OneLineGlyph(bucket int) byte {
	if bucket < -3 {
		bucket = -3
	} else if bucket > 3 {
		bucket = 3
	}
	return oneLineGlyphs[bucket+3]
}

func checkChart(op string, position int, values []float64, unit float64, canvas int) error {
	if len(values) == 0 {
		return errorf(op, "there has to be at least one value")
	}
	if len(values) >= MaxChartValues {
		return errorf(op, "number of values has to be below %d, %d provided", MaxChartValues, len(values))
	}
	if position < 0 || position+len(values) > canvas {
		return errorf(op, "position %d with %d values exceeds the canvas of %d columns", position, len(values), canvas)
	}
	if !(unit > 0) || math.IsInf(unit, 0) {
		return errorf(op, "unit has to be a positive number, %v provided", unit)
	}
	if math.IsNaN(values[len(values)-1]) {
		return errorf(op, "the most recent value cannot be missing")
	}
	return nil
}

// EncodeOneLineChart draws one column per value, each showing the deviation from the last value
// quantized to seven buckets. NaN marks a missing sample.
func EncodeOneLineChart(position int, values []float64, unit float64) ([]byte, error) {
	if err := checkChart("one-line chart", position, values, unit, OneLineCanvas); err != nil {
		return nil, err
	}

	pivot := values[len(values)-1]
	columns := make([]byte, len(values))
	for idx, v := range values[:len(values)-1] {
		if math.IsNaN(v) {
			columns[idx] = oneLineMissingGlyph
			continue
		}
		columns[idx] = OneLineGlyph(Deviation(v, pivot, unit, 3))
	}
	columns[len(columns)-1] = oneLinePivotGlyph

	return encodeBitmap(position, false, columns), nil
}

// EncodeTwoLinesChart draws positive deviations as bars growing up on the upper row and negative
// ones as bars growing down on the lower row. It returns the frames of both rows.
func EncodeTwoLinesChart(position int, values []float64, unit float64) (upper []byte, lower []byte, err error) {
	if err := checkChart("two-lines chart", position, values, unit, TwoLinesCanvas); err != nil {
		return nil, nil, err
	}

	pivot := values[len(values)-1]
	upperColumns := make([]byte, len(values))
	lowerColumns := make([]byte, len(values))
	for idx, v := range values[:len(values)-1] {
		if math.IsNaN(v) {
			upperColumns[idx] = twoLinesMissingUpper
			lowerColumns[idx] = twoLinesMissingLower
			continue
		}
		d := Deviation(v, pivot, unit, chartRows)
		for y := 0; y < d; y++ {
			upperColumns[idx] |= 0b1000000 >> uint(y)
		}
		for y := 0; y < -d; y++ {
			lowerColumns[idx] |= 1 << uint(y)
		}
	}
	upperColumns[len(values)-1] = twoLinesPivotUpper
	lowerColumns[len(values)-1] = twoLinesPivotLower

	return encodeBitmap(position, false, upperColumns), encodeBitmap(TwoLinesCanvas+position, false, lowerColumns), nil
}

// GetSegmentNumber maps the elapsed part of a period onto one of the upper bar segments.
func GetSegmentNumber(elapsed time.Duration, period time.Duration) int {
	if period <= 0 || elapsed <= 0 {
		return 0
	}
	segment := int(math.Floor(BarSegments * float64(elapsed) / float64(period)))
	if segment >= BarSegments {
		return BarSegments - 1
	}
	return segment
}
