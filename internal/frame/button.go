package frame

type ButtonState int

const (
	NoChange ButtonState = iota
	JustPressed
	JustReleased
)

const (
	buttonCodeNoChange     = 0
	buttonCodeJustPressed  = 1
	buttonCodeJustReleased = 255

	MaxEncoderDelta = 127
)

func (b ButtonState) String() string {
	switch b {
	case NoChange:
		return "NO_CHANGE"
	case JustPressed:
		return "JUST_PRESSED"
	case JustReleased:
		return "JUST_RELEASED"
	}
	return "UNKNOWN"
}

// ButtonReport holds the button transition and the encoder steps accumulated since the previous read.
type ButtonReport struct {
	Button       ButtonState
	EncoderDelta int
}

// DecodeButtonReport decodes the response to EncodeButtonReportRequest: the encoder delta as a
// signed byte followed by the button code.
func DecodeButtonReport(data []byte) (ButtonReport, error) {
	const op = "button report"
	if len(data) != ButtonReportSize {
		return ButtonReport{}, errorf(op, "expected %d bytes, got %d", ButtonReportSize, len(data))
	}

	var report ButtonReport
	switch data[1] {
	case buttonCodeNoChange:
		report.Button = NoChange
	case buttonCodeJustPressed:
		report.Button = JustPressed
	case buttonCodeJustReleased:
		report.Button = JustReleased
	default:
		return ButtonReport{}, errorf(op, "invalid button state value: %d", data[1])
	}

	report.EncoderDelta = int(int8(data[0]))
	if report.EncoderDelta < -MaxEncoderDelta {
		return ButtonReport{}, errorf(op, "encoder delta %d out of range", report.EncoderDelta)
	}

	return report, nil
}

// EncodeButtonReport builds the response the panel sends for a report, the reverse of DecodeButtonReport.
func EncodeButtonReport(report ButtonReport) ([]byte, error) {
	const op = "button report"
	if report.EncoderDelta < -MaxEncoderDelta || report.EncoderDelta > MaxEncoderDelta {
		return nil, errorf(op, "valid delta is between %d and %d, %d provided", -MaxEncoderDelta, MaxEncoderDelta, report.EncoderDelta)
	}
	var code byte
	switch report.Button {
	case NoChange:
		code = buttonCodeNoChange
	case JustPressed:
		code = buttonCodeJustPressed
	case JustReleased:
		code = buttonCodeJustReleased
	default:
		return nil, errorf(op, "invalid button state %d", int(report.Button))
	}
	return []byte{byte(int8(report.EncoderDelta)), code}, nil
}
