package event

import (
	"fmt"
	"time"
)

// Sample is one named result of a measurement. Err is set when the value could not be obtained.
type Sample struct {
	Type  string
	Value float64
	Err   error
}

func (s Sample) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%s=error(%v)", s.Type, s.Err)
	}
	return fmt.Sprintf("%s=%g", s.Type, s.Value)
}

// Sample types of the local sensor
const (
	IndoorTemperature = "indoor_temperature"
	IndoorHumidity    = "indoor_humidity"
	IndoorPressure    = "indoor_pressure"
)

// MeasurementReport is a timestamped batch of samples produced by one collector cycle.
type MeasurementReport struct {
	Timestamp   time.Time
	CycleLength time.Duration
	Values      []Sample
}

// Find returns the sample of the given type.
func (r MeasurementReport) Find(sampleType string) (Sample, bool) {
	for _, s := range r.Values {
		if s.Type == sampleType {
			return s, true
		}
	}
	return Sample{}, false
}

// Dial
type DialCommandType int

const (
	DIAL_PRESSED DialCommandType = iota
	DIAL_TURNED
)

// DialCommand is dial input coming from a remote source rather than from the panel itself.
type DialCommand struct {
	Type  DialCommandType
	Delta int
}

// Api
type ApiEvent struct {
	Result chan error
	Data   interface{}
}

type ApiEventDialData struct {
	Command DialCommand
}
