package device

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jypelle/frontpanel/internal/srv/event"
	"periph.io/x/conn/v3/physic"
)

type stubSensor struct {
	env physic.Env
	err error
}

func (s *stubSensor) Sense(env *physic.Env) error {
	if s.err != nil {
		return s.err
	}
	*env = s.env
	return nil
}

func TestIndoorSensorCollect(t *testing.T) {
	bus := event.NewReportBus()
	reports := bus.Subscribe(2)
	sensor := &stubSensor{env: physic.Env{
		Temperature: physic.ZeroCelsius + 21500*physic.MilliKelvin,
		Pressure:    101325 * physic.Pascal,
		Humidity:    45 * physic.PercentRH,
	}}
	s := NewIndoorSensor(sensor, bus, time.Minute)

	if err := s.Collect(context.Background()); err != nil {
		t.Fatal(err)
	}
	report := <-reports
	if report.CycleLength != time.Minute {
		t.Fatalf("unexpected cycle length %v", report.CycleLength)
	}

	expected := map[string]float64{
		event.IndoorTemperature: 21.5,
		event.IndoorHumidity:    45,
		event.IndoorPressure:    1013.25,
	}
	for sampleType, want := range expected {
		sample, ok := report.Find(sampleType)
		if !ok || sample.Err != nil {
			t.Fatalf("missing sample %s: %v", sampleType, sample)
		}
		if math.Abs(sample.Value-want) > 0.01 {
			t.Errorf("%s: expected %v, got %v", sampleType, want, sample.Value)
		}
	}

	sensor.err = errors.New("i2c nack")
	if err := s.Collect(context.Background()); err == nil {
		t.Fatal("expected read error")
	}
	report = <-reports
	if sample, _ := report.Find(event.IndoorTemperature); sample.Err == nil {
		t.Fatal("failed read should be published as failed samples")
	}
}
