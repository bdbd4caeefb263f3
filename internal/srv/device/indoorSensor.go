package device

import (
	"context"
	"fmt"
	"time"

	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/srv/task"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// Sensor is an environmental sensor such as periph's bmxx80.Dev.
type Sensor interface {
	Sense(env *physic.Env) error
}

// IndoorSensor publishes the readings of the local sensor on the report bus.
type IndoorSensor struct {
	sensor    Sensor
	reportBus *event.ReportBus
	interval  time.Duration
	clock     func() time.Time
}

func NewIndoorSensor(sensor Sensor, reportBus *event.ReportBus, interval time.Duration) *IndoorSensor {
	return &IndoorSensor{
		sensor:    sensor,
		reportBus: reportBus,
		interval:  interval,
		clock:     time.Now,
	}
}

// OpenBME280 initializes the BME280 at address addr of bus.
func OpenBME280(bus i2c.Bus, addr uint16) (*bmxx80.Dev, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize BME280 at 0x%x: %w", addr, err)
	}
	return dev, nil
}

// Collect reads the sensor once and publishes a report. A failed read is published as failed
// samples, so that views render them as missing, and returned.
func (s *IndoorSensor) Collect(ctx context.Context) error {
	var env physic.Env
	err := s.sensor.Sense(&env)

	report := event.MeasurementReport{
		Timestamp:   s.clock(),
		CycleLength: s.interval,
	}
	if err != nil {
		err = fmt.Errorf("unable to read indoor sensor: %w", err)
		report.Values = []event.Sample{
			{Type: event.IndoorTemperature, Err: err},
			{Type: event.IndoorHumidity, Err: err},
			{Type: event.IndoorPressure, Err: err},
		}
	} else {
		report.Values = []event.Sample{
			{Type: event.IndoorTemperature, Value: env.Temperature.Celsius()},
			{Type: event.IndoorHumidity, Value: float64(env.Humidity) / float64(physic.PercentRH)},
			{Type: event.IndoorPressure, Value: float64(env.Pressure) / float64(100*physic.Pascal)},
		}
		logrus.Debugf("Indoor sensor: %v", report.Values)
	}

	s.reportBus.Publish(report)
	return err
}

// Run collects every interval until ctx is cancelled.
func (s *IndoorSensor) Run(ctx context.Context) {
	task.Run(ctx, "indoor sensor", s.interval, s.Collect)
}
