package view

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/config"
	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/srv/screen"
)

const (
	temperatureHistoryLength = 19
	temperatureChartUnit     = 0.5
	temperatureChartPosition = 15 * frame.ColumnsPerCell
	indoorProgressPoll       = 5 * time.Second
)

type indoorStatus struct {
	timestamp   time.Time
	cycleLength time.Duration
	temperature float64
	humidity    float64
	pressure    float64
	// history of temperatures in Celsius, oldest first, NaN for failed samples
	history []float64
}

// TemperatureUnitStore keeps the temperature unit chosen from the panel.
type TemperatureUnitStore interface {
	TemperatureUnit() string
	SetTemperatureUnit(unit string)
}

// IndoorWeatherView shows the samples of the local BME280 sensor.
type IndoorWeatherView struct {
	unitStore TemperatureUnitStore
	unitMenu  *ChoiceMenu

	lock        sync.RWMutex
	lastReport  time.Time
	cycleLength time.Duration
}

func NewIndoorWeatherView(unitStore TemperatureUnitStore) *IndoorWeatherView {
	return &IndoorWeatherView{
		unitStore: unitStore,
		unitMenu: NewChoiceMenu("Temp. unit", []string{config.CelsiusUnit, config.FahrenheitUnit},
			unitStore.TemperatureUnit, unitStore.SetTemperatureUnit),
	}
}

func (v *IndoorWeatherView) Name() string {
	return "Indoor weather"
}

func (v *IndoorWeatherView) PollInstantEvery() time.Duration {
	return indoorProgressPoll
}

func (v *IndoorWeatherView) PreferredDisplayTime(status interface{}) time.Duration {
	return 10 * time.Second
}

func sampleValue(report event.MeasurementReport, sampleType string, old float64) (float64, bool) {
	sample, ok := report.Find(sampleType)
	if !ok {
		return old, false
	}
	if sample.Err != nil || math.IsNaN(sample.Value) {
		return math.NaN(), true
	}
	return sample.Value, true
}

func (v *IndoorWeatherView) OnMeasurementReport(report event.MeasurementReport, oldStatus interface{}) (screen.UpdateStatus, error) {
	old, ok := oldStatus.(indoorStatus)
	if !ok {
		old = indoorStatus{temperature: math.NaN(), humidity: math.NaN(), pressure: math.NaN()}
	}

	temperature, hasTemperature := sampleValue(report, event.IndoorTemperature, old.temperature)
	humidity, hasHumidity := sampleValue(report, event.IndoorHumidity, old.humidity)
	pressure, hasPressure := sampleValue(report, event.IndoorPressure, old.pressure)
	if !hasTemperature && !hasHumidity && !hasPressure {
		return screen.NoNewData, nil
	}

	status := indoorStatus{
		timestamp:   report.Timestamp,
		cycleLength: report.CycleLength,
		temperature: temperature,
		humidity:    humidity,
		pressure:    pressure,
		history:     old.history,
	}
	if hasTemperature {
		history := append(append([]float64(nil), old.history...), temperature)
		if len(history) > temperatureHistoryLength {
			history = history[len(history)-temperatureHistoryLength:]
		}
		status.history = history
	}

	v.lock.Lock()
	v.lastReport = report.Timestamp
	v.cycleLength = report.CycleLength
	v.lock.Unlock()

	return screen.NewData(status), nil
}

// PollInstant follows the position of the report cycle progress bar.
func (v *IndoorWeatherView) PollInstant(ctx context.Context, now time.Time, oldInstant interface{}) (screen.UpdateStatus, error) {
	v.lock.RLock()
	lastReport, cycleLength := v.lastReport, v.cycleLength
	v.lock.RUnlock()

	if lastReport.IsZero() || cycleLength <= 0 {
		return screen.NoNewData, nil
	}
	segment := frame.GetSegmentNumber(now.Sub(lastReport), cycleLength)
	if old, ok := oldInstant.(int); ok && old == segment {
		return screen.NoNewData, nil
	}
	return screen.NewData(segment), nil
}

func (v *IndoorWeatherView) Redraw(display screen.Display, redrawStatic bool, redrawStatus bool, now time.Time, status interface{}, instant interface{}) error {
	if redrawStatic {
		if err := display.SetStaticText(0, "IN"); err != nil {
			return err
		}
	}

	if redrawStatus {
		st, ok := status.(indoorStatus)
		if !ok {
			st = indoorStatus{temperature: math.NaN(), humidity: math.NaN(), pressure: math.NaN()}
		}
		unit := v.unitStore.TemperatureUnit()
		if err := display.SetStaticText(4, formatTemperature(st.temperature, unit)); err != nil {
			return err
		}
		if err := display.SetStaticText(frame.RowCells, formatHumidity(st.humidity)); err != nil {
			return err
		}
		if err := display.SetStaticText(frame.RowCells+8, formatPressure(st.pressure)); err != nil {
			return err
		}
		if len(st.history) > 0 && !math.IsNaN(st.history[len(st.history)-1]) {
			values := make([]float64, len(st.history))
			for idx, t := range st.history {
				values[idx] = convertTemperature(t, unit)
			}
			if err := display.SetOneLineDiffChart(temperatureChartPosition, values, temperatureChartUnit); err != nil {
				return err
			}
		}
	}

	if segment, ok := instant.(int); ok {
		return display.SetUpperBarPositions([]int{segment}, false)
	}
	return nil
}

func (v *IndoorWeatherView) Menus() []screen.Menu {
	return []screen.Menu{v.unitMenu}
}

func convertTemperature(celsius float64, unit string) float64 {
	if unit == config.FahrenheitUnit {
		return celsius*9/5 + 32
	}
	return celsius
}

// formatTemperature always returns 8 runes.
func formatTemperature(celsius float64, unit string) string {
	if math.IsNaN(celsius) {
		return fmt.Sprintf("  --.-°%s", unit)
	}
	return fmt.Sprintf("%+6.1f°%s", convertTemperature(celsius, unit), unit)
}

// formatHumidity always returns 7 runes.
func formatHumidity(humidity float64) string {
	if math.IsNaN(humidity) {
		return "H:---% "
	}
	return fmt.Sprintf("H:%3.0f%% ", humidity)
}

// formatPressure always returns 12 runes.
func formatPressure(pressure float64) string {
	if math.IsNaN(pressure) {
		return "P:------ hPa"
	}
	return fmt.Sprintf("P:%6.1f hPa", pressure)
}
