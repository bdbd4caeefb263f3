package device

import (
	"bufio"
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/task"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

const simulationRenderInterval = 500 * time.Millisecond

// SimulatedPanel replaces the front panel by an emulator. The panel content is logged when it
// changes and dial input is read from a console.
type SimulatedPanel struct {
	Emulator *frame.Emulator
}

func NewSimulatedPanel() *SimulatedPanel {
	return &SimulatedPanel{Emulator: frame.NewEmulator()}
}

// RunRenderer logs the panel every time frames were applied to it.
func (p *SimulatedPanel) RunRenderer(ctx context.Context) {
	lastFrameCount := -1
	task.Run(ctx, "panel renderer", simulationRenderInterval, func(ctx context.Context) error {
		if count := p.Emulator.FrameCount(); count != lastFrameCount {
			lastFrameCount = count
			logrus.Infof("Front panel (brightness %d):\n%s", p.Emulator.Brightness(), p.Emulator.Render())
		}
		return nil
	})
}

// ReadConsole reads dial input, one command per line: "p" presses the button, a signed integer
// turns the dial.
func (p *SimulatedPanel) ReadConsole(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		report, ok := parseConsoleCommand(scanner.Text())
		if !ok {
			logrus.Warnf("Unknown console command %q, use p, +N or -N", scanner.Text())
			continue
		}
		p.Emulator.PushButtonReport(report)
	}
	if err := scanner.Err(); err != nil {
		logrus.Errorf("Unable to read console: %v", err)
	}
}

func parseConsoleCommand(line string) (frame.ButtonReport, bool) {
	line = strings.TrimSpace(line)
	if line == "p" {
		return frame.ButtonReport{Button: frame.JustReleased}, true
	}
	delta, err := strconv.Atoi(line)
	if err != nil || delta == 0 || delta < -frame.MaxEncoderDelta || delta > frame.MaxEncoderDelta {
		return frame.ButtonReport{}, false
	}
	return frame.ButtonReport{EncoderDelta: delta}, true
}

// SimulatedSensor stands for the BME280 when no bus is available.
type SimulatedSensor struct {
	Clock func() time.Time
}

func (s *SimulatedSensor) Sense(env *physic.Env) error {
	now := time.Now
	if s.Clock != nil {
		now = s.Clock
	}
	// One degree of daily swing around 21 °C.
	hours := float64(now().Hour()) + float64(now().Minute())/60
	celsius := 21 + math.Sin(hours/24*2*math.Pi)

	env.Temperature = physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Kelvin))
	env.Humidity = 45 * physic.PercentRH
	env.Pressure = 101325 * physic.Pascal
	return nil
}
