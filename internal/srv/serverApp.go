package srv

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jypelle/frontpanel/apimodel"
	"github.com/jypelle/frontpanel/internal/srv/config"
	"github.com/jypelle/frontpanel/internal/srv/device"
	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/srv/screen"
	"github.com/jypelle/frontpanel/internal/srv/view"
	"github.com/jypelle/frontpanel/internal/version"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
)

const reportQueueSize = 16

type ServerApp struct {
	*config.ServerConfig
	startTime time.Time

	i2cBus         i2c.BusCloser
	simulatedPanel *device.SimulatedPanel
	frontDisplay   *device.FrontDisplay
	indoorSensor   *device.IndoorSensor
	apiDevice      *device.Api
	mqttDialDevice *device.MqttDial

	reportBus *event.ReportBus
	machine   *screen.Machine
	scheduler *Scheduler

	cancel  context.CancelFunc
	running sync.WaitGroup
}

func NewServerApp(configDir string, debugMode bool, simulationMode bool) *ServerApp {

	logrus.Debugf("Creation of %s server %s ...", version.AppName, version.AppVersion.String())

	app := &ServerApp{
		ServerConfig: config.NewServerConfig(configDir, debugMode, simulationMode),
		startTime:    time.Now(),
		reportBus:    event.NewReportBus(),
	}

	var sensor device.Sensor
	if app.SimulationMode {
		app.simulatedPanel = device.NewSimulatedPanel()
		app.frontDisplay = device.NewFrontDisplay(app.simulatedPanel.Emulator)
		sensor = &device.SimulatedSensor{}
	} else {
		var err error
		app.i2cBus, err = device.OpenBus(app.I2cBus)
		if err != nil {
			logrus.Fatalf("Unable to open i2c bus: %v\n", err)
		}
		app.frontDisplay = device.NewI2CFrontDisplay(app.i2cBus, app.FrontDisplayAddress)
		if app.SensorParam.Enabled {
			bme280, err := device.OpenBME280(app.i2cBus, app.SensorParam.Address)
			if err != nil {
				logrus.Errorf("Indoor sensor disabled: %v", err)
			} else {
				sensor = bme280
			}
		}
	}
	if sensor != nil && app.SensorParam.Enabled {
		app.indoorSensor = device.NewIndoorSensor(sensor, app.reportBus, app.SensorParam.Interval())
	}

	views := screen.NewViewInfos([]screen.View{
		view.NewClockView(time.Local),
		view.NewIndoorWeatherView(app.ServerState),
		view.NewAboutView(app.startTime),
	}, app.frontDisplay, time.Now)

	var err error
	app.machine, err = screen.NewMachine(views, collectMenus(views, view.NewBrightnessMenu(app.ServerState)), &screen.DisplayMenuPainter{Display: app.frontDisplay})
	if err != nil {
		logrus.Fatalf("Unable to create the state machine: %v\n", err)
	}

	app.scheduler = NewScheduler(SchedulerParam{
		TickInterval:         app.TickInterval(),
		IdleTimeout:          app.ViewAutomaticCycleTimeout(),
		DefaultInstantRedraw: app.DefaultInstantRedraw(),
	}, app.frontDisplay, app.machine, app.brightnessLevel)

	if app.ApiParam.Enabled {
		app.apiDevice = device.NewApi(app.ServerConfig, app.stateMessage)
	}
	if app.MqttParam != nil && app.MqttParam.Enabled {
		app.mqttDialDevice = device.NewMqttDial(*app.MqttParam, app.scheduler.SubmitDial)
	}

	logrus.Debugln("Server created")

	return app
}

// collectMenus lists the global menus followed by the menus of every view.
func collectMenus(views []*screen.ViewInfo, globalMenus ...screen.Menu) []screen.Menu {
	menus := append([]screen.Menu(nil), globalMenus...)
	for _, vi := range views {
		menus = append(menus, vi.View().Menus()...)
	}
	return menus
}

func (s *ServerApp) Start() {
	logrus.Printf("Starting %s server ...", version.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.initPanel()

	s.goRun(func() { s.scheduler.FoldReports(ctx, s.reportBus.Subscribe(reportQueueSize)) })
	s.goRun(func() { s.scheduler.Run(ctx) })

	if s.indoorSensor != nil {
		s.goRun(func() { s.indoorSensor.Run(ctx) })
	}

	if s.simulatedPanel != nil {
		s.goRun(func() { s.simulatedPanel.RunRenderer(ctx) })
		// Never joined: blocked on stdin until the process exits.
		go s.simulatedPanel.ReadConsole(os.Stdin)
	}

	if s.apiDevice != nil {
		s.apiDevice.Start()
		s.goRun(func() { s.eventLoop(ctx) })
	}

	if s.mqttDialDevice != nil {
		s.goRun(func() { s.mqttDialDevice.Run(ctx) })
	}
}

// initPanel clears the panel, drops the dial input pending since before startup and draws the
// first view.
func (s *ServerApp) initPanel() {
	if err := s.frontDisplay.Clear(); err != nil {
		logrus.Warnf("Unable to clear front display: %v", err)
	}
	if _, err := s.frontDisplay.ButtonReport(); err != nil {
		logrus.Warnf("Unable to reset button state: %v", err)
	}
	if err := s.machine.State().View.RedrawAll(false); err != nil {
		logrus.Warnf("Unable to draw first view: %v", err)
	}
}

func (s *ServerApp) goRun(fn func()) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		fn()
	}()
}

func (s *ServerApp) Stop() {
	logrus.Printf("Stopping %s server ...", version.AppName)

	if s.apiDevice != nil {
		s.apiDevice.Stop()
	}

	s.cancel()
	s.running.Wait()
	s.scheduler.Wait()
	s.reportBus.Close()

	// Shutdown screen
	if err := s.frontDisplay.Clear(); err != nil {
		logrus.Warnf("Unable to clear front display: %v", err)
	} else if err := s.frontDisplay.SetStaticText(0, "Stopped"); err != nil {
		logrus.Warnf("Unable to write on front display: %v", err)
	}

	if s.i2cBus != nil {
		if err := s.i2cBus.Close(); err != nil {
			logrus.Warnf("Unable to close i2c bus: %v", err)
		}
	}

	// Flush state backup
	s.ServerState.FlushSave()

	logrus.Printf("Server stopped")
}

// brightnessLevel returns the level chosen in the menu, or the one of the time of day in AUTO mode.
func (s *ServerApp) brightnessLevel() int {
	if s.ServerState.BrightnessAuto() {
		return s.AutoBrightness.Level(time.Now())
	}
	return s.ServerState.Brightness()
}

func (s *ServerApp) stateMessage() apimodel.StateMessage {
	state := s.machine.State()
	message := apimodel.StateMessage{
		State:           state.Kind.String(),
		Brightness:      s.brightnessLevel(),
		BrightnessAuto:  s.ServerState.BrightnessAuto(),
		TemperatureUnit: s.ServerState.TemperatureUnit(),
	}
	if active := state.ActiveView(); active != nil {
		message.ActiveView = active.View().Name()
	}
	if !state.IsViewCycle() {
		message.Menu = state.Menu.Label()
		message.Option = state.Option.Text
	}
	return message
}
