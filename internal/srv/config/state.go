package config

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	CelsiusUnit    = "C"
	FahrenheitUnit = "F"

	DefaultBrightness = 3
)

const saveDelay = 10 * time.Second

// ServerState holds the settings changed from the front panel menus. Changes are written to disk
// after a quiet period of saveDelay.
type ServerState struct {
	serverStateConfig     ServerStateConfig
	lock                  sync.RWMutex
	backupTimer           *time.Timer
	completeStateFilename string
}

func NewServerState(completeStateFilename string) *ServerState {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err == nil {
		// Interpret state file
		err = yaml.Unmarshal(rawConfig, &serverState.serverStateConfig)
		if err != nil {
			logrus.Fatalf("Unable to interpret state file: %v\n", err)
		}
		serverState.serverStateConfig.normalize()
	} else {
		// Create default state file
		logrus.Infof("Create default state file")
		serverState.SetBrightness(DefaultBrightness)
		serverState.SetTemperatureUnit(CelsiusUnit)
	}

	return serverState
}

func (ss *ServerState) Brightness() int {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.Brightness
}

func (ss *ServerState) SetBrightness(brightness int) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.Brightness = brightness
	ss.serverStateConfig.normalize()
	ss.scheduleSave()
}

func (ss *ServerState) BrightnessAuto() bool {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.BrightnessAuto
}

func (ss *ServerState) SetBrightnessAuto(auto bool) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.BrightnessAuto = auto
	ss.scheduleSave()
}

func (ss *ServerState) TemperatureUnit() string {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	return ss.serverStateConfig.TemperatureUnit
}

func (ss *ServerState) SetTemperatureUnit(unit string) {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.serverStateConfig.TemperatureUnit = unit
	ss.serverStateConfig.normalize()
	ss.scheduleSave()
}

func (ss *ServerState) scheduleSave() {
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(saveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(saveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ss.serverStateConfig)
	if err != nil {
		logrus.Errorf("Unable to serialize state file: %v", err)
		return
	}
	err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660)
	if err != nil {
		logrus.Errorf("Unable to save state file: %v", err)
	}
}

func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}

type ServerStateConfig struct {
	Brightness      int    `yaml:"brightness"`
	BrightnessAuto  bool   `yaml:"brightness_auto"`
	TemperatureUnit string `yaml:"temperature_unit"`
}

func (sc *ServerStateConfig) normalize() {
	if sc.Brightness < 1 {
		sc.Brightness = 1
	} else if sc.Brightness > 5 {
		sc.Brightness = 5
	}
	if sc.TemperatureUnit != FahrenheitUnit {
		sc.TemperatureUnit = CelsiusUnit
	}
}
