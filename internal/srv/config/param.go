package config

import (
	_ "embed"
	"time"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	I2cBus                     string              `yaml:"i2c_bus"`
	FrontDisplayAddress        uint16              `yaml:"front_display_address"`
	TickIntervalMs             int64               `yaml:"tick_interval_ms"`
	ViewAutomaticCycleTimeoutS int64               `yaml:"view_automatic_cycle_timeout_s"`
	DefaultInstantRedrawS      int64               `yaml:"default_instant_redraw_s"`
	AutoBrightness             AutoBrightnessParam `yaml:"auto_brightness"`
	SensorParam                SensorParam         `yaml:"sensor"`
	ApiParam                   ApiParam            `yaml:"api"`
	MqttParam                  *MqttParam          `yaml:"mqtt,omitempty"`
}

type SensorParam struct {
	Enabled   bool   `yaml:"enabled"`
	Address   uint16 `yaml:"address"`
	IntervalS int64  `yaml:"interval_s"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

func (p *ServerParam) TickInterval() time.Duration {
	return time.Duration(p.TickIntervalMs) * time.Millisecond
}

func (p *ServerParam) ViewAutomaticCycleTimeout() time.Duration {
	return time.Duration(p.ViewAutomaticCycleTimeoutS) * time.Second
}

func (p *ServerParam) DefaultInstantRedraw() time.Duration {
	return time.Duration(p.DefaultInstantRedrawS) * time.Second
}

func (p SensorParam) Interval() time.Duration {
	return time.Duration(p.IntervalS) * time.Second
}
