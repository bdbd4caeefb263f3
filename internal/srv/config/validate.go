package config

import "fmt"

func (p *ServerParam) Validate() error {
	if p.FrontDisplayAddress == 0 || p.FrontDisplayAddress > 0x7f {
		return fmt.Errorf("front_display_address: invalid I2C address 0x%x", p.FrontDisplayAddress)
	}
	if p.TickIntervalMs <= 0 {
		return fmt.Errorf("tick_interval_ms: must be > 0")
	}
	if p.ViewAutomaticCycleTimeoutS <= 0 {
		return fmt.Errorf("view_automatic_cycle_timeout_s: must be > 0")
	}
	if p.DefaultInstantRedrawS <= 0 {
		return fmt.Errorf("default_instant_redraw_s: must be > 0")
	}
	if err := p.AutoBrightness.Validate(); err != nil {
		return err
	}
	if p.SensorParam.Enabled {
		if p.SensorParam.Address == 0 || p.SensorParam.Address > 0x7f {
			return fmt.Errorf("sensor.address: invalid I2C address 0x%x", p.SensorParam.Address)
		}
		if p.SensorParam.IntervalS <= 0 {
			return fmt.Errorf("sensor.interval_s: must be > 0")
		}
	}
	if p.ApiParam.Enabled && p.ApiParam.ApiKey == "" {
		return fmt.Errorf("api.api_key: required when the api is enabled")
	}
	if p.MqttParam != nil && p.MqttParam.Enabled {
		if p.MqttParam.Address == "" {
			return fmt.Errorf("mqtt.address: required when mqtt is enabled")
		}
		if p.MqttParam.TopicPrefix == "" {
			return fmt.Errorf("mqtt.topic_prefix: required when mqtt is enabled")
		}
	}
	return nil
}
