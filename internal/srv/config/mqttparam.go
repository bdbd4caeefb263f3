package config

import "time"

type MqttParam struct {
	Enabled     bool   `yaml:"enabled"`
	Address     string `yaml:"address"`
	ClientId    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Timeout     int64  `yaml:"timeout"`
}

func (c MqttParam) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c MqttParam) PressTopic() string {
	return c.TopicPrefix + "/dial/press"
}

func (c MqttParam) TurnTopic() string {
	return c.TopicPrefix + "/dial/turn"
}
