package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/jypelle/frontpanel/internal/frame"
	"github.com/jypelle/frontpanel/internal/srv/config"
	"github.com/jypelle/frontpanel/internal/srv/event"
	"github.com/jypelle/frontpanel/internal/srv/task"
	"github.com/sirupsen/logrus"
	mqtt "github.com/soypat/natiu-mqtt"
)

const (
	mqttReadPoll       = time.Second
	mqttReconnectPause = time.Second
	mqttPacketId       = 0xf01
)

// MqttDial turns messages of the dial topics into dial commands.
type MqttDial struct {
	param  config.MqttParam
	submit func(event.DialCommand) error
}

func NewMqttDial(param config.MqttParam, submit func(event.DialCommand) error) *MqttDial {
	return &MqttDial{param: param, submit: submit}
}

// Run keeps a subscription open until ctx is cancelled, reconnecting after failures.
func (d *MqttDial) Run(ctx context.Context) {
	task.Run(ctx, "mqtt dial", mqttReconnectPause, d.serve)
}

func (d *MqttDial) serve(ctx context.Context) error {
	dialer := net.Dialer{Timeout: d.param.GetTimeout()}
	conn, err := dialer.DialContext(ctx, "tcp", d.param.Address)
	if err != nil {
		return fmt.Errorf("unable to reach mqtt broker %s: %w", d.param.Address, err)
	}
	defer conn.Close()

	client := mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(_ mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			payload, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			d.handleMessage(string(varPub.TopicName), payload)
			return nil
		},
	})

	var varConn mqtt.VariablesConnect
	varConn.SetDefaultMQTT([]byte(d.param.ClientId))
	varConn.KeepAlive = 0
	if d.param.Username != "" {
		varConn.Username = []byte(d.param.Username)
		if d.param.Password != "" {
			varConn.Password = []byte(d.param.Password)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, d.param.GetTimeout())
	defer cancel()
	if err := client.Connect(connectCtx, conn, &varConn); err != nil {
		return fmt.Errorf("unable to connect to mqtt broker: %w", err)
	}

	err = client.Subscribe(connectCtx, mqtt.VariablesSubscribe{
		PacketIdentifier: mqttPacketId,
		TopicFilters: []mqtt.SubscribeRequest{
			{TopicFilter: []byte(d.param.PressTopic()), QoS: mqtt.QoS0},
			{TopicFilter: []byte(d.param.TurnTopic()), QoS: mqtt.QoS0},
		},
	})
	if err != nil {
		return fmt.Errorf("unable to subscribe to dial topics: %w", err)
	}
	logrus.Infof("Listening to dial commands on %s and %s", d.param.PressTopic(), d.param.TurnTopic())

	for ctx.Err() == nil {
		if err := conn.SetReadDeadline(time.Now().Add(mqttReadPoll)); err != nil {
			return err
		}
		err := client.HandleNext()
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() && client.IsConnected() {
			continue
		}
		if client.Err() != nil {
			return fmt.Errorf("mqtt client disconnected: %w", client.Err())
		}
		return err
	}
	return nil
}

func (d *MqttDial) handleMessage(topic string, payload []byte) {
	command, err := d.parseMessage(topic, payload)
	if err != nil {
		logrus.Warnf("Ignoring mqtt message on %s: %v", topic, err)
		return
	}
	if err := d.submit(command); err != nil {
		logrus.Warnf("Dial command from mqtt rejected: %v", err)
	}
}

func (d *MqttDial) parseMessage(topic string, payload []byte) (event.DialCommand, error) {
	switch topic {
	case d.param.PressTopic():
		return event.DialCommand{Type: event.DIAL_PRESSED}, nil
	case d.param.TurnTopic():
		delta, err := strconv.Atoi(strings.TrimSpace(string(payload)))
		if err != nil {
			return event.DialCommand{}, fmt.Errorf("invalid delta %q", payload)
		}
		if delta == 0 || delta < -frame.MaxEncoderDelta || delta > frame.MaxEncoderDelta {
			return event.DialCommand{}, fmt.Errorf("delta %d out of range", delta)
		}
		return event.DialCommand{Type: event.DIAL_TURNED, Delta: delta}, nil
	}
	return event.DialCommand{}, errors.New("unknown topic")
}
