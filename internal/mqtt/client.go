package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"time"

	"github.com/berfenger/vivint2mqtt/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE   = "online"
	MQTT_PAYLOAD_OFFLINE  = "offline"
	MQTT_PAYLOAD_ON       = "on"
	MQTT_PAYLOAD_OFF      = "off"
	MQTT_PAYLOAD_LOCK     = "LOCK"
	MQTT_PAYLOAD_UNLOCK   = "UNLOCK"
	MQTT_PAYLOAD_LOCKED   = "LOCKED"
	MQTT_PAYLOAD_UNLOCKED = "UNLOCKED"
	MQTT_PAYLOAD_PRESS    = "PRESS"
)

// platforms as they appear in topic segments
const (
	PLATFORM_ALARM_PANEL   = "alarm_control_panel"
	PLATFORM_SENSOR        = "sensor"
	PLATFORM_BINARY_SENSOR = "binary_sensor"
	PLATFORM_SWITCH        = "switch"
	PLATFORM_LIGHT         = "light"
	PLATFORM_LOCK          = "lock"
	PLATFORM_COVER         = "cover"
	PLATFORM_BUTTON        = "button"
)

const PARAM_BRIGHTNESS = "brightness"

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("vivint2mqtt_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client:           mqtt.NewClient(opts),
		cfg:              cfg.MQTT,
		commandRegexp:    commandExtractor(cfg.MQTT.BaseTopic),
		brightnessRegexp: brightnessCommandExtractor(cfg.MQTT.BaseTopic),
	}
}

type MQTTClient struct {
	client           mqtt.Client
	cfg              config.MQTTConfig
	commandRegexp    *regexp.Regexp
	brightnessRegexp *regexp.Regexp
}

type ParsedMQTTCommand struct {
	DeviceId string
	Command  string
	Param    string
	Payload  string
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) SensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), PLATFORM_SENSOR, sensorId)
}

func (c *MQTTClient) BinarySensorStateTopic(sensorId string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), PLATFORM_BINARY_SENSOR, sensorId)
}

func (c *MQTTClient) AlarmStateTopic(panelId string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), PLATFORM_ALARM_PANEL, panelId)
}

func (c *MQTTClient) AlarmCommandTopic(panelId string) string {
	return fmt.Sprintf("%s/%s/%s/command", c.baseTopic(), PLATFORM_ALARM_PANEL, panelId)
}

func (c *MQTTClient) SwitchStateTopic(switchId string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), PLATFORM_SWITCH, switchId)
}

func (c *MQTTClient) SwitchCommandTopic(switchId string) string {
	return fmt.Sprintf("%s/%s/%s/command", c.baseTopic(), PLATFORM_SWITCH, switchId)
}

func (c *MQTTClient) LightStateTopic(lightId string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), PLATFORM_LIGHT, lightId)
}

func (c *MQTTClient) LightCommandTopic(lightId string) string {
	return fmt.Sprintf("%s/%s/%s/command", c.baseTopic(), PLATFORM_LIGHT, lightId)
}

func (c *MQTTClient) LightBrightnessStateTopic(lightId string) string {
	return fmt.Sprintf("%s/%s/%s/brightness/state", c.baseTopic(), PLATFORM_LIGHT, lightId)
}

func (c *MQTTClient) LightBrightnessCommandTopic(lightId string) string {
	return fmt.Sprintf("%s/%s/%s/brightness/set", c.baseTopic(), PLATFORM_LIGHT, lightId)
}

func (c *MQTTClient) LockStateTopic(lockId string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), PLATFORM_LOCK, lockId)
}

func (c *MQTTClient) LockCommandTopic(lockId string) string {
	return fmt.Sprintf("%s/%s/%s/command", c.baseTopic(), PLATFORM_LOCK, lockId)
}

func (c *MQTTClient) CoverStateTopic(coverId string) string {
	return fmt.Sprintf("%s/%s/%s/state", c.baseTopic(), PLATFORM_COVER, coverId)
}

func (c *MQTTClient) CoverCommandTopic(coverId string) string {
	return fmt.Sprintf("%s/%s/%s/command", c.baseTopic(), PLATFORM_COVER, coverId)
}

func (c *MQTTClient) ButtonCommandTopic(buttonId string) string {
	return fmt.Sprintf("%s/%s/%s/command", c.baseTopic(), PLATFORM_BUTTON, buttonId)
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	platformCmd, err := c.parsePlatformMQTTCommand(msg)
	if err == nil {
		return platformCmd, nil
	}
	brightnessCmd, err := c.parseBrightnessMQTTCommand(msg)
	if err == nil {
		return brightnessCmd, nil
	}
	return nil, err
}

func (c *MQTTClient) parsePlatformMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	topic := msg.Topic()
	matches := c.commandRegexp.FindAllStringSubmatch(topic, 1)
	if len(matches) == 0 {
		return nil, errors.New("invalid command")
	}
	if len(matches[0]) != 3 {
		return nil, errors.New("invalid platform command")
	}
	return &ParsedMQTTCommand{
		DeviceId: matches[0][2],
		Command:  matches[0][1],
		Payload:  string(msg.Payload()),
	}, nil
}

func (c *MQTTClient) parseBrightnessMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	topic := msg.Topic()
	matches := c.brightnessRegexp.FindAllStringSubmatch(topic, 1)
	if len(matches) == 0 {
		return nil, errors.New("invalid command")
	}
	if len(matches[0]) != 2 {
		return nil, errors.New("invalid brightness command")
	}

	// try to parse a valid brightness value
	_, err := strconv.ParseUint(string(msg.Payload()), 10, 8)
	if err != nil {
		return nil, err
	}

	return &ParsedMQTTCommand{
		DeviceId: matches[0][1],
		Command:  PLATFORM_LIGHT,
		Param:    PARAM_BRIGHTNESS,
		Payload:  string(msg.Payload()),
	}, nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) SubscribeToCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.commandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	token := c.client.Unsubscribe(topic)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT unsubscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func (c *MQTTClient) commandTopic() string {
	return fmt.Sprintf("%s/#", c.baseTopic())
}

func commandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("%s/(alarm_control_panel|lock|switch|light|cover|button)/([a-zA-Z0-9_]+)/command", baseTopic))
}

func brightnessCommandExtractor(baseTopic string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("%s/light/([a-zA-Z0-9_]+)/brightness/set", baseTopic))
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}
