package mqtt

import (
	"fmt"

	"github.com/berfenger/vivint2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic,omitempty"`
	CommandTopic      string            `json:"command_topic,omitempty"`
	StateClass        string            `json:"state_class,omitempty"`
	DeviceClass       string            `json:"device_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	EnabledByDefault  *bool             `json:"enabled_by_default,omitempty"`
	PayloadOn         string            `json:"payload_on,omitempty"`
	PayloadOff        string            `json:"payload_off,omitempty"`
	Icon              string            `json:"icon,omitempty"`

	// alarm control panel
	Code              string   `json:"code,omitempty"`
	CodeArmRequired   *bool    `json:"code_arm_required,omitempty"`
	CommandTemplate   string   `json:"command_template,omitempty"`
	SupportedFeatures []string `json:"supported_features,omitempty"`

	// lock
	PayloadLock   string `json:"payload_lock,omitempty"`
	PayloadUnlock string `json:"payload_unlock,omitempty"`
	StateLocked   string `json:"state_locked,omitempty"`
	StateUnlocked string `json:"state_unlocked,omitempty"`

	// light
	BrightnessScale        uint8  `json:"brightness_scale,omitempty"`
	BrightnessStateTopic   string `json:"brightness_state_topic,omitempty"`
	BrightnessCommandTopic string `json:"brightness_command_topic,omitempty"`

	// cover
	PayloadOpen  string `json:"payload_open,omitempty"`
	PayloadClose string `json:"payload_close,omitempty"`

	// button
	PayloadPress string `json:"payload_press,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func HADiscoverySensorTopic(discoveryTopic string, sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func HADiscoveryAlarmPanelTopic(discoveryTopic string, panel domain.GenericAlarmPanel) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, PLATFORM_ALARM_PANEL, panel.Device.Id, panel.Id)
}

func HADiscoverySwitchTopic(discoveryTopic string, _switch domain.GenericSwitch) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, PLATFORM_SWITCH, _switch.Device.Id, _switch.Id)
}

func HADiscoveryLightTopic(discoveryTopic string, light domain.GenericLight) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, PLATFORM_LIGHT, light.Device.Id, light.Id)
}

func HADiscoveryLockTopic(discoveryTopic string, lock domain.GenericLock) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, PLATFORM_LOCK, lock.Device.Id, lock.Id)
}

func HADiscoveryCoverTopic(discoveryTopic string, cover domain.GenericCover) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, PLATFORM_COVER, cover.Device.Id, cover.Id)
}

func HADiscoveryButtonTopic(discoveryTopic string, button domain.GenericButton) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, PLATFORM_BUTTON, button.Device.Id, button.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	var topic string
	switch {
	case sensor.Id == domain.SENSOR_ID_BRIDGE_STATE:
		topic = client.BridgeStateTopic()
	case sensor.SensorType == domain.SENSOR_TYPE_SENSOR:
		topic = client.SensorStateTopic(sensor.Id)
	case sensor.SensorType == domain.SENSOR_TYPE_BINARY:
		topic = client.BinarySensorStateTopic(sensor.Id)
	}
	disConfig := HADiscoveryConfig{
		Device:            dev,
		StateTopic:        topic,
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		AvTopic:           client.BridgeStateTopic(),
		EntityCategory:    sensor.EntityCategory,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		EnabledByDefault:  sensor.EnabledByDefault,
		Platform:          "mqtt",
	}
	if sensor.Id == domain.SENSOR_ID_BRIDGE_STATE {
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
		// the bridge sensor is the availability source, do not gate it on itself
		disConfig.AvTopic = ""
	} else if sensor.SensorType == domain.SENSOR_TYPE_BINARY {
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	}
	return disConfig
}

func GenericAlarmPanelToHADiscoveryMessage(client *MQTTClient, panel domain.GenericAlarmPanel) HADiscoveryConfig {
	dev := device(panel.Device)
	disConfig := HADiscoveryConfig{
		Device:            dev,
		StateTopic:        client.AlarmStateTopic(panel.Id),
		CommandTopic:      client.AlarmCommandTopic(panel.Id),
		AvTopic:           client.BridgeStateTopic(),
		Name:              panel.Name,
		UniqueId:          panel.UniqueId,
		Platform:          "mqtt",
		CodeArmRequired:   optionalBool(false),
		SupportedFeatures: []string{"arm_home", "arm_away", "trigger"},
	}
	if panel.CodeDisarmRequired {
		// the host prompts for the code and appends it to the action
		disConfig.Code = "REMOTE_CODE"
		disConfig.CommandTemplate = "{{ action }},{{ code }}"
	}
	return disConfig
}

func GenericSwitchToHADiscoveryMessage(client *MQTTClient, _switch domain.GenericSwitch) HADiscoveryConfig {
	dev := device(_switch.Device)
	topic := client.SwitchStateTopic(_switch.Id)
	cmdTopic := client.SwitchCommandTopic(_switch.Id)
	disConfig := HADiscoveryConfig{
		Device:         dev,
		StateTopic:     topic,
		CommandTopic:   cmdTopic,
		AvTopic:        client.BridgeStateTopic(),
		EntityCategory: _switch.EntityCategory,
		Name:           _switch.Name,
		UniqueId:       _switch.UniqueId,
		Icon:           _switch.Icon,
		Platform:       "mqtt",
		PayloadOn:      MQTT_PAYLOAD_ON,
		PayloadOff:     MQTT_PAYLOAD_OFF,
	}
	return disConfig
}

func GenericLightToHADiscoveryMessage(client *MQTTClient, light domain.GenericLight) HADiscoveryConfig {
	dev := device(light.Device)
	disConfig := HADiscoveryConfig{
		Device:                 dev,
		StateTopic:             client.LightStateTopic(light.Id),
		CommandTopic:           client.LightCommandTopic(light.Id),
		AvTopic:                client.BridgeStateTopic(),
		Name:                   light.Name,
		UniqueId:               light.UniqueId,
		Icon:                   light.Icon,
		Platform:               "mqtt",
		PayloadOn:              MQTT_PAYLOAD_ON,
		PayloadOff:             MQTT_PAYLOAD_OFF,
		BrightnessScale:        light.BrightnessScale,
		BrightnessStateTopic:   client.LightBrightnessStateTopic(light.Id),
		BrightnessCommandTopic: client.LightBrightnessCommandTopic(light.Id),
	}
	return disConfig
}

func GenericLockToHADiscoveryMessage(client *MQTTClient, lock domain.GenericLock) HADiscoveryConfig {
	dev := device(lock.Device)
	disConfig := HADiscoveryConfig{
		Device:        dev,
		StateTopic:    client.LockStateTopic(lock.Id),
		CommandTopic:  client.LockCommandTopic(lock.Id),
		AvTopic:       client.BridgeStateTopic(),
		Name:          lock.Name,
		UniqueId:      lock.UniqueId,
		Icon:          lock.Icon,
		Platform:      "mqtt",
		PayloadLock:   MQTT_PAYLOAD_LOCK,
		PayloadUnlock: MQTT_PAYLOAD_UNLOCK,
		StateLocked:   MQTT_PAYLOAD_LOCKED,
		StateUnlocked: MQTT_PAYLOAD_UNLOCKED,
	}
	return disConfig
}

func GenericCoverToHADiscoveryMessage(client *MQTTClient, cover domain.GenericCover) HADiscoveryConfig {
	dev := device(cover.Device)
	disConfig := HADiscoveryConfig{
		Device:       dev,
		StateTopic:   client.CoverStateTopic(cover.Id),
		CommandTopic: client.CoverCommandTopic(cover.Id),
		AvTopic:      client.BridgeStateTopic(),
		DeviceClass:  cover.DeviceClass,
		Name:         cover.Name,
		UniqueId:     cover.UniqueId,
		Platform:     "mqtt",
		PayloadOpen:  domain.COVER_ACTION_OPEN,
		PayloadClose: domain.COVER_ACTION_CLOSE,
	}
	return disConfig
}

func GenericButtonToHADiscoveryMessage(client *MQTTClient, button domain.GenericButton) HADiscoveryConfig {
	dev := device(button.Device)
	disConfig := HADiscoveryConfig{
		Device:         dev,
		CommandTopic:   client.ButtonCommandTopic(button.Id),
		AvTopic:        client.BridgeStateTopic(),
		DeviceClass:    button.DeviceClass,
		EntityCategory: button.EntityCategory,
		Name:           button.Name,
		UniqueId:       button.UniqueId,
		Icon:           button.Icon,
		Platform:       "mqtt",
		PayloadPress:   MQTT_PAYLOAD_PRESS,
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}

func optionalBool(value bool) *bool {
	return &value
}
