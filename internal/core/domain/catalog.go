package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/carlmjohnson/versioninfo"

	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

const (
	SENSOR_ID_BRIDGE_STATE = "bridge"

	SENSOR_KEY_BATTERY_LEVEL  = "battery_level"
	BINARY_KEY_BYPASSED       = "bypassed"
	BINARY_KEY_TAMPERED       = "tampered"
	BINARY_KEY_ONLINE         = "online"
	BINARY_KEY_MOTION         = "motion"
	SWITCH_KEY_CHIME_EXTENDER = "chime_extender"
	SWITCH_KEY_PRIVACY_MODE   = "privacy_mode"
	SWITCH_KEY_DETER_MODE     = "deter_mode"
	BUTTON_KEY_REBOOT         = "reboot"

	STATE_CLASS_MEASUREMENT = "measurement"

	DEVICE_CLASS_BATTERY      = "battery"
	DEVICE_CLASS_COLD         = "cold"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	DEVICE_CLASS_DOOR         = "door"
	DEVICE_CLASS_GARAGE       = "garage"
	DEVICE_CLASS_GARAGE_DOOR  = "garage_door"
	DEVICE_CLASS_GAS          = "gas"
	DEVICE_CLASS_HEAT         = "heat"
	DEVICE_CLASS_MOISTURE     = "moisture"
	DEVICE_CLASS_MOTION       = "motion"
	DEVICE_CLASS_RESTART      = "restart"
	DEVICE_CLASS_SAFETY       = "safety"
	DEVICE_CLASS_SMOKE        = "smoke"
	DEVICE_CLASS_TAMPER       = "tamper"
	DEVICE_CLASS_WINDOW       = "window"

	ENTITY_CLASS_DIAGNOSTIC = "diagnostic"
	ENTITY_CLASS_CONFIG     = "config"

	SENSOR_TYPE_SENSOR = "sensor"
	SENSOR_TYPE_BINARY = "binary_sensor"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("vivint2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Vivint2MQTT",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Vivint2MQTT %s", md5HashShort(baseTopic)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func AlarmPanelEntities(system *vivint.System, disarmCodeRequired bool) []GenericAlarmPanel {

	var panels []GenericAlarmPanel
	panel := system.Panel()
	if panel == nil {
		return panels
	}

	panels = append(panels, GenericAlarmPanel{
		Device:             DeviceInfoFor(panel, panel),
		Id:                 EntityId(panel),
		Name:               panel.Name,
		UniqueId:           UniqueID(panel),
		CodeDisarmRequired: disarmCodeRequired,
	})

	return panels
}

// SensorEntities builds a battery level sensor for every battery powered
// device. Wired-through units report through their parent's battery.
func SensorEntities(system *vivint.System) []GenericSensor {

	var sensors []GenericSensor
	panel := system.Panel()

	for _, device := range system.Devices {
		if device.BatteryLevel == nil || device.IsSubdevice() {
			continue
		}
		sensors = append(sensors, GenericSensor{
			Device:            DeviceInfoFor(device, panel),
			Id:                EntityKeyId(device, SENSOR_KEY_BATTERY_LEVEL),
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              fmt.Sprintf("%s Battery level", device.Name),
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_BATTERY,
			EntityCategory:    ENTITY_CLASS_DIAGNOSTIC,
			UnitOfMeasurement: "%",
			UniqueId:          UniqueKey(device, SENSOR_KEY_BATTERY_LEVEL),
		})
	}

	return sensors
}

func BinarySensorEntities(system *vivint.System) []GenericSensor {

	var sensors []GenericSensor
	panel := system.Panel()

	for _, device := range system.Devices {
		switch device.Type {
		case vivint.DeviceTypeWirelessSensor:
			if device.SensorType == vivint.SensorTypeUnused {
				continue
			}
			info := DeviceInfoFor(device, panel)

			// Sensor state
			sensors = append(sensors, GenericSensor{
				Device:      info,
				Id:          EntityId(device),
				SensorType:  SENSOR_TYPE_BINARY,
				Name:        device.Name,
				DeviceClass: wirelessSensorDeviceClass(device),
				UniqueId:    UniqueID(device),
			})

			// Bypassed
			sensors = append(sensors, GenericSensor{
				Device:           info,
				Id:               EntityKeyId(device, BINARY_KEY_BYPASSED),
				SensorType:       SENSOR_TYPE_BINARY,
				Name:             fmt.Sprintf("%s Bypassed", device.Name),
				DeviceClass:      DEVICE_CLASS_SAFETY,
				EntityCategory:   ENTITY_CLASS_DIAGNOSTIC,
				EnabledByDefault: optionalBool(false),
				UniqueId:         UniqueKey(device, BINARY_KEY_BYPASSED),
			})

			// Tampered
			sensors = append(sensors, GenericSensor{
				Device:           info,
				Id:               EntityKeyId(device, BINARY_KEY_TAMPERED),
				SensorType:       SENSOR_TYPE_BINARY,
				Name:             fmt.Sprintf("%s Tampered", device.Name),
				DeviceClass:      DEVICE_CLASS_TAMPER,
				EntityCategory:   ENTITY_CLASS_DIAGNOSTIC,
				EnabledByDefault: optionalBool(false),
				UniqueId:         UniqueKey(device, BINARY_KEY_TAMPERED),
			})

		case vivint.DeviceTypeCamera:
			info := DeviceInfoFor(device, panel)

			// Motion, cleared a while after the last detection
			sensors = append(sensors, GenericSensor{
				Device:      info,
				Id:          EntityKeyId(device, BINARY_KEY_MOTION),
				SensorType:  SENSOR_TYPE_BINARY,
				Name:        fmt.Sprintf("%s Motion", device.Name),
				DeviceClass: DEVICE_CLASS_MOTION,
				UniqueId:    UniqueKey(device, BINARY_KEY_MOTION),
			})

			// Online
			sensors = append(sensors, GenericSensor{
				Device:         info,
				Id:             EntityKeyId(device, BINARY_KEY_ONLINE),
				SensorType:     SENSOR_TYPE_BINARY,
				Name:           fmt.Sprintf("%s Online", device.Name),
				DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
				EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
				UniqueId:       UniqueKey(device, BINARY_KEY_ONLINE),
			})
		}
	}

	return sensors
}

func SwitchEntities(system *vivint.System) []GenericSwitch {

	var switches []GenericSwitch
	panel := system.Panel()

	for _, device := range system.Devices {
		switch device.Type {
		case vivint.DeviceTypeBinarySwitch:
			switches = append(switches, GenericSwitch{
				Device:   DeviceInfoFor(device, panel),
				Id:       EntityId(device),
				Name:     device.Name,
				UniqueId: UniqueID(device),
			})
		case vivint.DeviceTypeCamera:
			info := DeviceInfoFor(device, panel)
			if HasCapability(device, vivint.CapabilityCategoryCamera, vivint.CapabilityChimeExtender) {
				switches = append(switches, GenericSwitch{
					Device:         info,
					Id:             EntityKeyId(device, SWITCH_KEY_CHIME_EXTENDER),
					Name:           fmt.Sprintf("%s Chime extender", device.Name),
					EntityCategory: ENTITY_CLASS_CONFIG,
					UniqueId:       UniqueKey(device, SWITCH_KEY_CHIME_EXTENDER),
					Icon:           "mdi:bell-ring",
				})
			}
			if HasCapability(device, vivint.CapabilityCategoryCamera, vivint.CapabilityPrivacyMode) {
				switches = append(switches, GenericSwitch{
					Device:         info,
					Id:             EntityKeyId(device, SWITCH_KEY_PRIVACY_MODE),
					Name:           fmt.Sprintf("%s Privacy mode", device.Name),
					EntityCategory: ENTITY_CLASS_CONFIG,
					UniqueId:       UniqueKey(device, SWITCH_KEY_PRIVACY_MODE),
					Icon:           "mdi:eye-off",
				})
			}
			if HasFeature(device, vivint.FeatureDeter) {
				switches = append(switches, GenericSwitch{
					Device:         info,
					Id:             EntityKeyId(device, SWITCH_KEY_DETER_MODE),
					Name:           fmt.Sprintf("%s Deter mode", device.Name),
					EntityCategory: ENTITY_CLASS_CONFIG,
					UniqueId:       UniqueKey(device, SWITCH_KEY_DETER_MODE),
					Icon:           "mdi:alarm-light",
				})
			}
		}
	}

	return switches
}

func LightEntities(system *vivint.System) []GenericLight {

	var lights []GenericLight
	panel := system.Panel()

	for _, device := range system.Devices {
		if device.Type != vivint.DeviceTypeMultilevelSwitch {
			continue
		}
		lights = append(lights, GenericLight{
			Device:          DeviceInfoFor(device, panel),
			Id:              EntityId(device),
			Name:            device.Name,
			UniqueId:        UniqueID(device),
			BrightnessScale: 100,
		})
	}

	return lights
}

func LockEntities(system *vivint.System) []GenericLock {

	var locks []GenericLock
	panel := system.Panel()

	for _, device := range system.Devices {
		if device.Type != vivint.DeviceTypeDoorLock {
			continue
		}
		locks = append(locks, GenericLock{
			Device:   DeviceInfoFor(device, panel),
			Id:       EntityId(device),
			Name:     device.Name,
			UniqueId: UniqueID(device),
		})
	}

	return locks
}

func CoverEntities(system *vivint.System) []GenericCover {

	var covers []GenericCover
	panel := system.Panel()

	for _, device := range system.Devices {
		if device.Type != vivint.DeviceTypeGarageDoor {
			continue
		}
		covers = append(covers, GenericCover{
			Device:      DeviceInfoFor(device, panel),
			Id:          EntityId(device),
			Name:        device.Name,
			UniqueId:    UniqueID(device),
			DeviceClass: DEVICE_CLASS_GARAGE,
		})
	}

	return covers
}

func ButtonEntities(system *vivint.System) []GenericButton {

	var buttons []GenericButton
	panel := system.Panel()

	if panel != nil && system.IsAdmin && panel.CanReboot {
		// Panel reboot
		buttons = append(buttons, GenericButton{
			Device:         DeviceInfoFor(panel, panel),
			Id:             EntityKeyId(panel, BUTTON_KEY_REBOOT),
			Name:           fmt.Sprintf("%s Reboot", panel.Name),
			DeviceClass:    DEVICE_CLASS_RESTART,
			EntityCategory: ENTITY_CLASS_CONFIG,
			UniqueId:       UniqueKey(panel, BUTTON_KEY_REBOOT),
		})
	}

	for _, device := range system.Devices {
		if device.Type != vivint.DeviceTypeCamera {
			continue
		}
		if !HasCapability(device, vivint.CapabilityCategoryCamera, vivint.CapabilityRebootCamera) {
			continue
		}
		// Camera reboot
		buttons = append(buttons, GenericButton{
			Device:         DeviceInfoFor(device, panel),
			Id:             EntityKeyId(device, BUTTON_KEY_REBOOT),
			Name:           fmt.Sprintf("%s Reboot", device.Name),
			DeviceClass:    DEVICE_CLASS_RESTART,
			EntityCategory: ENTITY_CLASS_CONFIG,
			UniqueId:       UniqueKey(device, BUTTON_KEY_REBOOT),
		})
	}

	return buttons
}

func wirelessSensorDeviceClass(device *vivint.Device) string {
	switch device.EquipmentType {
	case vivint.EquipmentTypeMotion:
		return DEVICE_CLASS_MOTION
	case vivint.EquipmentTypeFreeze:
		return DEVICE_CLASS_COLD
	case vivint.EquipmentTypeWater:
		return DEVICE_CLASS_MOISTURE
	case vivint.EquipmentTypeTemperature:
		return DEVICE_CLASS_HEAT
	case vivint.EquipmentTypeContact:
		switch device.SensorType {
		case vivint.SensorTypeExitEntry1, vivint.SensorTypeExitEntry2:
			if strings.Contains(device.EquipmentCode, "TILT") {
				return DEVICE_CLASS_GARAGE_DOOR
			}
			return DEVICE_CLASS_DOOR
		case vivint.SensorTypePerimeter:
			if strings.Contains(device.EquipmentCode, "GLASS_BREAK") {
				return DEVICE_CLASS_SAFETY
			}
			return DEVICE_CLASS_WINDOW
		case vivint.SensorTypeFire, vivint.SensorTypeFireWithVerification:
			return DEVICE_CLASS_SMOKE
		case vivint.SensorTypeCarbonMonoxide:
			return DEVICE_CLASS_GAS
		default:
			return DEVICE_CLASS_SAFETY
		}
	default:
		return DEVICE_CLASS_SAFETY
	}
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
