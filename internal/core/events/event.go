package events

import (
	. "github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

// DeviceToUpdateEvents maps the current state of a device to update
// events for every entity it announces. Camera motion is excluded: it is
// driven by motion events and a reset timer, not by snapshots.
func DeviceToUpdateEvents(device *vivint.Device) []any {
	var events []any

	switch device.Type {
	case vivint.DeviceTypePanel:
		events = append(events, AlarmPanelUpdateEvents(device)...)
	case vivint.DeviceTypeWirelessSensor:
		events = append(events, WirelessSensorUpdateEvents(device)...)
	case vivint.DeviceTypeDoorLock:
		events = append(events, LockUpdateEvents(device)...)
	case vivint.DeviceTypeBinarySwitch:
		events = append(events, SwitchUpdateEvents(device)...)
	case vivint.DeviceTypeMultilevelSwitch:
		events = append(events, LightUpdateEvents(device)...)
	case vivint.DeviceTypeGarageDoor:
		events = append(events, CoverUpdateEvents(device)...)
	case vivint.DeviceTypeCamera:
		events = append(events, CameraUpdateEvents(device)...)
	}

	events = append(events, BatteryUpdateEvents(device)...)

	return events
}

func AlarmPanelUpdateEvents(device *vivint.Device) []any {
	var events []any

	// Panel armed state
	if state := AlarmPanelState(device.ArmedState); state != "" {
		events = append(events, AlarmStateUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{
				Id: EntityId(device),
			},
			State: state,
		})
	}

	return events
}

func WirelessSensorUpdateEvents(device *vivint.Device) []any {
	var events []any

	if device.SensorType == vivint.SensorTypeUnused {
		return events
	}

	// Sensor state
	events = append(events, BinarySensorUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityId(device),
		},
		Value: device.Triggered,
	})
	// Bypassed
	events = append(events, BinarySensorUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityKeyId(device, BINARY_KEY_BYPASSED),
		},
		Value: device.Bypassed,
	})
	// Tampered
	events = append(events, BinarySensorUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityKeyId(device, BINARY_KEY_TAMPERED),
		},
		Value: device.Tampered,
	})

	return events
}

func LockUpdateEvents(device *vivint.Device) []any {
	var events []any

	events = append(events, LockUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityId(device),
		},
		Locked: device.Locked,
	})

	return events
}

func SwitchUpdateEvents(device *vivint.Device) []any {
	var events []any

	events = append(events, SwitchUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityId(device),
		},
		Value: device.IsOn,
	})

	return events
}

func LightUpdateEvents(device *vivint.Device) []any {
	var events []any

	events = append(events, LightUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityId(device),
		},
		On:         device.IsOn,
		Brightness: device.Level,
	})

	return events
}

func CoverUpdateEvents(device *vivint.Device) []any {
	var events []any

	if state := CoverState(device.GarageState); state != "" {
		events = append(events, CoverUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{
				Id: EntityId(device),
			},
			State: state,
		})
	}

	return events
}

func CameraUpdateEvents(device *vivint.Device) []any {
	var events []any

	// Online
	events = append(events, BinarySensorUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityKeyId(device, BINARY_KEY_ONLINE),
		},
		Value: device.Online,
	})
	// Chime extender
	if HasCapability(device, vivint.CapabilityCategoryCamera, vivint.CapabilityChimeExtender) {
		events = append(events, SwitchUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{
				Id: EntityKeyId(device, SWITCH_KEY_CHIME_EXTENDER),
			},
			Value: device.ChimeExtender,
		})
	}
	// Privacy mode
	if HasCapability(device, vivint.CapabilityCategoryCamera, vivint.CapabilityPrivacyMode) {
		events = append(events, SwitchUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{
				Id: EntityKeyId(device, SWITCH_KEY_PRIVACY_MODE),
			},
			Value: device.PrivacyMode,
		})
	}
	// Deter mode
	if HasFeature(device, vivint.FeatureDeter) {
		events = append(events, SwitchUpdateEvent{
			EntityUpdateEventMixIn: EntityUpdateEventMixIn{
				Id: EntityKeyId(device, SWITCH_KEY_DETER_MODE),
			},
			Value: device.DeterMode,
		})
	}

	return events
}

func BatteryUpdateEvents(device *vivint.Device) []any {
	var events []any

	if device.BatteryLevel == nil || device.IsSubdevice() {
		return events
	}

	// Battery level
	events = append(events, FloatSensorUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityKeyId(device, SENSOR_KEY_BATTERY_LEVEL),
		},
		Value:    float64(*device.BatteryLevel),
		Decimals: 0,
	})

	return events
}

// CameraMotionUpdateEvent is published when motion starts and again when
// the reset timer clears it.
func CameraMotionUpdateEvent(device *vivint.Device, detected bool) any {
	return BinarySensorUpdateEvent{
		EntityUpdateEventMixIn: EntityUpdateEventMixIn{
			Id: EntityKeyId(device, BINARY_KEY_MOTION),
		},
		Value: detected,
	}
}
