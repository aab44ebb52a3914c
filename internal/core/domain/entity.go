package domain

import (
	"fmt"

	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

const Domain = "vivint"

// DeviceIdentity is the stable identifier of a hub device entry.
type DeviceIdentity struct {
	Domain string
	ID     string
}

func (i DeviceIdentity) String() string {
	return fmt.Sprintf("%s_%s", i.Domain, i.ID)
}

// DeviceIdentityFor derives the identity of the hub device a unit belongs
// to. Units wired through another device collapse onto their parent, one
// level only, so both appear as a single hub device.
func DeviceIdentityFor(device *vivint.Device) DeviceIdentity {
	id := device.ID
	if device.Parent != nil {
		id = device.Parent.ID
	}
	return DeviceIdentity{Domain: Domain, ID: fmt.Sprintf("%d-%d", device.PanelID, id)}
}

// DeviceInfoFor builds the hub device record for a unit. The alarm panel
// anchors the tree: every other device points back to it through
// ViaDevice.
func DeviceInfoFor(device, panel *vivint.Device) Device {
	info := Device{
		Id:           DeviceIdentityFor(device).String(),
		Name:         device.Name,
		Manufacturer: device.Manufacturer,
		Model:        device.Model,
		Version:      device.SoftwareVersion,
	}
	if device.Type != vivint.DeviceTypePanel && panel != nil {
		info.ViaDevice = DeviceIdentityFor(panel).String()
	}
	return info
}

// UniqueID is the host-facing identifier of a device's main entity.
// Unlike DeviceIdentityFor it never collapses onto the parent, so a
// wired-through sensor keeps its own entities.
func UniqueID(device *vivint.Device) string {
	if device.PanelID != 0 {
		return fmt.Sprintf("%d-%d", device.PanelID, device.ID)
	}
	return fmt.Sprintf("%d", device.ID)
}

// UniqueKey is the host-facing identifier of a secondary entity.
func UniqueKey(device *vivint.Device, key string) string {
	return fmt.Sprintf("%s-%s", UniqueID(device), key)
}

// EntityId is the topic segment of a device's main entity. Topics only
// allow letters, digits and underscores.
func EntityId(device *vivint.Device) string {
	return fmt.Sprintf("%d_%d", device.PanelID, device.ID)
}

func EntityKeyId(device *vivint.Device, key string) string {
	return fmt.Sprintf("%d_%d_%s", device.PanelID, device.ID, key)
}

// HasCapability reports whether the device lists a capability under a
// category. Devices without a capability table have no capabilities.
func HasCapability(device *vivint.Device, category, capability int) bool {
	if device == nil || device.Capabilities == nil {
		return false
	}
	for _, c := range device.Capabilities[category] {
		if c == capability {
			return true
		}
	}
	return false
}

func HasFeature(device *vivint.Device, feature int) bool {
	if device == nil {
		return false
	}
	for _, f := range device.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// host alarm panel states
const (
	ALARM_STATE_DISARMED   = "disarmed"
	ALARM_STATE_ARMING     = "arming"
	ALARM_STATE_ARMED_HOME = "armed_home"
	ALARM_STATE_ARMED_AWAY = "armed_away"
	ALARM_STATE_PENDING    = "pending"
	ALARM_STATE_TRIGGERED  = "triggered"
)

// AlarmPanelState maps a panel armed state to the host's alarm states.
// Unknown states map to an empty string and are not published.
func AlarmPanelState(armedState uint8) string {
	switch armedState {
	case vivint.ArmedStateDisarmed, vivint.ArmedStateDisabled, vivint.ArmedStateWalkTest:
		return ALARM_STATE_DISARMED
	case vivint.ArmedStateArmingAwayInExitDelay, vivint.ArmedStateArmingStayInExitDelay:
		return ALARM_STATE_ARMING
	case vivint.ArmedStateArmedStay:
		return ALARM_STATE_ARMED_HOME
	case vivint.ArmedStateArmedAway:
		return ALARM_STATE_ARMED_AWAY
	case vivint.ArmedStateArmedStayInEntryDelay, vivint.ArmedStateArmedAwayInEntryDelay:
		return ALARM_STATE_PENDING
	case vivint.ArmedStateAlarm, vivint.ArmedStateAlarmFire:
		return ALARM_STATE_TRIGGERED
	default:
		return ""
	}
}

// host cover states
const (
	COVER_STATE_OPEN    = "open"
	COVER_STATE_OPENING = "opening"
	COVER_STATE_CLOSED  = "closed"
	COVER_STATE_CLOSING = "closing"
	COVER_STATE_STOPPED = "stopped"
)

func CoverState(garageState uint8) string {
	switch garageState {
	case vivint.GarageDoorStateClosed:
		return COVER_STATE_CLOSED
	case vivint.GarageDoorStateClosing:
		return COVER_STATE_CLOSING
	case vivint.GarageDoorStateOpening:
		return COVER_STATE_OPENING
	case vivint.GarageDoorStateOpened:
		return COVER_STATE_OPEN
	case vivint.GarageDoorStateStopped:
		return COVER_STATE_STOPPED
	default:
		return ""
	}
}
