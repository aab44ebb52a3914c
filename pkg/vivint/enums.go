package vivint

import (
	"fmt"
)

// panel armed states
const (
	ArmedStateDisarmed              = 0
	ArmedStateArmingAwayInExitDelay = 1
	ArmedStateArmingStayInExitDelay = 2
	ArmedStateArmedStay             = 3
	ArmedStateArmedAway             = 4
	ArmedStateArmedStayInEntryDelay = 5
	ArmedStateArmedAwayInEntryDelay = 6
	ArmedStateAlarm                 = 7
	ArmedStateAlarmFire             = 8
	ArmedStateDisabled              = 11
	ArmedStateWalkTest              = 12
)

// panel armed state strings
const (
	ArmedStateDisarmedStr              = "disarmed"
	ArmedStateArmingAwayInExitDelayStr = "arming_away_in_exit_delay"
	ArmedStateArmingStayInExitDelayStr = "arming_stay_in_exit_delay"
	ArmedStateArmedStayStr             = "armed_stay"
	ArmedStateArmedAwayStr             = "armed_away"
	ArmedStateArmedStayInEntryDelayStr = "armed_stay_in_entry_delay"
	ArmedStateArmedAwayInEntryDelayStr = "armed_away_in_entry_delay"
	ArmedStateAlarmStr                 = "alarm"
	ArmedStateAlarmFireStr             = "alarm_fire"
	ArmedStateDisabledStr              = "disabled"
	ArmedStateWalkTestStr              = "walk_test"
	ArmedStateUnknownStr               = "unknown"
)

func ArmedStateToString(state uint8) string {
	switch state {
	case ArmedStateDisarmed:
		return ArmedStateDisarmedStr
	case ArmedStateArmingAwayInExitDelay:
		return ArmedStateArmingAwayInExitDelayStr
	case ArmedStateArmingStayInExitDelay:
		return ArmedStateArmingStayInExitDelayStr
	case ArmedStateArmedStay:
		return ArmedStateArmedStayStr
	case ArmedStateArmedAway:
		return ArmedStateArmedAwayStr
	case ArmedStateArmedStayInEntryDelay:
		return ArmedStateArmedStayInEntryDelayStr
	case ArmedStateArmedAwayInEntryDelay:
		return ArmedStateArmedAwayInEntryDelayStr
	case ArmedStateAlarm:
		return ArmedStateAlarmStr
	case ArmedStateAlarmFire:
		return ArmedStateAlarmFireStr
	case ArmedStateDisabled:
		return ArmedStateDisabledStr
	case ArmedStateWalkTest:
		return ArmedStateWalkTestStr
	default:
		return fmt.Sprintf("%s(%d)", ArmedStateUnknownStr, state)
	}
}

// garage door states
const (
	GarageDoorStateUnknown = 0
	GarageDoorStateClosed  = 1
	GarageDoorStateClosing = 2
	GarageDoorStateStopped = 3
	GarageDoorStateOpening = 4
	GarageDoorStateOpened  = 5
)

const (
	GarageDoorStateClosedStr  = "closed"
	GarageDoorStateClosingStr = "closing"
	GarageDoorStateStoppedStr = "stopped"
	GarageDoorStateOpeningStr = "opening"
	GarageDoorStateOpenedStr  = "open"
	GarageDoorStateUnknownStr = "unknown"
)

func GarageDoorStateToString(state uint8) string {
	switch state {
	case GarageDoorStateClosed:
		return GarageDoorStateClosedStr
	case GarageDoorStateClosing:
		return GarageDoorStateClosingStr
	case GarageDoorStateStopped:
		return GarageDoorStateStoppedStr
	case GarageDoorStateOpening:
		return GarageDoorStateOpeningStr
	case GarageDoorStateOpened:
		return GarageDoorStateOpenedStr
	default:
		return fmt.Sprintf("%s(%d)", GarageDoorStateUnknownStr, state)
	}
}

// wireless sensor equipment types
const (
	EquipmentTypeUnknown     = 0
	EquipmentTypeContact     = 1
	EquipmentTypeMotion      = 2
	EquipmentTypeFreeze      = 6
	EquipmentTypeWater       = 8
	EquipmentTypeTemperature = 10
	EquipmentTypeEmergency   = 11
)

// wireless sensor types
const (
	SensorTypeUnused               = 0
	SensorTypeExitEntry1           = 1
	SensorTypeExitEntry2           = 2
	SensorTypePerimeter            = 3
	SensorTypeInteriorFollower     = 4
	SensorTypeSilentAlarm          = 6
	SensorTypeAudibleAlarm         = 7
	SensorTypeFire                 = 9
	SensorTypeInteriorWithDelay    = 10
	SensorTypeCarbonMonoxide       = 14
	SensorTypeFireWithVerification = 16
)

// capability categories
const (
	CapabilityCategoryCamera   = 1
	CapabilityCategoryDoorbell = 2
	CapabilityCategorySwitch   = 3
	CapabilityCategoryLock     = 4
)

// capabilities
const (
	CapabilityAnimalDetection = 1
	CapabilityChimeExtender   = 2
	CapabilityPrivacyMode     = 3
	CapabilityRebootCamera    = 4
	CapabilitySoftDimming     = 5
)

// features
const (
	FeatureDeter        = 1
	FeatureSmartSentry  = 2
	FeatureDoorbellDing = 3
)

// camera settings accepted by SetCameraSetting
const (
	CameraSettingPrivacyMode   = "privacy_mode"
	CameraSettingDeterMode     = "deter_mode"
	CameraSettingChimeExtender = "chime_extender"
)

// device types as reported by the cloud API
const (
	DeviceTypePanel            = "primary_touch_link_device"
	DeviceTypeTouchPanel       = "secondary_touch_link_device"
	DeviceTypeBinarySwitch     = "binary_switch_device"
	DeviceTypeMultilevelSwitch = "multilevel_switch_device"
	DeviceTypeDoorLock         = "door_lock_device"
	DeviceTypeGarageDoor       = "garage_door_device"
	DeviceTypeCamera           = "camera_device"
	DeviceTypeWirelessSensor   = "wireless_sensor"
	DeviceTypeThermostat       = "thermostat_device"
	DeviceTypeKeypad           = "keypad_device"
)
