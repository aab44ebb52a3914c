package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

func TestDeviceIdentity(t *testing.T) {
	assert := assert.New(t)

	device := &vivint.Device{ID: 5, PanelID: 100}
	identity := DeviceIdentityFor(device)
	assert.Equal("vivint", identity.Domain)
	assert.Equal("100-5", identity.ID)
	assert.Equal("vivint_100-5", identity.String())
}

func TestDeviceIdentityCollapsesToParent(t *testing.T) {
	assert := assert.New(t)

	parent := &vivint.Device{ID: 7, PanelID: 100}
	child := &vivint.Device{ID: 8, PanelID: 100, Parent: parent}
	assert.Equal(DeviceIdentityFor(parent), DeviceIdentityFor(child))
	assert.Equal("100-7", DeviceIdentityFor(child).ID)
}

func TestDeviceIdentityCollapsesOneLevelOnly(t *testing.T) {
	assert := assert.New(t)

	top := &vivint.Device{ID: 3, PanelID: 100}
	mid := &vivint.Device{ID: 4, PanelID: 100, Parent: top}
	leaf := &vivint.Device{ID: 5, PanelID: 100, Parent: mid}
	assert.Equal("100-4", DeviceIdentityFor(leaf).ID)
}

func TestUniqueIds(t *testing.T) {
	assert := assert.New(t)

	device := &vivint.Device{ID: 5, PanelID: 100}
	assert.Equal("100-5", UniqueID(device))
	assert.Equal("100-5-battery_level", UniqueKey(device, SENSOR_KEY_BATTERY_LEVEL))

	// a wired-through unit keeps its own entity ids
	child := &vivint.Device{ID: 8, PanelID: 100, Parent: &vivint.Device{ID: 7, PanelID: 100}}
	assert.Equal("100-8", UniqueID(child))

	orphan := &vivint.Device{ID: 5}
	assert.Equal("5", UniqueID(orphan))
	assert.Equal("5-battery_level", UniqueKey(orphan, SENSOR_KEY_BATTERY_LEVEL))
}

func TestDeviceInfo(t *testing.T) {
	assert := assert.New(t)

	panel := &vivint.Device{
		ID: 1, PanelID: 100, Name: "Smart Hub", Type: vivint.DeviceTypePanel,
		Manufacturer: "Vivint", Model: "Smart Hub Gen2e", SoftwareVersion: "2.14.1",
	}
	lock := &vivint.Device{
		ID: 7, PanelID: 100, Name: "Back Door Lock", Type: vivint.DeviceTypeDoorLock,
		Manufacturer: "Kwikset", Model: "SmartCode 888", SoftwareVersion: "3.4",
	}

	panelInfo := DeviceInfoFor(panel, panel)
	assert.Equal("vivint_100-1", panelInfo.Id)
	assert.Empty(panelInfo.ViaDevice)

	lockInfo := DeviceInfoFor(lock, panel)
	assert.Equal("vivint_100-7", lockInfo.Id)
	assert.Equal("vivint_100-1", lockInfo.ViaDevice)
	assert.Equal("Back Door Lock", lockInfo.Name)
	assert.Equal("Kwikset", lockInfo.Manufacturer)
	assert.Equal("SmartCode 888", lockInfo.Model)
	assert.Equal("3.4", lockInfo.Version)
}

func TestDeviceInfoFrozen(t *testing.T) {
	assert := assert.New(t)

	lock := &vivint.Device{ID: 7, PanelID: 100, Name: "Back Door Lock", Type: vivint.DeviceTypeDoorLock}
	info := DeviceInfoFor(lock, nil)

	lock.Name = "Renamed Lock"
	assert.Equal("Back Door Lock", info.Name)
}

func TestHasCapability(t *testing.T) {
	assert := assert.New(t)

	camera := &vivint.Device{
		ID: 12, PanelID: 100, Type: vivint.DeviceTypeCamera,
		Capabilities: map[int][]int{
			vivint.CapabilityCategoryCamera: {vivint.CapabilityPrivacyMode},
		},
	}

	assert.True(HasCapability(camera, vivint.CapabilityCategoryCamera, vivint.CapabilityPrivacyMode))
	assert.False(HasCapability(camera, vivint.CapabilityCategoryCamera, vivint.CapabilityChimeExtender))
	assert.False(HasCapability(camera, vivint.CapabilityCategoryDoorbell, vivint.CapabilityPrivacyMode))
	assert.False(HasCapability(&vivint.Device{}, vivint.CapabilityCategoryCamera, vivint.CapabilityPrivacyMode))
	assert.False(HasCapability(nil, vivint.CapabilityCategoryCamera, vivint.CapabilityPrivacyMode))
}

func TestHasFeature(t *testing.T) {
	assert := assert.New(t)

	camera := &vivint.Device{Features: []int{vivint.FeatureDeter}}
	assert.True(HasFeature(camera, vivint.FeatureDeter))
	assert.False(HasFeature(camera, vivint.FeatureSmartSentry))
	assert.False(HasFeature(&vivint.Device{}, vivint.FeatureDeter))
	assert.False(HasFeature(nil, vivint.FeatureDeter))
}

func TestAlarmPanelState(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(ALARM_STATE_DISARMED, AlarmPanelState(vivint.ArmedStateDisarmed))
	assert.Equal(ALARM_STATE_ARMING, AlarmPanelState(vivint.ArmedStateArmingAwayInExitDelay))
	assert.Equal(ALARM_STATE_ARMING, AlarmPanelState(vivint.ArmedStateArmingStayInExitDelay))
	assert.Equal(ALARM_STATE_ARMED_HOME, AlarmPanelState(vivint.ArmedStateArmedStay))
	assert.Equal(ALARM_STATE_ARMED_AWAY, AlarmPanelState(vivint.ArmedStateArmedAway))
	assert.Equal(ALARM_STATE_PENDING, AlarmPanelState(vivint.ArmedStateArmedStayInEntryDelay))
	assert.Equal(ALARM_STATE_PENDING, AlarmPanelState(vivint.ArmedStateArmedAwayInEntryDelay))
	assert.Equal(ALARM_STATE_TRIGGERED, AlarmPanelState(vivint.ArmedStateAlarm))
	assert.Equal(ALARM_STATE_TRIGGERED, AlarmPanelState(vivint.ArmedStateAlarmFire))
	assert.Equal(ALARM_STATE_DISARMED, AlarmPanelState(vivint.ArmedStateDisabled))
	assert.Equal(ALARM_STATE_DISARMED, AlarmPanelState(vivint.ArmedStateWalkTest))
	assert.Equal("", AlarmPanelState(99))
}

func TestCoverState(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(COVER_STATE_CLOSED, CoverState(vivint.GarageDoorStateClosed))
	assert.Equal(COVER_STATE_CLOSING, CoverState(vivint.GarageDoorStateClosing))
	assert.Equal(COVER_STATE_OPENING, CoverState(vivint.GarageDoorStateOpening))
	assert.Equal(COVER_STATE_OPEN, CoverState(vivint.GarageDoorStateOpened))
	assert.Equal(COVER_STATE_STOPPED, CoverState(vivint.GarageDoorStateStopped))
	assert.Equal("", CoverState(vivint.GarageDoorStateUnknown))
}
