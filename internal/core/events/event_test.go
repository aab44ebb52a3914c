package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berfenger/vivint2mqtt/internal/core/domain"
	"github.com/berfenger/vivint2mqtt/pkg/vivint"
)

func TestPanelUpdateEvents(t *testing.T) {
	assert := assert.New(t)

	system := vivint.CreateTestSystem()
	events := DeviceToUpdateEvents(system.Panel())

	assert.Len(events, 1)
	alarm, ok := events[0].(domain.AlarmStateUpdateEvent)
	assert.True(ok)
	assert.Equal("100_1", alarm.EntityId())
	assert.Equal(domain.ALARM_STATE_DISARMED, alarm.State)
}

func TestLockUpdateEvents(t *testing.T) {
	assert := assert.New(t)

	system := vivint.CreateTestSystem()
	events := DeviceToUpdateEvents(system.FindDevice(7))

	assert.Len(events, 2)
	lock, ok := events[0].(domain.LockUpdateEvent)
	assert.True(ok)
	assert.Equal("100_7", lock.EntityId())
	assert.True(lock.Locked)

	battery, ok := events[1].(domain.FloatSensorUpdateEvent)
	assert.True(ok)
	assert.Equal("100_7_battery_level", battery.EntityId())
	assert.Equal(60.0, battery.Value)
}

func TestLightUpdateEvents(t *testing.T) {
	assert := assert.New(t)

	system := vivint.CreateTestSystem()
	events := DeviceToUpdateEvents(system.FindDevice(10))

	assert.Len(events, 1)
	light, ok := events[0].(domain.LightUpdateEvent)
	assert.True(ok)
	assert.Equal("100_10", light.EntityId())
	assert.True(light.On)
	assert.EqualValues(40, light.Brightness)
}

func TestCameraUpdateEvents(t *testing.T) {
	assert := assert.New(t)

	system := vivint.CreateTestSystem()
	events := DeviceToUpdateEvents(system.FindDevice(12))

	// online plus the three gated config switches, never motion
	assert.Len(events, 4)
	online, ok := events[0].(domain.BinarySensorUpdateEvent)
	assert.True(ok)
	assert.Equal("100_12_online", online.EntityId())
	assert.True(online.Value)
	for _, event := range events {
		update, ok := event.(domain.EntityUpdateEvent)
		assert.True(ok)
		assert.NotEqual("100_12_motion", update.EntityId())
	}
}

func TestWiredThroughSensorKeepsOwnEntityEvents(t *testing.T) {
	assert := assert.New(t)

	system := vivint.CreateTestSystem()
	events := DeviceToUpdateEvents(system.FindDevice(8))

	// state, bypassed, tampered; no battery of its own
	assert.Len(events, 3)
	state, ok := events[0].(domain.BinarySensorUpdateEvent)
	assert.True(ok)
	assert.Equal("100_8", state.EntityId())
}

func TestCameraMotionUpdateEvent(t *testing.T) {
	assert := assert.New(t)

	system := vivint.CreateTestSystem()
	event := CameraMotionUpdateEvent(system.FindDevice(12), true)

	motion, ok := event.(domain.BinarySensorUpdateEvent)
	assert.True(ok)
	assert.Equal("100_12_motion", motion.EntityId())
	assert.True(motion.Value)
}
