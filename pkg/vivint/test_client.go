package vivint

import (
	"context"
	"sync"
)

const TestMfaCode = "123456"

// TestAccount is an in-memory Account with a fixed device graph, for tests
// and for running the bridge without cloud access.
type TestAccount struct {
	// RequireMfa makes Connect return ErrMfaRequired until VerifyMfa is
	// called with TestMfaCode.
	RequireMfa bool
	// FailAuth makes Connect fail with an AuthenticationError.
	FailAuth bool
	// FailAPI makes Connect and Refresh fail with an APIError.
	FailAPI bool
	Token   string

	mu              sync.Mutex
	connected       bool
	mfaPending      bool
	systems         []*System
	refreshCount    int
	disconnectCount int
}

func CreateTestAccount() (*TestAccount, error) {
	return &TestAccount{
		Token:   "test-refresh-token",
		systems: []*System{CreateTestSystem()},
	}, nil
}

// CreateTestSystem builds a system with one device per supported kind,
// including a sensor wired through the door lock.
func CreateTestSystem() *System {
	system := &System{
		ID:      100,
		Name:    "Home",
		IsAdmin: true,
	}
	battery := func(level int) *int {
		return &level
	}
	panel := &Device{
		ID: 1, PanelID: 100, Name: "Smart Hub", Type: DeviceTypePanel,
		Manufacturer: "Vivint", Model: "Smart Hub Gen2e", SoftwareVersion: "2.14.1",
		ArmedState: ArmedStateDisarmed, CanReboot: true, Online: true,
	}
	doorSensor := &Device{
		ID: 5, PanelID: 100, Name: "Front Door", Type: DeviceTypeWirelessSensor,
		Manufacturer: "Vivint", Model: "DW11", SoftwareVersion: "1.0.2",
		EquipmentType: EquipmentTypeContact, SensorType: SensorTypeExitEntry1,
		EquipmentCode: "DW11_THIN_DOOR_WINDOW",
		BatteryLevel:  battery(80), Online: true,
	}
	motionSensor := &Device{
		ID: 6, PanelID: 100, Name: "Hallway Motion", Type: DeviceTypeWirelessSensor,
		Manufacturer: "Vivint", Model: "PIR1", SoftwareVersion: "1.1.0",
		EquipmentType: EquipmentTypeMotion, SensorType: SensorTypeInteriorFollower,
		EquipmentCode: "PIR1_MOTION",
		BatteryLevel:  battery(95), Online: true,
	}
	lock := &Device{
		ID: 7, PanelID: 100, Name: "Back Door Lock", Type: DeviceTypeDoorLock,
		Manufacturer: "Kwikset", Model: "SmartCode 888", SoftwareVersion: "3.4",
		Locked: true, BatteryLevel: battery(60), Online: true,
	}
	lockSensor := &Device{
		ID: 8, PanelID: 100, Name: "Back Door Lock Sensor", Type: DeviceTypeWirelessSensor,
		Manufacturer: "Kwikset", Model: "SmartCode 888",
		EquipmentType: EquipmentTypeContact, SensorType: SensorTypePerimeter,
		Parent:        lock, Online: true,
	}
	binarySwitch := &Device{
		ID: 9, PanelID: 100, Name: "Porch Outlet", Type: DeviceTypeBinarySwitch,
		Manufacturer: "Jasco", Model: "ZW4201", Online: true,
	}
	light := &Device{
		ID: 10, PanelID: 100, Name: "Living Room Dimmer", Type: DeviceTypeMultilevelSwitch,
		Manufacturer: "Jasco", Model: "ZW3005",
		IsOn:         true, Level: 40, Online: true,
	}
	garage := &Device{
		ID: 11, PanelID: 100, Name: "Garage Door", Type: DeviceTypeGarageDoor,
		Manufacturer: "Linear", Model: "GD00Z-8",
		GarageState:  GarageDoorStateClosed, Online: true,
	}
	camera := &Device{
		ID: 12, PanelID: 100, Name: "Doorbell Camera", Type: DeviceTypeCamera,
		Manufacturer: "Vivint", Model: "DBC350", SoftwareVersion: "5.0.1",
		Capabilities: map[int][]int{
			CapabilityCategoryCamera: {CapabilityChimeExtender, CapabilityPrivacyMode, CapabilityRebootCamera},
		},
		Features: []int{FeatureDeter},
		Online:   true,
	}
	system.Devices = []*Device{
		panel, doorSensor, motionSensor, lock, lockSensor,
		binarySwitch, light, garage, camera,
	}
	return system
}

func (a *TestAccount) Connect(ctx context.Context, loadDevices, subscribeRealtime bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	if a.FailAuth {
		return &AuthenticationError{Reason: "invalid credentials"}
	}
	if a.FailAPI {
		return &APIError{StatusCode: 503, Message: "service unavailable"}
	}
	if a.RequireMfa {
		a.mfaPending = true
		return ErrMfaRequired
	}
	a.connected = true
	return nil
}

func (a *TestAccount) VerifyMfa(ctx context.Context, code string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.mfaPending {
		return &APIError{StatusCode: 400, Message: "no pending mfa challenge"}
	}
	if code != TestMfaCode {
		return &AuthenticationError{Reason: "invalid verification code"}
	}
	a.mfaPending = false
	a.connected = true
	return nil
}

func (a *TestAccount) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
	a.disconnectCount++
	return nil
}

func (a *TestAccount) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

func (a *TestAccount) Refresh(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailAPI {
		return &APIError{StatusCode: 503, Message: "service unavailable"}
	}
	if !a.connected {
		return ErrNotConnected
	}
	a.refreshCount++
	return nil
}

func (a *TestAccount) RefreshToken() string {
	return a.Token
}

func (a *TestAccount) Systems() []*System {
	a.mu.Lock()
	defer a.mu.Unlock()
	systems := make([]*System, len(a.systems))
	copy(systems, a.systems)
	return systems
}

func (a *TestAccount) FindDevice(panelID, deviceID uint64) *Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.systems {
		if s.ID == panelID {
			return s.FindDevice(deviceID)
		}
	}
	return nil
}

func (a *TestAccount) RefreshCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshCount
}

func (a *TestAccount) DisconnectCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disconnectCount
}

func (a *TestAccount) SetArmedState(ctx context.Context, panelID uint64, state uint8) error {
	return a.mutate(panelID, 0, func(d *Device) {
		d.ArmedState = state
	})
}

func (a *TestAccount) TriggerAlarm(ctx context.Context, panelID uint64) error {
	return a.mutate(panelID, 0, func(d *Device) {
		d.ArmedState = ArmedStateAlarm
	})
}

func (a *TestAccount) SetLockState(ctx context.Context, panelID, deviceID uint64, locked bool) error {
	return a.mutate(panelID, deviceID, func(d *Device) {
		d.Locked = locked
	})
}

func (a *TestAccount) SetSwitchState(ctx context.Context, panelID, deviceID uint64, on bool) error {
	return a.mutate(panelID, deviceID, func(d *Device) {
		d.IsOn = on
	})
}

func (a *TestAccount) SetSwitchLevel(ctx context.Context, panelID, deviceID uint64, level uint8) error {
	return a.mutate(panelID, deviceID, func(d *Device) {
		d.Level = level
		d.IsOn = level > 0
	})
}

func (a *TestAccount) SetGarageDoorState(ctx context.Context, panelID, deviceID uint64, state uint8) error {
	return a.mutate(panelID, deviceID, func(d *Device) {
		d.GarageState = state
	})
}

func (a *TestAccount) SetCameraSetting(ctx context.Context, panelID, deviceID uint64, setting string, enabled bool) error {
	return a.mutate(panelID, deviceID, func(d *Device) {
		applyCameraSetting(d, setting, enabled)
	})
}

func (a *TestAccount) RebootPanel(ctx context.Context, panelID uint64) error {
	if !a.Connected() {
		return ErrNotConnected
	}
	return nil
}

func (a *TestAccount) RebootCamera(ctx context.Context, panelID, deviceID uint64) error {
	if !a.Connected() {
		return ErrNotConnected
	}
	return nil
}

func (a *TestAccount) mutate(panelID, deviceID uint64, apply func(*Device)) error {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return ErrNotConnected
	}
	var target *Device
	for _, s := range a.systems {
		if s.ID != panelID {
			continue
		}
		if deviceID == 0 {
			target = s.Panel()
		} else {
			target = s.FindDevice(deviceID)
		}
	}
	if target != nil {
		apply(target)
	}
	a.mu.Unlock()
	if target == nil {
		return &APIError{StatusCode: 404, Message: "device not found"}
	}
	target.Emit(EventUpdate)
	return nil
}

// EmitMotion simulates a camera motion push so tests can drive the motion
// pipeline without a cloud session.
func (a *TestAccount) EmitMotion(panelID, deviceID uint64) {
	device := a.FindDevice(panelID, deviceID)
	if device == nil {
		return
	}
	device.Emit(EventMotionDetected)
}

// ensure interface compliance
var _ Account = (*TestAccount)(nil)
var _ Account = (*CloudAccount)(nil)
