package vivint

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Account is a session against the Vivint cloud. Implementations must be
// safe for concurrent use.
type Account interface {
	// Connect establishes the session. With loadDevices the device graph of
	// every system is fetched. subscribeRealtime asks the cloud for push
	// updates; without it update events only fire when Refresh detects a
	// change. Returns ErrMfaRequired when the account needs a second factor.
	Connect(ctx context.Context, loadDevices, subscribeRealtime bool) error
	// VerifyMfa completes a pending MFA challenge and finishes the
	// interrupted Connect.
	VerifyMfa(ctx context.Context, code string) error
	// Disconnect closes the session. Safe to call when not connected.
	Disconnect(ctx context.Context) error
	Connected() bool
	// Refresh re-reads every system and updates devices in place, emitting
	// update events for changed ones.
	Refresh(ctx context.Context) error
	// RefreshToken returns the token to persist for the next session.
	RefreshToken() string
	Systems() []*System
	FindDevice(panelID, deviceID uint64) *Device

	SetArmedState(ctx context.Context, panelID uint64, state uint8) error
	TriggerAlarm(ctx context.Context, panelID uint64) error
	SetLockState(ctx context.Context, panelID, deviceID uint64, locked bool) error
	SetSwitchState(ctx context.Context, panelID, deviceID uint64, on bool) error
	SetSwitchLevel(ctx context.Context, panelID, deviceID uint64, level uint8) error
	SetGarageDoorState(ctx context.Context, panelID, deviceID uint64, state uint8) error
	SetCameraSetting(ctx context.Context, panelID, deviceID uint64, setting string, enabled bool) error
	RebootPanel(ctx context.Context, panelID uint64) error
	RebootCamera(ctx context.Context, panelID, deviceID uint64) error
}

type AccountConfig struct {
	Username     string
	Password     string
	RefreshToken string
	// BaseURL overrides the production API endpoint, for tests.
	BaseURL    string
	HTTPClient *http.Client
	Instrument []Instrument
	// OnTokenRotate is called each time the cloud hands out a new
	// refresh token, so callers can persist it.
	OnTokenRotate func(token string)
}

type CloudAccount struct {
	client *restClient

	username string
	password string

	mu                sync.Mutex
	systems           []*System
	connected         bool
	loadDevices       bool
	subscribeRealtime bool
}

func NewAccount(cfg AccountConfig) *CloudAccount {
	client := newRestClient(cfg.BaseURL, cfg.HTTPClient, cfg.Instrument)
	client.refreshToken = cfg.RefreshToken
	client.onTokenRotate = cfg.OnTokenRotate
	return &CloudAccount{
		client:   client,
		username: cfg.Username,
		password: cfg.Password,
	}
}

func (a *CloudAccount) Connect(ctx context.Context, loadDevices, subscribeRealtime bool) error {
	a.mu.Lock()
	a.loadDevices = loadDevices
	a.subscribeRealtime = subscribeRealtime
	a.connected = false
	a.mu.Unlock()

	if err := a.authenticate(ctx); err != nil {
		return err
	}
	return a.completeConnect(ctx)
}

// authenticate prefers the persisted refresh token and falls back to the
// password when the token is rejected.
func (a *CloudAccount) authenticate(ctx context.Context) error {
	if token := a.client.currentRefreshToken(); token != "" {
		err := a.client.refreshSession(ctx, token)
		if err == nil || !IsAuthenticationError(err) {
			return err
		}
	}
	return a.client.login(ctx, a.username, a.password)
}

func (a *CloudAccount) VerifyMfa(ctx context.Context, code string) error {
	if err := a.client.verifyMfa(ctx, code); err != nil {
		return err
	}
	return a.completeConnect(ctx)
}

// completeConnect loads the account data once a full session exists.
func (a *CloudAccount) completeConnect(ctx context.Context) error {
	a.mu.Lock()
	loadDevices := a.loadDevices
	a.mu.Unlock()
	if loadDevices {
		if err := a.Refresh(ctx); err != nil {
			return err
		}
	}
	a.mu.Lock()
	a.connected = true
	a.mu.Unlock()
	return nil
}

func (a *CloudAccount) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	wasConnected := a.connected
	a.connected = false
	a.mu.Unlock()
	if !wasConnected {
		return nil
	}
	return a.client.logout(ctx)
}

func (a *CloudAccount) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

func (a *CloudAccount) RefreshToken() string {
	return a.client.currentRefreshToken()
}

func (a *CloudAccount) Systems() []*System {
	a.mu.Lock()
	defer a.mu.Unlock()
	systems := make([]*System, len(a.systems))
	copy(systems, a.systems)
	return systems
}

func (a *CloudAccount) FindDevice(panelID, deviceID uint64) *Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.systems {
		if s.ID != panelID {
			continue
		}
		return s.FindDevice(deviceID)
	}
	return nil
}

func (a *CloudAccount) Refresh(ctx context.Context) error {
	if !a.client.hasSession() {
		return ErrNotConnected
	}
	var authUser authUserResponse
	if err := a.client.doJSON(ctx, http.MethodGet, authUserPath, nil, &authUser); err != nil {
		return err
	}
	details := make([]systemDetailJSON, 0, len(authUser.Systems))
	for _, stub := range authUser.Systems {
		var detail systemResponse
		if err := a.client.doJSON(ctx, http.MethodGet, fmt.Sprintf(systemPath, stub.ID), nil, &detail); err != nil {
			return err
		}
		details = append(details, detail.System)
	}

	type pendingEvent struct {
		device *Device
		event  string
	}
	var events []pendingEvent

	a.mu.Lock()
	for _, detail := range details {
		system := a.findSystemLocked(detail.ID)
		if system == nil {
			a.systems = append(a.systems, parseSystem(detail))
			continue
		}
		system.Name = detail.Name
		system.IsAdmin = detail.IsAdmin
		for _, dj := range detail.Devices {
			device := system.FindDevice(dj.ID)
			if device == nil {
				system.Devices = append(system.Devices, parseDevice(system, dj))
				continue
			}
			changed, motion := applyDeviceState(device, dj)
			if changed {
				events = append(events, pendingEvent{device: device, event: EventUpdate})
			}
			if motion {
				events = append(events, pendingEvent{device: device, event: EventMotionDetected})
			}
		}
		linkParents(system)
	}
	a.mu.Unlock()

	// events fire outside the lock so handlers can read account state
	for _, ev := range events {
		ev.device.Emit(ev.event)
	}
	return nil
}

func (a *CloudAccount) findSystemLocked(id uint64) *System {
	for _, s := range a.systems {
		if s.ID == id {
			return s
		}
	}
	return nil
}

type armedStateRequest struct {
	ArmedState uint8 `json:"armed_state"`
}

type lockStateRequest struct {
	Locked bool `json:"locked"`
}

type switchStateRequest struct {
	On    *bool  `json:"on,omitempty"`
	Level *uint8 `json:"level,omitempty"`
}

type garageDoorRequest struct {
	State uint8 `json:"state"`
}

func (a *CloudAccount) SetArmedState(ctx context.Context, panelID uint64, state uint8) error {
	err := a.put(ctx, fmt.Sprintf(armedStatePath, panelID), armedStateRequest{ArmedState: state})
	if err != nil {
		return err
	}
	a.applyState(panelID, 0, func(d *Device) {
		if d.Type == DeviceTypePanel {
			d.ArmedState = state
		}
	})
	return nil
}

func (a *CloudAccount) TriggerAlarm(ctx context.Context, panelID uint64) error {
	err := a.post(ctx, fmt.Sprintf(alarmTriggerPath, panelID))
	if err != nil {
		return err
	}
	a.applyState(panelID, 0, func(d *Device) {
		if d.Type == DeviceTypePanel {
			d.ArmedState = ArmedStateAlarm
		}
	})
	return nil
}

func (a *CloudAccount) SetLockState(ctx context.Context, panelID, deviceID uint64, locked bool) error {
	err := a.put(ctx, fmt.Sprintf(lockPath, panelID, deviceID), lockStateRequest{Locked: locked})
	if err != nil {
		return err
	}
	a.applyState(panelID, deviceID, func(d *Device) {
		d.Locked = locked
	})
	return nil
}

func (a *CloudAccount) SetSwitchState(ctx context.Context, panelID, deviceID uint64, on bool) error {
	err := a.put(ctx, fmt.Sprintf(switchPath, panelID, deviceID), switchStateRequest{On: &on})
	if err != nil {
		return err
	}
	a.applyState(panelID, deviceID, func(d *Device) {
		d.IsOn = on
	})
	return nil
}

func (a *CloudAccount) SetSwitchLevel(ctx context.Context, panelID, deviceID uint64, level uint8) error {
	err := a.put(ctx, fmt.Sprintf(switchPath, panelID, deviceID), switchStateRequest{Level: &level})
	if err != nil {
		return err
	}
	a.applyState(panelID, deviceID, func(d *Device) {
		d.Level = level
		d.IsOn = level > 0
	})
	return nil
}

func (a *CloudAccount) SetGarageDoorState(ctx context.Context, panelID, deviceID uint64, state uint8) error {
	err := a.put(ctx, fmt.Sprintf(garageDoorPath, panelID, deviceID), garageDoorRequest{State: state})
	if err != nil {
		return err
	}
	a.applyState(panelID, deviceID, func(d *Device) {
		d.GarageState = state
	})
	return nil
}

func (a *CloudAccount) SetCameraSetting(ctx context.Context, panelID, deviceID uint64, setting string, enabled bool) error {
	err := a.put(ctx, fmt.Sprintf(cameraPath, panelID, deviceID), map[string]bool{setting: enabled})
	if err != nil {
		return err
	}
	a.applyState(panelID, deviceID, func(d *Device) {
		applyCameraSetting(d, setting, enabled)
	})
	return nil
}

func applyCameraSetting(d *Device, setting string, enabled bool) {
	switch setting {
	case CameraSettingPrivacyMode:
		d.PrivacyMode = enabled
	case CameraSettingDeterMode:
		d.DeterMode = enabled
	case CameraSettingChimeExtender:
		d.ChimeExtender = enabled
	}
}

func (a *CloudAccount) RebootPanel(ctx context.Context, panelID uint64) error {
	return a.post(ctx, fmt.Sprintf(panelRebootPath, panelID))
}

func (a *CloudAccount) RebootCamera(ctx context.Context, panelID, deviceID uint64) error {
	return a.post(ctx, fmt.Sprintf(cameraRebootPath, panelID, deviceID))
}

func (a *CloudAccount) put(ctx context.Context, path string, body any) error {
	if !a.client.hasSession() {
		return ErrNotConnected
	}
	return a.client.doJSON(ctx, http.MethodPut, path, body, nil)
}

func (a *CloudAccount) post(ctx context.Context, path string) error {
	if !a.client.hasSession() {
		return ErrNotConnected
	}
	return a.client.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// applyState optimistically updates a device after an accepted command.
// The next Refresh reconciles with the cloud. deviceID 0 targets the
// panel device.
func (a *CloudAccount) applyState(panelID, deviceID uint64, apply func(*Device)) {
	var target *Device
	a.mu.Lock()
	system := a.findSystemLocked(panelID)
	if system != nil {
		if deviceID == 0 {
			target = system.Panel()
		} else {
			target = system.FindDevice(deviceID)
		}
	}
	if target != nil {
		apply(target)
	}
	a.mu.Unlock()
	if target != nil {
		target.Emit(EventUpdate)
	}
}
