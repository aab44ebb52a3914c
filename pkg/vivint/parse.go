package vivint

type authUserResponse struct {
	Systems []systemStubJSON `json:"systems"`
}

type systemStubJSON struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type systemResponse struct {
	System systemDetailJSON `json:"system"`
}

type systemDetailJSON struct {
	ID      uint64       `json:"id"`
	Name    string       `json:"name"`
	IsAdmin bool         `json:"is_admin"`
	Devices []deviceJSON `json:"devices"`
}

type capabilityJSON struct {
	Category     int   `json:"category"`
	Capabilities []int `json:"capabilities"`
}

type deviceJSON struct {
	ID              uint64           `json:"id"`
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Manufacturer    string           `json:"manufacturer"`
	Model           string           `json:"model"`
	FirmwareVersion string           `json:"firmware_version"`
	ParentID        uint64           `json:"parent_id"`
	Capabilities    []capabilityJSON `json:"capabilities"`
	Features        []int            `json:"features"`
	EquipmentType   int              `json:"equipment_type"`
	SensorType      int              `json:"sensor_type"`
	EquipmentCode   string           `json:"equipment_code"`
	BatteryLevel    *int             `json:"battery_level"`
	LowBattery      bool             `json:"low_battery"`
	Online          bool             `json:"online"`
	Bypassed        bool             `json:"bypassed"`
	Tampered        bool             `json:"tampered"`
	Triggered       bool             `json:"triggered"`
	ArmedState      uint8            `json:"armed_state"`
	CanReboot       bool             `json:"can_reboot"`
	Locked          bool             `json:"locked"`
	On              bool             `json:"on"`
	Level           uint8            `json:"level"`
	GarageState     uint8            `json:"garage_state"`
	MotionDetected  bool             `json:"motion_detected"`
	PrivacyMode     bool             `json:"privacy_mode"`
	DeterMode       bool             `json:"deter_mode"`
	ChimeExtender   bool             `json:"chime_extender"`
}

func parseSystem(detail systemDetailJSON) *System {
	system := &System{
		ID:      detail.ID,
		Name:    detail.Name,
		IsAdmin: detail.IsAdmin,
	}
	for _, dj := range detail.Devices {
		system.Devices = append(system.Devices, parseDevice(system, dj))
	}
	linkParents(system)
	return system
}

func parseDevice(system *System, dj deviceJSON) *Device {
	device := &Device{
		ID:              dj.ID,
		PanelID:         system.ID,
		Name:            dj.Name,
		Type:            dj.Type,
		Manufacturer:    dj.Manufacturer,
		Model:           dj.Model,
		SoftwareVersion: dj.FirmwareVersion,
		Features:        dj.Features,
		EquipmentType:   dj.EquipmentType,
		SensorType:      dj.SensorType,
		EquipmentCode:   dj.EquipmentCode,
		BatteryLevel:    dj.BatteryLevel,
		LowBattery:      dj.LowBattery,
		Online:          dj.Online,
		Bypassed:        dj.Bypassed,
		Tampered:        dj.Tampered,
		Triggered:       dj.Triggered,
		ArmedState:      dj.ArmedState,
		CanReboot:       dj.CanReboot,
		Locked:          dj.Locked,
		IsOn:            dj.On,
		Level:           dj.Level,
		GarageState:     dj.GarageState,
		MotionDetected:  dj.MotionDetected,
		PrivacyMode:     dj.PrivacyMode,
		DeterMode:       dj.DeterMode,
		ChimeExtender:   dj.ChimeExtender,
	}
	if len(dj.Capabilities) > 0 {
		device.Capabilities = make(map[int][]int, len(dj.Capabilities))
		for _, group := range dj.Capabilities {
			device.Capabilities[group.Category] = group.Capabilities
		}
	}
	// parent links are resolved by linkParents once every device exists
	if dj.ParentID != 0 {
		device.Parent = &Device{ID: dj.ParentID}
	}
	return device
}

// linkParents replaces placeholder parents with the real device. A parent
// id that matches no device leaves the device top level.
func linkParents(system *System) {
	for _, d := range system.Devices {
		if d.Parent == nil || d.Parent.PanelID != 0 {
			continue
		}
		d.Parent = system.FindDevice(d.Parent.ID)
	}
}

// applyDeviceState copies refreshed state onto an existing device and
// reports whether anything changed and whether motion started.
func applyDeviceState(device *Device, dj deviceJSON) (changed bool, motionStarted bool) {
	changed = device.Name != dj.Name ||
		device.SoftwareVersion != dj.FirmwareVersion ||
		device.LowBattery != dj.LowBattery ||
		device.Online != dj.Online ||
		device.Bypassed != dj.Bypassed ||
		device.Tampered != dj.Tampered ||
		device.Triggered != dj.Triggered ||
		device.ArmedState != dj.ArmedState ||
		device.CanReboot != dj.CanReboot ||
		device.Locked != dj.Locked ||
		device.IsOn != dj.On ||
		device.Level != dj.Level ||
		device.GarageState != dj.GarageState ||
		device.MotionDetected != dj.MotionDetected ||
		device.PrivacyMode != dj.PrivacyMode ||
		device.DeterMode != dj.DeterMode ||
		device.ChimeExtender != dj.ChimeExtender ||
		batteryChanged(device.BatteryLevel, dj.BatteryLevel)
	motionStarted = dj.MotionDetected && !device.MotionDetected

	device.Name = dj.Name
	device.SoftwareVersion = dj.FirmwareVersion
	device.BatteryLevel = dj.BatteryLevel
	device.LowBattery = dj.LowBattery
	device.Online = dj.Online
	device.Bypassed = dj.Bypassed
	device.Tampered = dj.Tampered
	device.Triggered = dj.Triggered
	device.ArmedState = dj.ArmedState
	device.CanReboot = dj.CanReboot
	device.Locked = dj.Locked
	device.IsOn = dj.On
	device.Level = dj.Level
	device.GarageState = dj.GarageState
	device.MotionDetected = dj.MotionDetected
	device.PrivacyMode = dj.PrivacyMode
	device.DeterMode = dj.DeterMode
	device.ChimeExtender = dj.ChimeExtender
	return changed, motionStarted
}

func batteryChanged(a, b *int) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}
