package vivint

import (
	"sync"
)

// device events
const (
	EventUpdate         = "update"
	EventMotionDetected = "motion_detected"
)

type EventHandler func(device *Device)

// System is a monitored installation. Its ID doubles as the panel id used
// by the cloud API on every device route.
type System struct {
	ID      uint64
	Name    string
	IsAdmin bool
	Devices []*Device
}

// Panel returns the alarm panel device of the system, or nil if the
// account returned no panel.
func (s *System) Panel() *Device {
	for _, d := range s.Devices {
		if d.Type == DeviceTypePanel {
			return d
		}
	}
	return nil
}

func (s *System) FindDevice(deviceID uint64) *Device {
	for _, d := range s.Devices {
		if d.ID == deviceID {
			return d
		}
	}
	return nil
}

// Device is a single physical unit reported by the cloud API. State fields
// are refreshed in place so handler callbacks always observe the latest
// values through the pointer they captured.
type Device struct {
	ID              uint64
	PanelID         uint64
	Name            string
	Type            string
	Manufacturer    string
	Model           string
	SoftwareVersion string

	// Parent is set for units wired through another device, e.g. a sensor
	// integrated in a door lock. Only one level of nesting occurs.
	Parent *Device

	// Capabilities groups capability ids by category id.
	Capabilities map[int][]int
	Features     []int

	EquipmentType int
	SensorType    int
	EquipmentCode string

	// BatteryLevel is nil for mains powered devices.
	BatteryLevel *int
	LowBattery   bool

	Online   bool
	Bypassed bool
	Tampered bool

	// wireless sensor
	Triggered bool

	// panel
	ArmedState uint8
	CanReboot  bool

	// lock
	Locked bool

	// switches and lights, Level in 0..100
	IsOn  bool
	Level uint8

	// garage door
	GarageState uint8

	// camera
	MotionDetected bool
	PrivacyMode    bool
	DeterMode      bool
	ChimeExtender  bool

	mu        sync.Mutex
	handlers  map[string]map[int]EventHandler
	handlerID int
}

func (d *Device) IsSubdevice() bool {
	return d.Parent != nil
}

// On registers a handler for an event and returns a function that removes
// it. The returned function is safe to call more than once.
func (d *Device) On(event string, handler EventHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = make(map[string]map[int]EventHandler)
	}
	if d.handlers[event] == nil {
		d.handlers[event] = make(map[int]EventHandler)
	}
	d.handlerID++
	id := d.handlerID
	d.handlers[event][id] = handler
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.handlers[event], id)
	}
}

// Emit invokes every handler registered for the event, synchronously and
// in unspecified order.
func (d *Device) Emit(event string) {
	d.mu.Lock()
	handlers := make([]EventHandler, 0, len(d.handlers[event]))
	for _, h := range d.handlers[event] {
		handlers = append(handlers, h)
	}
	d.mu.Unlock()
	for _, h := range handlers {
		h(d)
	}
}
