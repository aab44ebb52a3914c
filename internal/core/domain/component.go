package domain

// Device is the hub metadata attached to every entity. It is built once
// from the cloud device and never mutated afterwards.
type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string // sensor, binary_sensor
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string // battery, door, motion, smoke, ...
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
}

type GenericSwitch struct {
	Device         Device
	Id             string
	Name           string
	UniqueId       string
	EntityCategory string
	Icon           string
}

type GenericLight struct {
	Device   Device
	Id       string
	Name     string
	UniqueId string
	// BrightnessScale is the maximum brightness value of the command
	// payload, so the host sends device units directly.
	BrightnessScale uint8
	Icon            string
}

type GenericLock struct {
	Device   Device
	Id       string
	Name     string
	UniqueId string
	Icon     string
}

type GenericCover struct {
	Device      Device
	Id          string
	Name        string
	UniqueId    string
	DeviceClass string // garage
}

type GenericAlarmPanel struct {
	Device   Device
	Id       string
	Name     string
	UniqueId string
	// CodeDisarmRequired makes the host prompt for a code that is sent
	// along with the disarm action.
	CodeDisarmRequired bool
}

type GenericButton struct {
	Device         Device
	Id             string
	Name           string
	UniqueId       string
	DeviceClass    string // restart
	EntityCategory string
	Icon           string
}
