package solaredge_modbus

// PowerSample is a raw SunSpec power register pair. The actual wattage is
// Value * 10^ScaleFactor; scaling is left to the caller so it can pick its
// own arithmetic.
type PowerSample struct {
	Value       int16
	ScaleFactor int16
}

type DeviceInfo struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
}

// InverterReader reads a SunSpec inverter exposed over Modbus TCP.
type InverterReader interface {
	Open() error
	Close() error
	Validate() error
	GetInfo() (*DeviceInfo, error)
	GetACPower() (*PowerSample, error)
}

// MeterReader reads a SunSpec AC meter. Positive power means the site is
// exporting to the grid, negative means importing.
type MeterReader interface {
	Open() error
	Close() error
	Validate() error
	GetInfo() (*DeviceInfo, error)
	GetPower() (*PowerSample, error)
}
