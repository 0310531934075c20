package solaredge_modbus

func CreateTestInverterReader() (InverterReader, error) {
	return TestInverterReader{}, nil
}

func CreateTestMeterReader() (MeterReader, error) {
	return TestMeterReader{}, nil
}

// Inverter

type TestInverterReader struct {
}

func (reader TestInverterReader) Open() error {
	return nil
}

func (reader TestInverterReader) Close() error {
	return nil
}

func (reader TestInverterReader) Validate() error {
	return nil
}

func (reader TestInverterReader) GetInfo() (*DeviceInfo, error) {
	return &DeviceInfo{
		Manufacturer: "SolarEdge",
		Model:        "SE8K",
		Version:      "0004.0011.0030",
		Serial:       "7E123456",
	}, nil
}

func (reader TestInverterReader) GetACPower() (*PowerSample, error) {
	// 4120 W reported as 412 x 10^1
	return &PowerSample{
		Value:       412,
		ScaleFactor: 1,
	}, nil
}

// Meter

type TestMeterReader struct {
}

func (reader TestMeterReader) Open() error {
	return nil
}

func (reader TestMeterReader) Close() error {
	return nil
}

func (reader TestMeterReader) Validate() error {
	return nil
}

func (reader TestMeterReader) GetInfo() (*DeviceInfo, error) {
	return &DeviceInfo{
		Manufacturer: "SolarEdge",
		Model:        "SE-MTR-3Y-400V-A",
		Version:      "1.2",
		Serial:       "7M123456",
	}, nil
}

func (reader TestMeterReader) GetPower() (*PowerSample, error) {
	// 1205.3 W exported, reported as 12053 x 10^-1
	return &PowerSample{
		Value:       12053,
		ScaleFactor: -1,
	}, nil
}
