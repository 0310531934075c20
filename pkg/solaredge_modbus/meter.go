package solaredge_modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

type meterModbusBlocks struct {
	common  uint16
	acMeter uint16
}

func (blk *meterModbusBlocks) AllBlocksDefined() bool {
	return blk.common > 0 && blk.acMeter > 0
}

type MeterModbusReader struct {
	ModbusClient
	blocks meterModbusBlocks
}

func CreateMeterModbusReader(ip string, port uint, meterAddress uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) (MeterReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	// instrumentation
	var inst []ModbusInstrument
	logInst := debugLoggerInstrumentation(logger.With(zap.String("target", "acMeter"), zap.Uint8("acMeter", meterAddress)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	// set ac meter address
	if meterAddress > 0 {
		err = client.SetUnitId(meterAddress)
		if err != nil {
			return nil, err
		}
	}
	reader := MeterModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
	}
	return &reader, nil
}

func (reader *MeterModbusReader) Open() error {
	if err := reader.client.Open(); err != nil {
		return err
	}
	if err := reader.survey(); err != nil {
		return err
	}
	return nil
}

func (reader MeterModbusReader) Close() error {
	return reader.client.Close()
}

func (reader MeterModbusReader) Validate() error {
	str, err := reader.readString(40000, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return errors.New("could not find a SunSpec smart meter")
	}
	return nil
}

func (reader MeterModbusReader) GetInfo() (*DeviceInfo, error) {
	manufacturer, err := reader.readString(reader.blocks.common+2, 32)
	if err != nil {
		return nil, err
	}
	model, err := reader.readString(reader.blocks.common+18, 32)
	if err != nil {
		return nil, err
	}
	version, err := reader.readString(reader.blocks.common+42, 16)
	if err != nil {
		return nil, err
	}
	serial, err := reader.readString(reader.blocks.common+50, 32)
	if err != nil {
		return nil, err
	}

	return &DeviceInfo{
		Manufacturer: manufacturer,
		Model:        model,
		Version:      version,
		Serial:       serial,
	}, nil
}

// GetPower reads the total real power register pair of the meter model
// block. SolarEdge meters report export as positive power.
func (reader MeterModbusReader) GetPower() (*PowerSample, error) {
	totalRealPower, err := reader.readRegister(reader.blocks.acMeter+18, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	totalRealPowerSF, err := reader.readRegister(reader.blocks.acMeter+22, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	return &PowerSample{
		Value:       int16(totalRealPower),
		ScaleFactor: int16(totalRealPowerSF),
	}, nil
}

func (reader *MeterModbusReader) survey() error {

	// check SunSpec
	str, err := reader.readString(40000, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return errors.New("could not find a SunSpec smart meter")
	}

	// survey blocks
	blocks := meterModbusBlocks{}
	var baseAddr uint16 = 40002
	n := 0
	for {
		block, err := surveyModbusBlock(reader.client, baseAddr)
		if err != nil {
			return err
		}
		if block.isEndBlock() {
			break
		}
		// identify block
		switch block.id {
		case SUNSPEC_WK_COMMON:
			blocks.common = block.baseAddr
		case 201, 202, 203, 204:
			blocks.acMeter = block.baseAddr
		}
		baseAddr = baseAddr + block.length + 2
		// ensure the loop has an ending
		if blocks.AllBlocksDefined() || n > 10 {
			break
		}
		n++
	}
	if blocks.AllBlocksDefined() {
		reader.blocks = blocks
		return nil
	}
	return errors.New("could not find all required sunspec blocks (common, ac_meter)")
}
