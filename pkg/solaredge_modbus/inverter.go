package solaredge_modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

const (
	SUNSPEC_WK_COMMON        = 1
	SUNSPEC_WK_INVERTERS_MIN = 101
	SUNSPEC_WK_INVERTERS_MAX = 103
)

type inverterModbusBlocks struct {
	common   uint16
	inverter uint16
}

func (blk *inverterModbusBlocks) AllBlocksDefined() bool {
	return blk.common > 0 && blk.inverter > 0
}

type InverterModbusReader struct {
	ModbusClient

	logger *zap.Logger
	blocks inverterModbusBlocks
}

func CreateInverterModbusReader(ip string, port uint, inverterAddress uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) (InverterReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	// instrumentation
	var inst []ModbusInstrument
	logInst := debugLoggerInstrumentation(logger.With(zap.String("target", "inverter"), zap.Uint8("inverter", inverterAddress)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	// set inverter address
	if inverterAddress > 0 {
		err = client.SetUnitId(inverterAddress)
		if err != nil {
			return nil, err
		}
	}

	reader := InverterModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
		logger: logger,
	}
	return &reader, nil
}

func (inv *InverterModbusReader) Open() error {
	if err := inv.client.Open(); err != nil {
		return err
	}
	if err := inv.survey(); err != nil {
		return err
	}
	return nil
}

func (inv InverterModbusReader) Close() error {
	return inv.client.Close()
}

func (inv InverterModbusReader) Validate() error {
	str, err := inv.readString(inv.blocks.common+2, 32)
	if err != nil {
		return err
	}
	if str != "SolarEdge" {
		return errors.New("could not find a SolarEdge inverter")
	}
	return nil
}

func (inv InverterModbusReader) GetInfo() (*DeviceInfo, error) {
	manufacturer, err := inv.readString(inv.blocks.common+2, 32)
	if err != nil {
		return nil, err
	}
	model, err := inv.readString(inv.blocks.common+18, 32)
	if err != nil {
		return nil, err
	}
	version, err := inv.readString(inv.blocks.common+42, 16)
	if err != nil {
		return nil, err
	}
	serial, err := inv.readString(inv.blocks.common+50, 32)
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

// GetACPower reads the W and W_SF registers of the inverter model block.
func (inv InverterModbusReader) GetACPower() (*PowerSample, error) {
	acpower, err := inv.readRegisters(inv.blocks.inverter+14, 2, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	return &PowerSample{
		Value:       int16(acpower[0]),
		ScaleFactor: int16(acpower[1]),
	}, nil
}

func (inv *InverterModbusReader) survey() error {

	// check SunSpec
	str, err := inv.readString(40000, 4)
	if err != nil {
		return err
	}
	if str != "SunS" {
		return errors.New("could not find a SunSpec inverter")
	}

	// survey blocks
	blocks := inverterModbusBlocks{}
	var baseAddr uint16 = 40002
	n := 0
	for {
		block, err := surveyModbusBlock(inv.client, baseAddr)
		if err != nil {
			return err
		}
		if block.isEndBlock() {
			break
		}
		// identify block
		if block.id >= SUNSPEC_WK_INVERTERS_MIN && block.id <= SUNSPEC_WK_INVERTERS_MAX {
			blocks.inverter = block.baseAddr
		} else if block.id == SUNSPEC_WK_COMMON {
			blocks.common = block.baseAddr
		}
		baseAddr = baseAddr + block.length + 2
		// ensure the loop has an ending
		if blocks.AllBlocksDefined() || n > 20 {
			break
		}
		n++
	}
	if blocks.AllBlocksDefined() {
		inv.blocks = blocks
		return nil
	}
	return errors.New("could not find all required sunspec blocks (common, inverter)")
}
