package solaredge_modbus

import (
	"slices"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

type ModbusClient struct {
	client     *modbus.ModbusClient
	instrument []ModbusInstrument
}

type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

func (reader ModbusClient) readString(address uint16, size uint16) (string, error) {
	bytes, err := reader.readRawBytes(address, size, modbus.HOLDING_REGISTER)
	if err != nil {
		return "", err
	}
	f := slices.Index(bytes, 0x00)
	if f >= 0 {
		return string(bytes[:f]), nil
	}
	return string(bytes), nil
}

func (reader ModbusClient) readRegister(addr uint16, regType modbus.RegType) (uint16, error) {
	defer RecordTimer("ReadRegister", reader.instrument)()
	return reader.client.ReadRegister(addr, regType)
}

func (reader ModbusClient) readRegisters(addr uint16, quantity uint16, regType modbus.RegType) ([]uint16, error) {
	defer RecordTimer("ReadRegisters", reader.instrument)()
	return reader.client.ReadRegisters(addr, quantity, regType)
}

func (reader ModbusClient) readRawBytes(addr uint16, quantity uint16, regType modbus.RegType) ([]byte, error) {
	defer RecordTimer("ReadRawBytes", reader.instrument)()
	return reader.client.ReadRawBytes(addr, quantity, regType)
}

func RecordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}

func debugLoggerInstrumentation(logger *zap.Logger) *ModbusInstrument {
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus read", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

// common

type modbusBlock struct {
	id       uint16
	baseAddr uint16
	length   uint16
}

func (block *modbusBlock) isEndBlock() bool {
	return block.id == 0xFFFF
}

func surveyModbusBlock(client *modbus.ModbusClient, baseAddr uint16) (*modbusBlock, error) {
	wellKnownValue, err := client.ReadRegister(baseAddr, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	length, err := client.ReadRegister(baseAddr+1, modbus.HOLDING_REGISTER)
	if err != nil {
		return nil, err
	}
	return &modbusBlock{
		id:       wellKnownValue,
		length:   length,
		baseAddr: baseAddr,
	}, nil
}
