package domain

import "fmt"

// The closed set of fault kinds surfaced by the collaborators. Callers match
// them with errors.As instead of inspecting third-party error values.

// ConnectionFault is a transport-level Modbus failure. Recoverable by
// reconnecting.
type ConnectionFault struct {
	Op  string
	Err error
}

func (f *ConnectionFault) Error() string {
	return fmt.Sprintf("connection fault on %s: %v", f.Op, f.Err)
}

func (f *ConnectionFault) Unwrap() error {
	return f.Err
}

// MalformedPayloadFault is a successful transaction that returned unusable
// data, typically a mid-transaction timeout leaving a partial payload.
type MalformedPayloadFault struct {
	Field string
	Err   error
}

func (f *MalformedPayloadFault) Error() string {
	return fmt.Sprintf("malformed payload, field %s: %v", f.Field, f.Err)
}

func (f *MalformedPayloadFault) Unwrap() error {
	return f.Err
}

// ActuatorFault is a relay command failure. Not retried locally; it aborts
// the current control operation.
type ActuatorFault struct {
	Op  string
	Err error
}

func (f *ActuatorFault) Error() string {
	return fmt.Sprintf("actuator fault on %s: %v", f.Op, f.Err)
}

func (f *ActuatorFault) Unwrap() error {
	return f.Err
}
