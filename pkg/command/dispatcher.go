package command

import (
	"fmt"

	"github.com/modbee/modbee-dash/pkg/snapshot"
)

// Sender transmits an encoded command. Implemented by *connection.Manager.
type Sender interface {
	Send(data []byte) error
}

// Dispatcher submits calibration edits to the device.
type Dispatcher struct {
	fields Fields
	sender Sender
}

// NewDispatcher creates a Dispatcher reading fields and sending via sender.
func NewDispatcher(fields Fields, sender Sender) *Dispatcher {
	return &Dispatcher{fields: fields, sender: sender}
}

// Submit captures the editable fields, encodes them and sends the command
// once. It returns the calibration that was sent. Parse failures block the
// send; a send failure (such as connection.ErrNotConnected) is returned
// wrapped.
func (d *Dispatcher) Submit() (snapshot.Calibration, error) {
	c, err := Capture(d.fields)
	if err != nil {
		return snapshot.Calibration{}, err
	}

	data, err := snapshot.EncodeCalibrationCommand(c)
	if err != nil {
		return snapshot.Calibration{}, fmt.Errorf("encode calibration: %w", err)
	}

	if err := d.sender.Send(data); err != nil {
		return snapshot.Calibration{}, fmt.Errorf("send calibration: %w", err)
	}
	return c, nil
}
