package snapshot

import (
	"encoding/json"
	"fmt"
)

// CalibrationCommand is the only message the client sends on the live channel.
type CalibrationCommand struct {
	Calibration Calibration `json:"calibration"`
}

// EncodeCalibrationCommand serializes c as {"calibration": {...}}.
func EncodeCalibrationCommand(c Calibration) ([]byte, error) {
	return json.Marshal(CalibrationCommand{Calibration: c})
}

// DecodeCalibrationCommand parses a calibration command with the same strict
// length rules as Decode.
func DecodeCalibrationCommand(data []byte) (Calibration, error) {
	var w struct {
		Calibration *wireCalibration `json:"calibration"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return Calibration{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if w.Calibration == nil {
		return Calibration{}, fmt.Errorf("%w: missing calibration", ErrMalformedMessage)
	}
	return w.Calibration.toCalibration("calibration")
}
