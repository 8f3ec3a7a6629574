package snapshot

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Channel counts of the Modbee I/O board.
const (
	DigitalInputs  = 8
	DigitalOutputs = 8
	AnalogInputs   = 4
	AnalogOutputs  = 2
)

// Calibration value limits. The controller stores every coefficient as int16.
const (
	CalibrationMin = -32768
	CalibrationMax = 32767
)

// Snapshot is one complete status delivery from the device.
type Snapshot struct {
	Network     Network     `json:"network"`
	IO          IO          `json:"io"`
	Calibration Calibration `json:"calibration"`
}

// Network describes how the device is attached to Wi-Fi.
type Network struct {
	// Mode is "AP" when the device runs its own access point, "STA" otherwise.
	Mode string `json:"mode"`
	SSID string `json:"ssid"`
	// IP is a dotted-quad address or empty.
	IP string `json:"ip"`
}

// IO holds the current digital and scaled analog channel values.
type IO struct {
	DI       [DigitalInputs]Level   `json:"di"`
	DO       [DigitalOutputs]Level  `json:"do"`
	AIScaled [AnalogInputs]float64  `json:"ai_scaled"`
	AOScaled [AnalogOutputs]float64 `json:"ao_scaled"`
}

// Calibration holds the (zero offset, low, high) triples for every ADC and
// DAC channel.
type Calibration struct {
	ADCZeroOffsets [AnalogInputs]int  `json:"adc_zero_offsets"`
	ADCLow         [AnalogInputs]int  `json:"adc_low"`
	ADCHigh        [AnalogInputs]int  `json:"adc_high"`
	DACZeroOffsets [AnalogOutputs]int `json:"dac_zero_offsets"`
	DACLow         [AnalogOutputs]int `json:"dac_low"`
	DACHigh        [AnalogOutputs]int `json:"dac_high"`
}

// Level is a boolean-like digital channel value.
//
// Firmware revisions report digital channels either as JSON booleans or as
// 0/1 numbers. Level keeps the token exactly as delivered so that it can be
// displayed verbatim.
type Level struct {
	On   bool
	text string
}

// LevelOf returns the numeric Level for on.
func LevelOf(on bool) Level {
	if on {
		return Level{On: true, text: "1"}
	}
	return Level{On: false, text: "0"}
}

// String returns the value as the device delivered it.
func (l Level) String() string {
	if l.text != "" {
		return l.text
	}
	if l.On {
		return "1"
	}
	return "0"
}

// MarshalJSON writes the delivered token, or 0/1 for constructed values.
func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalJSON accepts true, false or any JSON number (non-zero is on).
func (l *Level) UnmarshalJSON(b []byte) error {
	tok := string(bytes.TrimSpace(b))
	switch tok {
	case "true":
		*l = Level{On: true, text: tok}
		return nil
	case "false":
		*l = Level{On: false, text: tok}
		return nil
	}

	if tok == "null" || strings.HasPrefix(tok, `"`) {
		return fmt.Errorf("digital level %s: not a boolean or number", tok)
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return fmt.Errorf("digital level %s: %w", tok, err)
	}
	*l = Level{On: f != 0, text: tok}
	return nil
}
