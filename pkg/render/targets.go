package render

import (
	"fmt"

	"github.com/modbee/modbee-dash/pkg/snapshot"
)

// Network and status targets.
const (
	TargetNetworkMode      = "network-mode"
	TargetNetworkSSID      = "network-ssid"
	TargetNetworkIP        = "network-ip"
	TargetWiFiStatus       = "wifi-status"
	TargetConnectionStatus = "connection-status"
)

// Editable calibration field prefixes.
const (
	FieldADCZero = "adc_zero"
	FieldADCLow  = "adc_low"
	FieldADCHigh = "adc_high"
	FieldDACZero = "dac_zero"
	FieldDACLow  = "dac_low"
	FieldDACHigh = "dac_high"
)

// DigitalInputTarget names the display slot for io.di[i].
func DigitalInputTarget(i int) string { return fmt.Sprintf("di%02d", i+1) }

// DigitalOutputTarget names the display slot for io.do[i].
func DigitalOutputTarget(i int) string { return fmt.Sprintf("do%02d", i+1) }

// AnalogInputTarget names the display slot for io.ai_scaled[i].
func AnalogInputTarget(i int) string { return fmt.Sprintf("ai%02d", i+1) }

// AnalogOutputTarget names the display slot for io.ao_scaled[i].
func AnalogOutputTarget(i int) string { return fmt.Sprintf("ao%02d", i+1) }

// CalibrationField names the editable field for channel i of prefix.
func CalibrationField(prefix string, i int) string { return fmt.Sprintf("%s_%d", prefix, i) }

// DisplayTargets lists the read-only I/O targets in display order.
func DisplayTargets() []string {
	var out []string
	for i := 0; i < snapshot.DigitalInputs; i++ {
		out = append(out, DigitalInputTarget(i))
	}
	for i := 0; i < snapshot.DigitalOutputs; i++ {
		out = append(out, DigitalOutputTarget(i))
	}
	for i := 0; i < snapshot.AnalogInputs; i++ {
		out = append(out, AnalogInputTarget(i))
	}
	for i := 0; i < snapshot.AnalogOutputs; i++ {
		out = append(out, AnalogOutputTarget(i))
	}
	return out
}

// EditableFields lists the 18 calibration fields, ADC triples first.
func EditableFields() []string {
	var out []string
	for _, p := range []string{FieldADCZero, FieldADCLow, FieldADCHigh} {
		for i := 0; i < snapshot.AnalogInputs; i++ {
			out = append(out, CalibrationField(p, i))
		}
	}
	for _, p := range []string{FieldDACZero, FieldDACLow, FieldDACHigh} {
		for i := 0; i < snapshot.AnalogOutputs; i++ {
			out = append(out, CalibrationField(p, i))
		}
	}
	return out
}

// StatusTargets lists the network and status lines.
func StatusTargets() []string {
	return []string{
		TargetNetworkMode,
		TargetNetworkSSID,
		TargetNetworkIP,
		TargetWiFiStatus,
		TargetConnectionStatus,
	}
}
