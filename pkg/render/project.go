package render

import (
	"strconv"

	"github.com/modbee/modbee-dash/pkg/snapshot"
)

// Write is one value destined for a named target.
type Write struct {
	Target string
	Value  string
}

// Display receives writes. Set reports whether the target exists.
type Display interface {
	Set(target, value string) bool
}

// Project returns the I/O and calibration writes for s: 8 digital inputs,
// 8 digital outputs, 4 analog inputs, 2 analog outputs and the 18 editable
// calibration fields, in that order.
func Project(s snapshot.Snapshot) []Write {
	writes := make([]Write, 0, 40)

	for i, v := range s.IO.DI {
		writes = append(writes, Write{DigitalInputTarget(i), v.String()})
	}
	for i, v := range s.IO.DO {
		writes = append(writes, Write{DigitalOutputTarget(i), v.String()})
	}
	for i, v := range s.IO.AIScaled {
		writes = append(writes, Write{AnalogInputTarget(i), formatScaled(v)})
	}
	for i, v := range s.IO.AOScaled {
		writes = append(writes, Write{AnalogOutputTarget(i), formatScaled(v)})
	}

	c := s.Calibration
	writes = appendInts(writes, FieldADCZero, c.ADCZeroOffsets[:])
	writes = appendInts(writes, FieldADCLow, c.ADCLow[:])
	writes = appendInts(writes, FieldADCHigh, c.ADCHigh[:])
	writes = appendInts(writes, FieldDACZero, c.DACZeroOffsets[:])
	writes = appendInts(writes, FieldDACLow, c.DACLow[:])
	writes = appendInts(writes, FieldDACHigh, c.DACHigh[:])

	return writes
}

// ProjectNetwork returns the network status writes for s.
func ProjectNetwork(s snapshot.Snapshot) []Write {
	return []Write{
		{TargetNetworkMode, s.Network.Mode},
		{TargetNetworkSSID, s.Network.SSID},
		{TargetNetworkIP, s.Network.IP},
	}
}

// Apply performs writes against d and returns how many targets existed.
func Apply(d Display, writes []Write) int {
	n := 0
	for _, w := range writes {
		if d.Set(w.Target, w.Value) {
			n++
		}
	}
	return n
}

func appendInts(writes []Write, prefix string, values []int) []Write {
	for i, v := range values {
		writes = append(writes, Write{CalibrationField(prefix, i), strconv.Itoa(v)})
	}
	return writes
}

// formatScaled renders an analog value in its shortest exact form.
func formatScaled(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
