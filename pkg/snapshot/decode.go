package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decoding errors.
var (
	// ErrMalformedMessage is returned when an inbound document does not have
	// the expected shape.
	ErrMalformedMessage = errors.New("malformed message")
)

// wireSnapshot mirrors Snapshot with slices so that sequence lengths and
// missing sections can be checked before anything is committed.
type wireSnapshot struct {
	Network     *wireNetwork     `json:"network"`
	IO          *wireIO          `json:"io"`
	Calibration *wireCalibration `json:"calibration"`
}

// Pointers tell a JSON null (or an absent key) apart from a zero value.
type wireNetwork struct {
	Mode *string `json:"mode"`
	SSID *string `json:"ssid"`
	IP   *string `json:"ip"`
}

type wireIO struct {
	DI       []Level    `json:"di"`
	DO       []Level    `json:"do"`
	AIScaled []*float64 `json:"ai_scaled"`
	AOScaled []*float64 `json:"ao_scaled"`
}

type wireCalibration struct {
	ADCZeroOffsets []*int `json:"adc_zero_offsets"`
	ADCLow         []*int `json:"adc_low"`
	ADCHigh        []*int `json:"adc_high"`
	DACZeroOffsets []*int `json:"dac_zero_offsets"`
	DACLow         []*int `json:"dac_low"`
	DACHigh        []*int `json:"dac_high"`
}

// Decode parses one status document. The returned error wraps
// ErrMalformedMessage for any shape problem.
func Decode(data []byte) (Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch {
	case w.Network == nil:
		return Snapshot{}, fmt.Errorf("%w: missing network", ErrMalformedMessage)
	case w.IO == nil:
		return Snapshot{}, fmt.Errorf("%w: missing io", ErrMalformedMessage)
	case w.Calibration == nil:
		return Snapshot{}, fmt.Errorf("%w: missing calibration", ErrMalformedMessage)
	}

	network, err := w.Network.toNetwork()
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{Network: network}

	if err := fill(s.IO.DI[:], w.IO.DI, "io.di"); err != nil {
		return Snapshot{}, err
	}
	if err := fill(s.IO.DO[:], w.IO.DO, "io.do"); err != nil {
		return Snapshot{}, err
	}
	if err := fillValues(s.IO.AIScaled[:], w.IO.AIScaled, "io.ai_scaled"); err != nil {
		return Snapshot{}, err
	}
	if err := fillValues(s.IO.AOScaled[:], w.IO.AOScaled, "io.ao_scaled"); err != nil {
		return Snapshot{}, err
	}

	cal, err := w.Calibration.toCalibration("calibration")
	if err != nil {
		return Snapshot{}, err
	}
	s.Calibration = cal

	return s, nil
}

func (w *wireNetwork) toNetwork() (Network, error) {
	fields := []struct {
		v    *string
		name string
	}{
		{w.Mode, "mode"},
		{w.SSID, "ssid"},
		{w.IP, "ip"},
	}
	for _, f := range fields {
		if f.v == nil {
			return Network{}, fmt.Errorf("%w: network.%s is missing or null", ErrMalformedMessage, f.name)
		}
	}
	return Network{Mode: *w.Mode, SSID: *w.SSID, IP: *w.IP}, nil
}

func (w *wireCalibration) toCalibration(prefix string) (Calibration, error) {
	var c Calibration
	fields := []struct {
		dst  []int
		src  []*int
		name string
	}{
		{c.ADCZeroOffsets[:], w.ADCZeroOffsets, "adc_zero_offsets"},
		{c.ADCLow[:], w.ADCLow, "adc_low"},
		{c.ADCHigh[:], w.ADCHigh, "adc_high"},
		{c.DACZeroOffsets[:], w.DACZeroOffsets, "dac_zero_offsets"},
		{c.DACLow[:], w.DACLow, "dac_low"},
		{c.DACHigh[:], w.DACHigh, "dac_high"},
	}
	for _, f := range fields {
		if err := fillValues(f.dst, f.src, prefix+"."+f.name); err != nil {
			return Calibration{}, err
		}
	}
	return c, nil
}

// fill copies src into the fixed-length dst, rejecting any length mismatch.
func fill[T any](dst, src []T, name string) error {
	if src == nil {
		return fmt.Errorf("%w: missing %s", ErrMalformedMessage, name)
	}
	if len(src) != len(dst) {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrMalformedMessage, name, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// fillValues is fill for sequences whose elements may be JSON null, which
// is rejected.
func fillValues[T any](dst []T, src []*T, name string) error {
	if src == nil {
		return fmt.Errorf("%w: missing %s", ErrMalformedMessage, name)
	}
	if len(src) != len(dst) {
		return fmt.Errorf("%w: %s has %d values, want %d", ErrMalformedMessage, name, len(src), len(dst))
	}
	for i, v := range src {
		if v == nil {
			return fmt.Errorf("%w: %s[%d] is null", ErrMalformedMessage, name, i)
		}
		dst[i] = *v
	}
	return nil
}
