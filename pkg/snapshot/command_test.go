package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrationCommand_RoundTrip(t *testing.T) {
	c := Calibration{
		ADCZeroOffsets: [AnalogInputs]int{1, -2, 3, -4},
		ADCLow:         [AnalogInputs]int{10, 20, 30, 40},
		ADCHigh:        [AnalogInputs]int{4000, 4095, 4095, 4095},
		DACZeroOffsets: [AnalogOutputs]int{5, 6},
		DACLow:         [AnalogOutputs]int{0, 100},
		DACHigh:        [AnalogOutputs]int{4095, 32767},
	}

	data, err := EncodeCalibrationCommand(c)
	require.NoError(t, err)

	got, err := DecodeCalibrationCommand(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCalibrationCommand_Shape(t *testing.T) {
	data, err := EncodeCalibrationCommand(Calibration{})
	require.NoError(t, err)

	var doc map[string]map[string][]int
	require.NoError(t, json.Unmarshal(data, &doc))

	require.Len(t, doc, 1)
	cal, ok := doc["calibration"]
	require.True(t, ok, "top-level key must be calibration")

	assert.Len(t, cal["adc_zero_offsets"], 4)
	assert.Len(t, cal["adc_low"], 4)
	assert.Len(t, cal["adc_high"], 4)
	assert.Len(t, cal["dac_zero_offsets"], 2)
	assert.Len(t, cal["dac_low"], 2)
	assert.Len(t, cal["dac_high"], 2)
}

func TestDecodeCalibrationCommand_Malformed(t *testing.T) {
	_, err := DecodeCalibrationCommand([]byte(`{"io":{}}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = DecodeCalibrationCommand([]byte(`{"calibration":{"adc_low":[1,2]}}`))
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
