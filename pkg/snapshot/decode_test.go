package snapshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apDocument = `{
  "network": {"mode": "AP", "ssid": "dev-ap", "ip": "192.168.4.1"},
  "io": {"di": [0,0,0,0,0,0,0,0], "do": [0,0,0,0,0,0,0,0], "ai_scaled": [0,0,0,0], "ao_scaled": [0,0]},
  "calibration": {"adc_zero_offsets": [0,0,0,0], "adc_low": [0,0,0,0], "adc_high": [4095,4095,4095,4095],
                  "dac_zero_offsets": [0,0], "dac_low": [0,0], "dac_high": [4095,4095]}
}`

func TestDecode_AccessPointDocument(t *testing.T) {
	s, err := Decode([]byte(apDocument))
	require.NoError(t, err)

	assert.Equal(t, Network{Mode: "AP", SSID: "dev-ap", IP: "192.168.4.1"}, s.Network)
	for i := range s.IO.DI {
		assert.False(t, s.IO.DI[i].On)
		assert.Equal(t, "0", s.IO.DI[i].String())
		assert.Equal(t, "0", s.IO.DO[i].String())
	}
	assert.Equal(t, [AnalogInputs]int{4095, 4095, 4095, 4095}, s.Calibration.ADCHigh)
	assert.Equal(t, [AnalogOutputs]int{4095, 4095}, s.Calibration.DACHigh)
	assert.Equal(t, [AnalogInputs]int{}, s.Calibration.ADCZeroOffsets)
}

func TestDecode_BooleanLevels(t *testing.T) {
	doc := strings.Replace(apDocument, `"di": [0,0,0,0,0,0,0,0]`, `"di": [true,false,1,0,true,false,2,0]`, 1)

	s, err := Decode([]byte(doc))
	require.NoError(t, err)

	want := []struct {
		on   bool
		text string
	}{
		{true, "true"}, {false, "false"}, {true, "1"}, {false, "0"},
		{true, "true"}, {false, "false"}, {true, "2"}, {false, "0"},
	}
	for i, w := range want {
		assert.Equal(t, w.on, s.IO.DI[i].On, "di[%d]", i)
		assert.Equal(t, w.text, s.IO.DI[i].String(), "di[%d]", i)
	}
}

func TestDecode_ScaledValues(t *testing.T) {
	doc := strings.Replace(apDocument, `"ai_scaled": [0,0,0,0]`, `"ai_scaled": [1.5,-2,10.25,0]`, 1)

	s, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, [AnalogInputs]float64{1.5, -2, 10.25, 0}, s.IO.AIScaled)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"network":`},
		{"not an object", `[1,2,3]`},
		{"missing io", `{"network":{"mode":"AP","ssid":"x","ip":""},"calibration":{}}`},
		{"missing network", strings.Replace(apDocument, `"network": {"mode": "AP", "ssid": "dev-ap", "ip": "192.168.4.1"},`, "", 1)},
		{"null calibration", `{"network":{},"io":{"di":[0,0,0,0,0,0,0,0],"do":[0,0,0,0,0,0,0,0],"ai_scaled":[0,0,0,0],"ao_scaled":[0,0]},"calibration":null}`},
		{"short di", strings.Replace(apDocument, `"di": [0,0,0,0,0,0,0,0]`, `"di": [0,0,0,0,0,0,0]`, 1)},
		{"long ao", strings.Replace(apDocument, `"ao_scaled": [0,0]`, `"ao_scaled": [0,0,0]`, 1)},
		{"missing adc_low", strings.Replace(apDocument, `"adc_low": [0,0,0,0],`, "", 1)},
		{"short dac_high", strings.Replace(apDocument, `"dac_high": [4095,4095]`, `"dac_high": [4095]`, 1)},
		{"fractional calibration", strings.Replace(apDocument, `"dac_low": [0,0]`, `"dac_low": [0.5,0]`, 1)},
		{"string level", strings.Replace(apDocument, `"do": [0,0,0,0,0,0,0,0]`, `"do": ["on",0,0,0,0,0,0,0]`, 1)},
		{"null level", strings.Replace(apDocument, `"do": [0,0,0,0,0,0,0,0]`, `"do": [null,0,0,0,0,0,0,0]`, 1)},
		{"null calibration value", strings.Replace(apDocument, `"adc_low": [0,0,0,0]`, `"adc_low": [null,0,0,0]`, 1)},
		{"null dac value", strings.Replace(apDocument, `"dac_high": [4095,4095]`, `"dac_high": [4095,null]`, 1)},
		{"null analog input", strings.Replace(apDocument, `"ai_scaled": [0,0,0,0]`, `"ai_scaled": [null,0,0,0]`, 1)},
		{"null analog output", strings.Replace(apDocument, `"ao_scaled": [0,0]`, `"ao_scaled": [0,null]`, 1)},
		{"null network mode", strings.Replace(apDocument, `"mode": "AP"`, `"mode": null`, 1)},
		{"missing network ip", strings.Replace(apDocument, `, "ip": "192.168.4.1"`, "", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestLevel_Marshal(t *testing.T) {
	assert.Equal(t, "1", LevelOf(true).String())
	assert.Equal(t, "0", LevelOf(false).String())
	assert.Equal(t, "0", Level{}.String())

	var l Level
	require.NoError(t, l.UnmarshalJSON([]byte("true")))
	out, err := l.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "true", string(out))
}
