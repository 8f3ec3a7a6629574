package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modbee/modbee-dash/pkg/persistence"
	"github.com/modbee/modbee-dash/pkg/snapshot"
)

func TestNewDeviceStartsInAPMode(t *testing.T) {
	s := NewDevice().Snapshot()
	assert.Equal(t, snapshot.Network{Mode: "AP", SSID: "ModbeeAP", IP: "192.168.4.1"}, s.Network)
	assert.Equal(t, "0", s.IO.DI[0].String())
}

func TestApplyCalibrationPartialArrays(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.ApplyCalibration([]byte(`{"calibration":{"adc_low":[1,2,3,4],"dac_high":[9]}}`)))
	require.NoError(t, d.ApplyCalibration([]byte(`{"calibration":{"adc_low":[7]}}`)))

	c := d.Snapshot().Calibration
	assert.Equal(t, [4]int{7, 2, 3, 4}, c.ADCLow)
	assert.Equal(t, [2]int{9, 0}, c.DACHigh)
	assert.Equal(t, [4]int{}, c.ADCHigh)
}

func TestApplyCalibrationIgnoresExtraElementsAndKeys(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.ApplyCalibration([]byte(`{"calibration":{"dac_low":[1,2,3],"gain":[5]}}`)))
	assert.Equal(t, [2]int{1, 2}, d.Snapshot().Calibration.DACLow)
}

func TestApplyCalibrationWrapsToInt16(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.ApplyCalibration([]byte(`{"calibration":{"adc_zero_offsets":[32768,-32769,12.7,-5]}}`)))
	assert.Equal(t, [4]int{-32768, 32767, 12, -5}, d.Snapshot().Calibration.ADCZeroOffsets)
}

func TestApplyCalibrationRejectsOtherFrames(t *testing.T) {
	d := NewDevice()
	assert.ErrorIs(t, d.ApplyCalibration([]byte(`{"network":{}}`)), ErrBadCommand)
	assert.ErrorIs(t, d.ApplyCalibration([]byte(`not json`)), ErrBadCommand)
}

func TestJoinNetwork(t *testing.T) {
	d := NewDevice()
	d.JoinNetwork("HomeNet", "secret")
	assert.Equal(t, snapshot.Network{Mode: "STA", SSID: "HomeNet", IP: DefaultStationIP}, d.Snapshot().Network)
	assert.Equal(t, &persistence.WiFiConfig{SSID: "HomeNet", Password: "secret"}, d.Persistent().WiFi)
}

func TestRestore(t *testing.T) {
	cal := snapshot.Calibration{ADCLow: [4]int{1, 2, 3, 4}, DACHigh: [2]int{-7, 7}}

	d := NewDevice()
	d.Restore(&persistence.ControllerState{
		WiFi:        &persistence.WiFiConfig{SSID: "HomeNet", Password: "pw"},
		Calibration: &cal,
	})

	s := d.Snapshot()
	assert.Equal(t, "STA", s.Network.Mode)
	assert.Equal(t, cal, s.Calibration)

	d.Restore(nil)
	assert.Equal(t, cal, d.Snapshot().Calibration)
}

func TestPersistentWithoutCredentials(t *testing.T) {
	state := NewDevice().Persistent()
	assert.Nil(t, state.WiFi)
	require.NotNil(t, state.Calibration)
	assert.Equal(t, snapshot.Calibration{}, *state.Calibration)
}

func TestStepProducesValidSnapshot(t *testing.T) {
	d := NewDevice()
	d.Step()

	s := d.Snapshot()
	on := 0
	for _, l := range s.IO.DI {
		if l.On {
			on++
		}
	}
	assert.Equal(t, 1, on)
	assert.True(t, s.IO.DI[1].On)
	assert.True(t, s.IO.DO[2].On)
	for _, v := range s.IO.AIScaled {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}
