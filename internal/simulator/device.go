// Package simulator emulates a Modbee controller: the /ws status channel, the
// calibration command it accepts and the /wifi credential endpoint.
package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/modbee/modbee-dash/pkg/persistence"
	"github.com/modbee/modbee-dash/pkg/snapshot"
)

// Defaults of a controller that has not joined a network.
const (
	DefaultAPSSID    = "ModbeeAP"
	DefaultAPIP      = "192.168.4.1"
	DefaultStationIP = "192.168.1.50"
)

// ErrBadCommand is returned for frames that are not a calibration command.
var ErrBadCommand = errors.New("not a calibration command")

// Device is the simulated controller state.
type Device struct {
	mu        sync.Mutex
	state     snapshot.Snapshot
	tick      uint64
	stationIP string
	wifi      *persistence.WiFiConfig
}

// NewDevice returns a controller in access point mode with zeroed I/O and
// calibration.
func NewDevice() *Device {
	d := &Device{stationIP: DefaultStationIP}
	d.state.Network = snapshot.Network{Mode: "AP", SSID: DefaultAPSSID, IP: DefaultAPIP}
	for i := range d.state.IO.DI {
		d.state.IO.DI[i] = snapshot.LevelOf(false)
	}
	for i := range d.state.IO.DO {
		d.state.IO.DO[i] = snapshot.LevelOf(false)
	}
	return d
}

// Snapshot returns a copy of the current state.
func (d *Device) Snapshot() snapshot.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Step advances the simulated I/O by one status period. Digital inputs walk
// a running bit, outputs mirror the inputs shifted by one and the analog
// channels follow slow sine waves.
func (d *Device) Step() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tick++
	active := int(d.tick % snapshot.DigitalInputs)
	for i := range d.state.IO.DI {
		d.state.IO.DI[i] = snapshot.LevelOf(i == active)
	}
	for i := range d.state.IO.DO {
		d.state.IO.DO[i] = snapshot.LevelOf(i == (active+1)%snapshot.DigitalOutputs)
	}

	t := float64(d.tick)
	for i := range d.state.IO.AIScaled {
		v := 50 + 50*math.Sin(t/10+float64(i))
		d.state.IO.AIScaled[i] = math.Round(v*100) / 100
	}
	for i := range d.state.IO.AOScaled {
		v := 5 + 5*math.Cos(t/20+float64(i))
		d.state.IO.AOScaled[i] = math.Round(v*100) / 100
	}
}

// ApplyCalibration applies a {"calibration": {...}} command. Only the arrays
// present are touched and only as many elements as they carry. Values are
// stored as int16, wrapping like the firmware's conversion does.
func (d *Device) ApplyCalibration(data []byte) error {
	var cmd struct {
		Calibration map[string][]float64 `json:"calibration"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	if cmd.Calibration == nil {
		return ErrBadCommand
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	c := &d.state.Calibration
	targets := map[string][]int{
		"adc_zero_offsets": c.ADCZeroOffsets[:],
		"adc_low":          c.ADCLow[:],
		"adc_high":         c.ADCHigh[:],
		"dac_zero_offsets": c.DACZeroOffsets[:],
		"dac_low":          c.DACLow[:],
		"dac_high":         c.DACHigh[:],
	}
	for key, values := range cmd.Calibration {
		dst, ok := targets[key]
		if !ok {
			continue
		}
		for i := 0; i < len(dst) && i < len(values); i++ {
			dst[i] = int(int16(int64(values[i])))
		}
	}
	return nil
}

// JoinNetwork switches the controller to station mode on ssid and keeps the
// credentials for the next boot.
func (d *Device) JoinNetwork(ssid, password string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Network = snapshot.Network{Mode: "STA", SSID: ssid, IP: d.stationIP}
	d.wifi = &persistence.WiFiConfig{SSID: ssid, Password: password}
}

// Restore applies persisted state as the firmware does at boot: saved
// calibration is loaded and saved credentials are joined.
func (d *Device) Restore(state *persistence.ControllerState) {
	if state == nil {
		return
	}
	if state.WiFi != nil && state.WiFi.SSID != "" {
		d.JoinNetwork(state.WiFi.SSID, state.WiFi.Password)
	}
	if state.Calibration != nil {
		d.mu.Lock()
		d.state.Calibration = *state.Calibration
		d.mu.Unlock()
	}
}

// Persistent returns the state to persist.
func (d *Device) Persistent() *persistence.ControllerState {
	d.mu.Lock()
	defer d.mu.Unlock()

	cal := d.state.Calibration
	state := &persistence.ControllerState{Calibration: &cal}
	if d.wifi != nil {
		w := *d.wifi
		state.WiFi = &w
	}
	return state
}
