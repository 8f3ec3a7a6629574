// Package snapshot defines the wire data model exchanged with a Modbee
// controller over the live channel.
//
// The device pushes a complete status document on every tick:
//
//	{
//	  "network":     {"mode": "AP", "ssid": "ModbeeAP", "ip": "192.168.4.1"},
//	  "io":          {"di": [8], "do": [8], "ai_scaled": [4], "ao_scaled": [2]},
//	  "calibration": {"adc_zero_offsets": [4], "adc_low": [4], "adc_high": [4],
//	                  "dac_zero_offsets": [2], "dac_low": [2], "dac_high": [2]}
//	}
//
// Every sequence has a fixed channel-defined length. A document with a missing
// section, a missing sequence or a sequence of the wrong length is rejected as a
// whole with ErrMalformedMessage; there are no partial updates.
//
// The client sends calibration changes back as {"calibration": {...}} with the
// same six integer sequences.
package snapshot
