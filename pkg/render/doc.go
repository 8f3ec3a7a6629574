// Package render projects a device snapshot onto named display targets.
//
// Project is a pure function: it returns the writes to perform and touches
// nothing. Apply pushes writes into a Display, where a target the display
// does not have is skipped.
//
// Display targets use 1-based names while the snapshot's sequences are
// 0-based: target di01 shows io.di[0], ao02 shows io.ao_scaled[1].
// Editable calibration fields keep the 0-based index of the device
// (adc_high_0 is calibration.adc_high[0]).
package render
