// Package persistence stores the state a Modbee controller keeps across
// restarts: the Wi-Fi network it was told to join and its calibration
// coefficients. The state is a single JSON file.
package persistence
