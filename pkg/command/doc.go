// Package command turns the operator's calibration edits into an outbound
// calibration command.
//
// Capture reads the 18 editable fields at submit time and builds a fresh
// calibration from them. Every field must hold a base-10 integer the
// controller can store (int16); otherwise the submission is blocked and each
// offending field is reported. Dispatcher sends the encoded command once and
// never retries.
package command
