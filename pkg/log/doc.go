// Package log provides the live-channel event log for the Modbee dashboard.
//
// It is separate from operational logging (the standard log package used by
// the commands): the event log is a machine-readable trace of everything the
// synchronization loop does with the device connection.
//
// # Basic Usage
//
// Callers configure the sink by providing a Logger implementation:
//
//	// Console, via slog
//	mgr.SetEventLogger(log.NewSlogAdapter(slog.Default()))
//
//	// Binary file
//	fl, _ := log.NewFileLogger("/var/log/modbee/dash.dlog")
//
//	// Both
//	mgr.SetEventLogger(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// # Event Types
//
//   - StateChangeEvent: channel lifecycle (connecting, open, closed, retry scheduled)
//   - MessageEvent: inbound snapshots and outbound calibration commands
//   - ErrorEventData: malformed messages, refused sends, dial failures
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys, usually
// with the .dlog extension. A file whose last record was cut short reads
// back as its complete events followed by ErrTruncated. The modbee-log
// command views and summarizes them.
package log
