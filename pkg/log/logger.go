package log

// Logger receives dashboard events.
// Pass nil or NoopLogger to disable event logging.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent use
	// and must not block for long; the connection manager calls Log inline.
	Log(event Event)
}

// NoopLogger discards all events. It is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
