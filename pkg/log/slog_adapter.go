package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger. State changes are logged at
// Info, errors at Warn and messages at Debug.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}
	if event.Endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", event.Endpoint))
	}

	level := slog.LevelDebug
	msg := "channel"

	switch {
	case event.Message != nil:
		msg = "message"
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.String("kind", event.Message.Kind.String()),
			slog.Int("size", event.Message.Size),
		)
	case event.StateChange != nil:
		level = slog.LevelInfo
		msg = "state"
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
		if event.StateChange.Attempt > 0 {
			attrs = append(attrs,
				slog.Int("attempt", event.StateChange.Attempt),
				slog.Duration("retry_in", event.StateChange.RetryIn),
			)
		}
	case event.Error != nil:
		level = slog.LevelWarn
		msg = "error"
		attrs = append(attrs,
			slog.String("error_kind", event.Error.Kind.String()),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
