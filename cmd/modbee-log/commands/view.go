// Package commands implements the modbee-log CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/modbee/modbee-dash/pkg/log"
)

// maxShownPayload limits how much of a frame view prints.
const maxShownPayload = 512

// RunView writes every event matching filter in human-readable form.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, log.ErrTruncated) {
			fmt.Fprintln(output, "(log ends with an incomplete event)")
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION Type
	ts := event.Timestamp.UTC().Format(timestampFormat)
	dir := ""
	if event.Message != nil {
		dir = event.Direction.String()
	}
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s\n", ts, shortenConnID(event.ConnectionID), dir, eventType(event))

	if event.Endpoint != "" {
		fmt.Fprintf(w, "  Endpoint: %s\n", event.Endpoint)
	}

	switch {
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// formatMessageDetails writes message-specific details. Frames are JSON
// text and are printed as such.
func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", msg.Size)
	if len(msg.Data) == 0 {
		return
	}

	data := msg.Data
	cut := msg.Truncated
	if len(data) > maxShownPayload {
		data = data[:maxShownPayload]
		cut = true
	}
	if utf8.Valid(data) {
		fmt.Fprintf(w, "  Data: %s", data)
	} else {
		fmt.Fprintf(w, "  Data: %x", data)
	}
	if cut {
		fmt.Fprint(w, " (truncated)")
	}
	fmt.Fprintln(w)
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
	if sc.Attempt > 0 {
		fmt.Fprintf(w, "  Retry: attempt %d in %s\n", sc.Attempt, sc.RetryIn)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Kind: %s\n", err.Kind.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}
