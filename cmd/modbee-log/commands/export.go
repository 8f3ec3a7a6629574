package commands

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/modbee/modbee-dash/pkg/log"
)

// RunExport exports the events matching filter to output (stdout if empty)
// as JSON lines or CSV.
func RunExport(path, format, output string, filter log.Filter) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

// jsonEvent is the export shape of an event. Frames are kept as text.
type jsonEvent struct {
	Timestamp    string `json:"timestamp"`
	ConnectionID string `json:"connection_id,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	Category     string `json:"category"`
	Type         string `json:"type"`
	Direction    string `json:"direction,omitempty"`
	Size         *int   `json:"size,omitempty"`
	Data         string `json:"data,omitempty"`
	OldState     string `json:"old_state,omitempty"`
	NewState     string `json:"new_state,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Attempt      int    `json:"attempt,omitempty"`
	RetryInMS    *int64 `json:"retry_in_ms,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorContext string `json:"error_context,omitempty"`
}

func toJSONEvent(event log.Event) jsonEvent {
	je := jsonEvent{
		Timestamp:    event.Timestamp.UTC().Format(timestampFormat),
		ConnectionID: event.ConnectionID,
		Endpoint:     event.Endpoint,
		Category:     event.Category.String(),
		Type:         eventType(event),
	}
	switch {
	case event.Message != nil:
		size := event.Message.Size
		je.Direction = event.Direction.String()
		je.Size = &size
		je.Data = string(event.Message.Data)
	case event.StateChange != nil:
		je.OldState = event.StateChange.OldState
		je.NewState = event.StateChange.NewState
		je.Reason = event.StateChange.Reason
		if event.StateChange.Attempt > 0 {
			ms := event.StateChange.RetryIn.Milliseconds()
			je.Attempt = event.StateChange.Attempt
			je.RetryInMS = &ms
		}
	case event.Error != nil:
		je.ErrorKind = event.Error.Kind.String()
		je.ErrorMessage = event.Error.Message
		je.ErrorContext = event.Error.Context
	}
	return je
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "connection_id", "direction", "category", "type", "size", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var direction, size, detail string
		switch {
		case event.Message != nil:
			direction = event.Direction.String()
			size = strconv.Itoa(event.Message.Size)
		case event.StateChange != nil:
			detail = event.StateChange.OldState + "->" + event.StateChange.NewState
		case event.Error != nil:
			detail = event.Error.Kind.String() + ": " + event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format(timestampFormat),
			event.ConnectionID,
			direction,
			event.Category.String(),
			eventType(event),
			size,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
