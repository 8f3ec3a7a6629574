package log

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Reader errors.
var (
	// ErrTruncated is returned when a log ends inside a record, which is
	// what a dashboard killed mid-write leaves behind.
	ErrTruncated = errors.New("event log truncated")

	// ErrCorrupt is returned for a record that is not a valid event.
	ErrCorrupt = errors.New("corrupt event record")
)

// Records are self-delimiting CBOR items written back to back. Encoding is
// deterministic and keeps nanosecond timestamps.
var (
	eventEncMode = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	eventDecMode = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("event log encoder: %v", err))
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("event log decoder: %v", err))
	}
	return m
}

// EncodeEvent returns the record bytes for event.
func EncodeEvent(event Event) ([]byte, error) {
	data, err := eventEncMode.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

// DecodeEvent parses a single record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return event, nil
}

func newRecordDecoder(r io.Reader) *cbor.Decoder {
	return eventDecMode.NewDecoder(r)
}

// recordError maps a stream decoding failure to io.EOF, ErrTruncated or
// ErrCorrupt.
func recordError(err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return ErrTruncated
	default:
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
}
