package log

import "time"

// Event is one entry of the dashboard event log.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the channel instance (UUID). Every reconnect
	// attempt gets a fresh ID.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction of message flow. Only meaningful for messages.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Endpoint is the live-channel URL.
	Endpoint string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these is set).
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn is device to client.
	DirectionIn Direction = 0
	// DirectionOut is client to device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage is a live-channel message.
	CategoryMessage Category = 0
	// CategoryState is a channel state change.
	CategoryState Category = 1
	// CategoryError is an error handled at its boundary.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent describes a frame that crossed the live channel.
type MessageEvent struct {
	// Kind is the decoded message kind.
	Kind MessageKind `cbor:"1,keyasint"`

	// Size is the frame size in bytes.
	Size int `cbor:"2,keyasint"`

	// Data is the raw frame (may be truncated, see MaxPayload).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates Data was cut at MaxPayload bytes.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// MaxPayload is the maximum number of frame bytes kept in a MessageEvent.
const MaxPayload = 4096

// NewMessageEvent builds a MessageEvent for data, truncating long frames.
func NewMessageEvent(kind MessageKind, data []byte) *MessageEvent {
	m := &MessageEvent{Kind: kind, Size: len(data)}
	if len(data) > MaxPayload {
		m.Data = append([]byte(nil), data[:MaxPayload]...)
		m.Truncated = true
	} else {
		m.Data = append([]byte(nil), data...)
	}
	return m
}

// MessageKind identifies a live-channel message.
type MessageKind uint8

const (
	// MessageKindUnknown is a frame that could not be classified.
	MessageKindUnknown MessageKind = 0
	// MessageKindSnapshot is a device status document.
	MessageKindSnapshot MessageKind = 1
	// MessageKindCalibration is an outbound calibration command.
	MessageKindCalibration MessageKind = 2
)

// String returns the message kind name.
func (k MessageKind) String() string {
	switch k {
	case MessageKindSnapshot:
		return "SNAPSHOT"
	case MessageKindCalibration:
		return "CALIBRATION"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures channel lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`

	// Attempt is the reconnect attempt number when a retry is scheduled.
	Attempt int `cbor:"4,keyasint,omitempty"`

	// RetryIn is the delay before the scheduled reconnect attempt.
	RetryIn time.Duration `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures an error handled at the boundary where it occurred.
type ErrorEventData struct {
	// Kind classifies the error.
	Kind ErrorKind `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`

	// Context describes the operation that failed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// ErrorKind classifies logged errors.
type ErrorKind uint8

const (
	// ErrorKindMalformedMessage is an inbound frame that failed to decode.
	ErrorKindMalformedMessage ErrorKind = 0
	// ErrorKindConnectionLost is a channel that closed or failed to open.
	ErrorKindConnectionLost ErrorKind = 1
	// ErrorKindSendUnavailable is a send attempted while no channel was open.
	ErrorKindSendUnavailable ErrorKind = 2
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindMalformedMessage:
		return "MALFORMED_MESSAGE"
	case ErrorKindConnectionLost:
		return "CONNECTION_LOST"
	case ErrorKindSendUnavailable:
		return "SEND_UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}
