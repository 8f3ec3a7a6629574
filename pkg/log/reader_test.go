package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvents(t *testing.T, events ...Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.dlog")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		logger.Log(e)
	}
	require.NoError(t, logger.Close())
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, e)
	}
}

func TestFilteredReader(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeEvents(t,
		Event{Timestamp: base, ConnectionID: "a", Category: CategoryState, StateChange: &StateChangeEvent{NewState: "OPEN"}},
		Event{Timestamp: base.Add(time.Second), ConnectionID: "a", Direction: DirectionIn, Category: CategoryMessage, Message: &MessageEvent{Kind: MessageKindSnapshot}},
		Event{Timestamp: base.Add(2 * time.Second), ConnectionID: "a", Direction: DirectionOut, Category: CategoryMessage, Message: &MessageEvent{Kind: MessageKindCalibration}},
		Event{Timestamp: base.Add(3 * time.Second), ConnectionID: "b", Category: CategoryError, Error: &ErrorEventData{Kind: ErrorKindMalformedMessage, Message: "bad"}},
	)

	out := DirectionOut
	errs := CategoryError
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"connection", Filter{ConnectionID: "a"}, 3},
		{"direction only matches messages", Filter{Direction: &out}, 1},
		{"category", Filter{Category: &errs}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			require.NoError(t, err)
			defer r.Close()
			assert.Len(t, readAll(t, r), tt.want)
		})
	}
}

func TestNewReader_MissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.dlog"))
	assert.Error(t, err)
}
