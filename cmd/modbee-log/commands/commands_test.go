package commands

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modbee/modbee-dash/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

var base = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

const connA = "aaaaaaaa-1111-4000-8000-000000000001"
const connB = "bbbbbbbb-2222-4000-8000-000000000002"

// sessionEvents is one connection, one lost channel and one recovery.
func sessionEvents() []log.Event {
	endpoint := "ws://192.168.4.1/ws"
	return []log.Event{
		{Timestamp: base, ConnectionID: connA, Endpoint: endpoint, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "CONNECTING", NewState: "OPEN"}},
		{Timestamp: base.Add(time.Second), ConnectionID: connA, Endpoint: endpoint, Category: log.CategoryMessage,
			Direction: log.DirectionIn, Message: log.NewMessageEvent(log.MessageKindSnapshot, []byte(`{"network":{}}`))},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: connA, Endpoint: endpoint, Category: log.CategoryMessage,
			Direction: log.DirectionOut, Message: log.NewMessageEvent(log.MessageKindCalibration, []byte(`{"calibration":{}}`))},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: connA, Endpoint: endpoint, Category: log.CategoryError,
			Error: &log.ErrorEventData{Kind: log.ErrorKindConnectionLost, Message: "connection lost", Context: "read"}},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: connA, Endpoint: endpoint, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "OPEN", NewState: "CLOSED", Attempt: 1, RetryIn: 5 * time.Second}},
		{Timestamp: base.Add(8 * time.Second), ConnectionID: connB, Endpoint: endpoint, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "CONNECTING", NewState: "OPEN"}},
		{Timestamp: base.Add(9 * time.Second), ConnectionID: connB, Endpoint: endpoint, Category: log.CategoryMessage,
			Direction: log.DirectionIn, Message: log.NewMessageEvent(log.MessageKindSnapshot, []byte(`{"network":{}}`))},
	}
}

func TestViewStopsAtTruncatedTail(t *testing.T) {
	path := createTestLogFile(t, sessionEvents()[:1])

	record, err := log.EncodeEvent(sessionEvents()[1])
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.Write(record[:len(record)-3]); err != nil {
		t.Fatalf("write partial record: %v", err)
	}
	f.Close()

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "CONNECTING -> OPEN") {
		t.Errorf("complete event missing:\n%s", output)
	}
	if !strings.Contains(output, "(log ends with an incomplete event)") {
		t.Errorf("truncation not reported:\n%s", output)
	}
}

func TestViewFormatsEvents(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2026-10-17T09:30:01.000000Z [conn:aaaaaaaa] IN  SNAPSHOT",
		`Data: {"network":{}}`,
		"OUT CALIBRATION",
		"CONNECTING -> OPEN",
		"Retry: attempt 1 in 5s",
		"Kind: CONNECTION_LOST",
		"Context: read",
		"Endpoint: ws://192.168.4.1/ws",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestViewAppliesFilter(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	filter, err := FilterOptions{ConnID: connB, Category: "message"}.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := RunView(path, filter, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if got := strings.Count(output, "[conn:"); got != 1 {
		t.Errorf("expected 1 event, got %d:\n%s", got, output)
	}
	if strings.Contains(output, "aaaaaaaa") {
		t.Error("connection filter not applied")
	}
}

func TestViewTruncatesLongFrames(t *testing.T) {
	data := []byte(`{"pad":"` + strings.Repeat("x", 2000) + `"}`)
	path := createTestLogFile(t, []log.Event{
		{Timestamp: base, Category: log.CategoryMessage, Message: log.NewMessageEvent(log.MessageKindUnknown, data)},
	})

	var buf bytes.Buffer
	if err := RunView(path, log.Filter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(truncated)") {
		t.Errorf("expected truncation marker:\n%s", buf.String())
	}
}

func TestFilterOptionsBuild(t *testing.T) {
	filter, err := FilterOptions{
		TimeStart: "2026-10-17T09:30:02Z",
		TimeEnd:   "2026-10-17T09:30:09Z",
		Direction: "OUT",
	}.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if filter.TimeStart == nil || filter.TimeEnd == nil || filter.Direction == nil {
		t.Fatal("expected time window and direction to be set")
	}
	if *filter.Direction != log.DirectionOut {
		t.Errorf("direction = %v, want OUT", *filter.Direction)
	}

	bad := []FilterOptions{
		{TimeStart: "yesterday"},
		{TimeEnd: "17.10.2026"},
		{Direction: "sideways"},
		{Category: "control"},
	}
	for _, o := range bad {
		if _, err := o.Build(); err == nil {
			t.Errorf("expected error for %+v", o)
		}
	}
}

func TestExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out, log.Filter{}); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var m map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d", len(lines))
	}

	snap := lines[1]
	if snap["type"] != "SNAPSHOT" || snap["direction"] != "IN" || snap["data"] != `{"network":{}}` {
		t.Errorf("unexpected snapshot line: %v", snap)
	}
	retry := lines[4]
	if retry["new_state"] != "CLOSED" || retry["retry_in_ms"] != float64(5000) {
		t.Errorf("unexpected retry line: %v", retry)
	}
	if lines[3]["error_kind"] != "CONNECTION_LOST" {
		t.Errorf("unexpected error line: %v", lines[3])
	}
}

func TestExportCSV(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out, log.Filter{}); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("expected header + 7 rows, got %d", len(rows))
	}
	if rows[0][0] != "timestamp" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[2][2] != "OUT" && rows[3][2] != "OUT" {
		t.Errorf("expected an OUT message row: %v", rows[2:4])
	}
	if rows[5][6] != "OPEN->CLOSED" {
		t.Errorf("unexpected state detail: %v", rows[5])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	if err := RunExport(path, "xml", "", log.Filter{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFilterWritesMatchingEvents(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "errors.dlog")

	filter, _ := FilterOptions{Category: "error"}.Build()
	count, err := RunFilter(path, out, filter)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatalf("open filtered log: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != nil {
		t.Fatalf("read filtered event: %v", err)
	}
	if event.Error == nil || event.Error.Kind != log.ErrorKindConnectionLost {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestStats(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	stats, err := CollectStats(path)
	if err != nil {
		t.Fatalf("CollectStats failed: %v", err)
	}
	if stats.TotalEvents != 7 {
		t.Errorf("TotalEvents = %d, want 7", stats.TotalEvents)
	}
	if stats.MessagesByKind[log.MessageKindSnapshot] != 2 {
		t.Errorf("snapshots = %d, want 2", stats.MessagesByKind[log.MessageKindSnapshot])
	}
	if stats.RetriesScheduled != 1 {
		t.Errorf("RetriesScheduled = %d, want 1", stats.RetriesScheduled)
	}
	if len(stats.Connections) != 2 {
		t.Fatalf("connections = %d, want 2", len(stats.Connections))
	}
	if got := stats.Connections[connA].LastState; got != "CLOSED" {
		t.Errorf("last state of first connection = %q, want CLOSED", got)
	}

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Total Events: 7", "Connections: 2", "Reconnects scheduled: 1", "CONNECTION_LOST:", "[aaaaaaaa] 5 events, 1 snapshots"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestStatsMissingFile(t *testing.T) {
	if _, err := CollectStats(filepath.Join(t.TempDir(), "missing.dlog")); err == nil {
		t.Error("expected error for missing file")
	}
}
