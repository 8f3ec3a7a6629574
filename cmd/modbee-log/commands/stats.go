package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/modbee/modbee-dash/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	MessagesByKind   map[log.MessageKind]int
	MessagesByDir    map[log.Direction]int
	ErrorsByKind     map[log.ErrorKind]int
	Connections      map[string]*ConnectionStats
	RetriesScheduled int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single channel instance.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Snapshots int
	LastState string
}

// CollectStats reads the log file and aggregates its events.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		MessagesByKind:   make(map[log.MessageKind]int),
		MessagesByDir:    make(map[log.Direction]int),
		ErrorsByKind:     make(map[log.ErrorKind]int),
		Connections:      make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		switch {
		case event.Message != nil:
			stats.MessagesByKind[event.Message.Kind]++
			stats.MessagesByDir[event.Direction]++
		case event.StateChange != nil:
			if event.StateChange.Attempt > 0 {
				stats.RetriesScheduled++
			}
		case event.Error != nil:
			stats.ErrorsByKind[event.Error.Kind]++
		}

		if event.ConnectionID == "" {
			continue
		}
		conn, ok := stats.Connections[event.ConnectionID]
		if !ok {
			conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		if event.Timestamp.After(conn.LastSeen) {
			conn.LastSeen = event.Timestamp
		}
		if event.Message != nil && event.Message.Kind == log.MessageKindSnapshot {
			conn.Snapshots++
		}
		if event.StateChange != nil {
			conn.LastState = event.StateChange.NewState
		}
	}

	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Modbee Dashboard Event Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Messages:")
	for _, kind := range []log.MessageKind{log.MessageKindSnapshot, log.MessageKindCalibration, log.MessageKindUnknown} {
		if count := stats.MessagesByKind[kind]; count > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", kind.String()+":", count)
		}
	}
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.MessagesByDir[dir]; count > 0 {
			fmt.Fprintf(w, "  %-18s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, %d snapshots, duration %s",
				shortenConnID(c.id), c.stats.Events, c.stats.Snapshots, duration)
			if c.stats.LastState != "" {
				fmt.Fprintf(w, ", last state %s", c.stats.LastState)
			}
			fmt.Fprintln(w)
		}
	}

	if stats.RetriesScheduled > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Reconnects scheduled: %d\n", stats.RetriesScheduled)
	}

	if len(stats.ErrorsByKind) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors:")
		for _, kind := range []log.ErrorKind{log.ErrorKindMalformedMessage, log.ErrorKindConnectionLost, log.ErrorKindSendUnavailable} {
			if count := stats.ErrorsByKind[kind]; count > 0 {
				fmt.Fprintf(w, "  %-18s %d\n", kind.String()+":", count)
			}
		}
	}
}
