// Package connection manages the lifecycle of the dashboard's live channel.
//
// A Manager owns a single channel slot. It dials the controller, decodes
// every inbound frame into a snapshot, and replaces the channel wholesale
// whenever it is lost.
//
// # State Machine
//
//	DISCONNECTED → CONNECTING → OPEN → CLOSED (retry armed) → CONNECTING → ...
//
// CLOSED is entered on every close, clean or not, and on every failed dial.
// There is no terminal state during normal operation; STOPPED exists only so
// the process can release the timer and channel at exit.
//
// # Reconnection Strategy
//
// The retry interval is flat:
//
//  1. Every close schedules exactly one attempt, 5 seconds later
//  2. A failed attempt schedules the next one, again 5 seconds later
//  3. Attempts are unbounded and never accelerate or back off
//  4. Each attempt opens a fresh channel with a new connection ID
//
// Nothing is replayed after a reconnect; the next snapshot resynchronizes
// the client. A pending retry is only ever cancelled by Stop.
//
// # Sending
//
// Send is fire-and-forget. While no channel is open it fails with
// ErrNotConnected and nothing is queued.
package connection
