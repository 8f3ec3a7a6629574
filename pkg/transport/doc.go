// Package transport provides the Modbee live channel: a WebSocket connection
// carrying JSON text frames between the dashboard and the controller.
//
// The transport layer handles:
//   - Dialing the controller endpoint (ws://<host>/ws)
//   - Accepting channels on the device side (used by the simulator)
//   - Sequential frame delivery through a single read loop
//   - Keep-alive ping/pong for connection liveness
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      JSON documents            │
//	├────────────────────────────────┤
//	│   WebSocket text frames        │
//	├────────────────────────────────┤
//	│           HTTP/1.1             │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// A Channel reports its close exactly once, after the last frame has been
// delivered, so a consumer never sees a frame from a channel it was already
// told was closed.
//
// # Keep-Alive
//
// Liveness is monitored with WebSocket ping control frames. The payload
// carries a 4-byte sequence number that the peer echoes in its pong:
//   - Ping interval: 10 seconds
//   - Pong timeout: 5 seconds
//   - Max missed pongs: 3
//   - Maximum detection delay: 35 seconds
package transport
