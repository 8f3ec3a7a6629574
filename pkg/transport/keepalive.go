package transport

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"
)

// Keep-alive constants.
const (
	// DefaultPingInterval is the default interval between pings.
	DefaultPingInterval = 10 * time.Second

	// DefaultPongTimeout is the default timeout waiting for a pong response.
	DefaultPongTimeout = 5 * time.Second

	// DefaultMaxMissedPongs is the default number of missed pongs before disconnect.
	DefaultMaxMissedPongs = 3
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	// Disabled turns keep-alive monitoring off.
	Disabled bool

	// PingInterval is the interval between pings.
	PingInterval time.Duration

	// PongTimeout is the timeout waiting for a pong response.
	PongTimeout time.Duration

	// MaxMissedPongs is the number of missed pongs before disconnect.
	MaxMissedPongs int
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// DetectionDelay calculates the maximum detection delay for this configuration.
// A ping is only replaced once it has timed out, which is checked on the
// ping ticks, so a pong timeout longer than the interval stretches each
// cycle to the next tick after it.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	cycle := c.PingInterval
	if c.PingInterval > 0 && c.PongTimeout > c.PingInterval {
		ticks := (c.PongTimeout + c.PingInterval - 1) / c.PingInterval
		cycle = c.PingInterval * ticks
	}
	return cycle*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

// KeepAlive manages connection liveness monitoring.
type KeepAlive struct {
	config KeepAliveConfig

	sendPing  func(seq uint32) error
	onTimeout func()

	sequence     atomic.Uint32
	missedPongs  int
	lastPingTime time.Time
	pendingPing  uint32
	hasPending   bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	pongCh  chan uint32
}

// NewKeepAlive creates a new keep-alive manager.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	if config.PingInterval == 0 {
		config.PingInterval = DefaultPingInterval
	}
	if config.PongTimeout == 0 {
		config.PongTimeout = DefaultPongTimeout
	}
	if config.MaxMissedPongs == 0 {
		config.MaxMissedPongs = DefaultMaxMissedPongs
	}

	return &KeepAlive{
		config:    config,
		sendPing:  sendPing,
		onTimeout: onTimeout,
		stopCh:    make(chan struct{}),
		pongCh:    make(chan uint32, 1),
	}
}

// Start begins the keep-alive monitoring loop.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	if ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = true
	ka.stopCh = make(chan struct{})
	ka.mu.Unlock()

	go ka.loop(ctx)
}

// Stop stops the keep-alive monitoring.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if !ka.running {
		return
	}
	ka.running = false
	close(ka.stopCh)
}

// PongReceived should be called when a pong arrives.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	default:
	}
}

// MissedPongs returns the number of consecutive unanswered pings.
func (ka *KeepAlive) MissedPongs() int {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.missedPongs
}

func (ka *KeepAlive) loop(ctx context.Context) {
	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	ka.sendPingMessage()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ka.stopCh:
			return
		case <-ticker.C:
			if ka.handleTick() {
				return
			}
		case seq := <-ka.pongCh:
			ka.handlePong(seq)
		}
	}
}

func (ka *KeepAlive) sendPingMessage() {
	seq := ka.sequence.Add(1)

	ka.mu.Lock()
	ka.lastPingTime = time.Now()
	ka.pendingPing = seq
	ka.hasPending = true
	ka.mu.Unlock()

	// A failed write is caught by the pong timeout.
	_ = ka.sendPing(seq)
}

// handleTick reports whether the connection was declared dead.
func (ka *KeepAlive) handleTick() bool {
	ka.mu.Lock()
	if ka.hasPending {
		if time.Since(ka.lastPingTime) < ka.config.PongTimeout {
			// Still waiting on the outstanding ping.
			ka.mu.Unlock()
			return false
		}
		ka.missedPongs++
		ka.hasPending = false

		if ka.missedPongs >= ka.config.MaxMissedPongs {
			ka.mu.Unlock()
			if ka.onTimeout != nil {
				ka.onTimeout()
			}
			return true
		}
	}
	ka.mu.Unlock()

	ka.sendPingMessage()
	return false
}

func (ka *KeepAlive) handlePong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	// Pongs for earlier pings are ignored.
	if ka.hasPending && seq == ka.pendingPing {
		ka.hasPending = false
		ka.missedPongs = 0
	}
}

// encodePingPayload packs a ping sequence number into a control frame payload.
func encodePingPayload(seq uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, seq)
	return b
}

// decodePingPayload extracts the sequence number echoed in a pong.
func decodePingPayload(data []byte) (uint32, bool) {
	if len(data) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(data), true
}
