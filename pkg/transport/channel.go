package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ChannelState is the lifecycle state of a Channel.
type ChannelState int32

const (
	// StateOpen indicates the channel can send and receive.
	StateOpen ChannelState = iota

	// StateClosing indicates a local close is in progress.
	StateClosing

	// StateClosed indicates the channel is finished.
	StateClosed
)

// String returns the channel state name.
func (s ChannelState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Channel errors.
var (
	ErrChannelClosed  = errors.New("channel closed")
	ErrAlreadyStarted = errors.New("channel already started")
	ErrKeepAlive      = errors.New("keep-alive timeout")
)

// Default channel limits.
const (
	// DefaultMaxMessageSize bounds a single inbound frame.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultWriteTimeout bounds a single frame write.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultCloseTimeout bounds writing the close control frame.
	DefaultCloseTimeout = time.Second
)

// ChannelConfig configures a Channel.
type ChannelConfig struct {
	// MaxMessageSize is the maximum inbound frame size (default: 64KB).
	MaxMessageSize int64

	// WriteTimeout is the timeout for a single write (default: 5s).
	WriteTimeout time.Duration

	// CloseTimeout is the timeout for the close handshake write (default: 1s).
	CloseTimeout time.Duration

	// KeepAlive configures ping/pong liveness checks.
	KeepAlive KeepAliveConfig
}

// DefaultChannelConfig returns the default channel configuration.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		MaxMessageSize: DefaultMaxMessageSize,
		WriteTimeout:   DefaultWriteTimeout,
		CloseTimeout:   DefaultCloseTimeout,
		KeepAlive:      DefaultKeepAliveConfig(),
	}
}

func (c ChannelConfig) withDefaults() ChannelConfig {
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.CloseTimeout == 0 {
		c.CloseTimeout = DefaultCloseTimeout
	}
	return c
}

// Handler receives channel events.
//
// OnFrame is called sequentially from the channel's read loop. OnClose is
// called exactly once, after the last OnFrame; err is nil for a clean close.
type Handler interface {
	OnFrame(data []byte)
	OnClose(err error)
}

// Channel is one WebSocket connection carrying text frames.
type Channel struct {
	config ChannelConfig
	conn   *websocket.Conn

	keepAlive *KeepAlive
	cancel    context.CancelFunc

	state     atomic.Int32
	started   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	// lostErr records why the channel was torn down from inside, e.g. a
	// keep-alive timeout, so the read loop can report it.
	lostMu  sync.Mutex
	lostErr error

	writeMu sync.Mutex
}

func newChannel(conn *websocket.Conn, config ChannelConfig) *Channel {
	config = config.withDefaults()
	conn.SetReadLimit(config.MaxMessageSize)

	c := &Channel{
		config: config,
		conn:   conn,
		done:   make(chan struct{}),
	}
	c.state.Store(int32(StateOpen))
	return c
}

// State returns the current channel state.
func (c *Channel) State() ChannelState {
	return ChannelState(c.state.Load())
}

// Done is closed when the read loop has exited.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Start begins delivering frames to h. It may be called once.
func (c *Channel) Start(h Handler) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	if !c.config.KeepAlive.Disabled {
		c.keepAlive = NewKeepAlive(c.config.KeepAlive, c.sendPing, func() {
			c.fail(ErrKeepAlive)
		})
		c.conn.SetPongHandler(func(appData string) error {
			if seq, ok := decodePingPayload([]byte(appData)); ok {
				c.keepAlive.PongReceived(seq)
			}
			return nil
		})
		c.keepAlive.Start(ctx)
	}

	go c.readLoop(h)
	return nil
}

// Send writes data as one text frame.
func (c *Channel) Send(data []byte) error {
	if c.State() != StateOpen {
		return ErrChannelClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	defer c.conn.SetWriteDeadline(time.Time{})

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close sends a close frame and tears the connection down. The read loop
// then exits and reports a clean close. It is safe to call more than once.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.state.CompareAndSwap(int32(StateOpen), int32(StateClosing))

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.config.CloseTimeout))

		err = c.conn.Close()
		if !c.started.Load() {
			c.state.Store(int32(StateClosed))
			close(c.done)
		}
	})
	return err
}

// fail tears the channel down after an internal error.
func (c *Channel) fail(reason error) {
	c.lostMu.Lock()
	if c.lostErr == nil {
		c.lostErr = reason
	}
	c.lostMu.Unlock()

	c.closeOnce.Do(func() {
		_ = c.conn.Close()
	})
}

func (c *Channel) sendPing(seq uint32) error {
	return c.conn.WriteControl(websocket.PingMessage, encodePingPayload(seq), time.Now().Add(c.config.WriteTimeout))
}

func (c *Channel) readLoop(h Handler) {
	var closeErr error
	defer func() {
		if c.keepAlive != nil {
			c.keepAlive.Stop()
		}
		c.cancel()
		_ = c.conn.Close()
		c.state.Store(int32(StateClosed))
		close(c.done)
		h.OnClose(closeErr)
	}()

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			closeErr = c.classify(err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		h.OnFrame(data)
	}
}

// classify maps a read error to the error reported through OnClose.
func (c *Channel) classify(err error) error {
	c.lostMu.Lock()
	lost := c.lostErr
	c.lostMu.Unlock()

	switch {
	case lost != nil:
		return lost
	case c.State() == StateClosing:
		return nil
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		return nil
	default:
		return fmt.Errorf("read frame: %w", err)
	}
}
