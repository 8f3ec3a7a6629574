package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modbee/modbee-dash/pkg/log"
	"github.com/modbee/modbee-dash/pkg/snapshot"
	"github.com/modbee/modbee-dash/pkg/transport"
)

// Connection errors.
var (
	ErrAlreadyConnected = errors.New("already connected")
	ErrNotConnected     = errors.New("not connected")
	ErrConnectionLost   = errors.New("connection lost")
	ErrStopped          = errors.New("connection manager stopped")
)

// State represents the live channel state.
type State uint8

const (
	// StateDisconnected is the initial state, before the first attempt.
	StateDisconnected State = iota

	// StateConnecting indicates a dial is in progress.
	StateConnecting

	// StateOpen indicates a channel is live.
	StateOpen

	// StateClosed indicates the channel was lost and a retry is armed.
	StateClosed

	// StateStopped indicates the manager has been shut down.
	StateStopped
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Channel is one live connection to the controller.
// Implemented by *transport.Channel.
type Channel interface {
	// Start begins delivering frames to h.
	Start(h transport.Handler) error

	// Send writes one text frame.
	Send(data []byte) error

	// Close tears the channel down; h.OnClose follows.
	Close() error
}

// Dialer opens channels.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Channel, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, endpoint string) (Channel, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, endpoint string) (Channel, error) {
	return f(ctx, endpoint)
}

// WebSocketDialer adapts a transport.Dialer to the Dialer interface.
func WebSocketDialer(d *transport.Dialer) Dialer {
	return DialerFunc(func(ctx context.Context, endpoint string) (Channel, error) {
		ch, err := d.Dial(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return ch, nil
	})
}

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 10 * time.Second

// Config configures a Manager.
type Config struct {
	// Endpoint is the live-channel URL, see transport.EndpointForHost.
	Endpoint string

	// RetryDelay is the flat reconnect interval (default: 5s).
	RetryDelay time.Duration

	// DialTimeout bounds each scheduled attempt (default: 10s).
	DialTimeout time.Duration

	// Clock drives the retry timer (default: SystemClock).
	Clock Clock

	// Logger receives channel events (default: NoopLogger).
	Logger log.Logger
}

// Manager owns the single live channel slot and its reconnect loop.
type Manager struct {
	mu sync.RWMutex

	state    State
	endpoint string
	dialer   Dialer
	clock    Clock
	logger   log.Logger
	retry    *Retry

	dialTimeout time.Duration

	// The slot. gen increments on every attempt so callbacks from a
	// replaced channel can be recognized and ignored.
	channel Channel
	connID  string
	gen     uint64
	timer   Timer

	ctx    context.Context
	cancel context.CancelFunc

	onSnapshot     func(snapshot.Snapshot)
	onStateChange  func(oldState, newState State)
	onReconnecting func(attempt int, delay time.Duration)
}

// NewManager creates a manager that dials endpoints through dialer.
func NewManager(dialer Dialer, config Config) *Manager {
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = log.NoopLogger{}
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		state:       StateDisconnected,
		endpoint:    config.Endpoint,
		dialer:      dialer,
		clock:       config.Clock,
		logger:      config.Logger,
		retry:       NewRetry(config.RetryDelay),
		dialTimeout: config.DialTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true while a channel is open.
func (m *Manager) IsConnected() bool {
	return m.State() == StateOpen
}

// Endpoint returns the live-channel URL.
func (m *Manager) Endpoint() string {
	return m.endpoint
}

// ConnectionID returns the ID of the current or most recent channel.
func (m *Manager) ConnectionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connID
}

// RetryAttempts returns the number of retries scheduled since the last
// channel opened.
func (m *Manager) RetryAttempts() int {
	return m.retry.Attempts()
}

// RetryDelay returns the reconnect interval.
func (m *Manager) RetryDelay() time.Duration {
	return m.retry.Delay()
}

// SetEventLogger replaces the event log sink.
func (m *Manager) SetEventLogger(l log.Logger) {
	if l == nil {
		l = log.NoopLogger{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = l
}

// OnSnapshot sets the callback for decoded snapshots.
func (m *Manager) OnSnapshot(fn func(snapshot.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSnapshot = fn
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnReconnecting sets a callback invoked whenever a retry is scheduled.
func (m *Manager) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnecting = fn
}

// Connect opens the live channel. A failed dial is returned and a retry is
// scheduled as for any other close.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnecting, StateOpen:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateStopped:
		m.mu.Unlock()
		return ErrStopped
	}
	return m.attemptLocked(ctx)
}

// Send writes data to the open channel. It never queues: without an open
// channel it returns ErrNotConnected.
func (m *Manager) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateOpen || m.channel == nil {
		m.logLocked(log.Event{
			Category: log.CategoryError,
			Error: &log.ErrorEventData{
				Kind:    log.ErrorKindSendUnavailable,
				Message: ErrNotConnected.Error(),
				Context: "state " + m.state.String(),
			},
		})
		return ErrNotConnected
	}

	if err := m.channel.Send(data); err != nil {
		m.logLocked(log.Event{
			ConnectionID: m.connID,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Kind:    log.ErrorKindSendUnavailable,
				Message: err.Error(),
				Context: "send",
			},
		})
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	m.logLocked(log.Event{
		ConnectionID: m.connID,
		Direction:    log.DirectionOut,
		Category:     log.CategoryMessage,
		Message:      log.NewMessageEvent(log.MessageKindCalibration, data),
	})
	return nil
}

// Stop shuts the manager down: the pending retry is cancelled and the open
// channel, if any, is closed.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state == StateStopped {
		m.mu.Unlock()
		return
	}

	oldState := m.state
	m.state = StateStopped
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	ch := m.channel
	m.channel = nil
	m.cancel()
	notify := m.stateEventLocked(oldState, StateStopped, "stopped")
	m.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
	notify()
}

// attemptLocked dials a fresh channel. The caller holds m.mu; it is
// released before returning.
func (m *Manager) attemptLocked(ctx context.Context) error {
	m.gen++
	gen := m.gen
	m.connID = uuid.NewString()
	connID := m.connID

	oldState := m.state
	m.state = StateConnecting
	notify := m.stateEventLocked(oldState, StateConnecting, "")
	m.mu.Unlock()
	notify()

	ch, err := m.dialer.Dial(ctx, m.endpoint)

	m.mu.Lock()
	if m.state != StateConnecting || gen != m.gen {
		m.mu.Unlock()
		if ch != nil {
			_ = ch.Close()
		}
		return ErrStopped
	}

	if err != nil {
		m.logLocked(log.Event{
			ConnectionID: connID,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Kind:    log.ErrorKindConnectionLost,
				Message: err.Error(),
				Context: "dial",
			},
		})
		notify := m.scheduleRetryLocked(StateConnecting, "dial failed")
		m.mu.Unlock()
		notify()
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}

	m.channel = ch
	m.state = StateOpen
	m.retry.Reset()
	notify = m.stateEventLocked(StateConnecting, StateOpen, "")
	m.mu.Unlock()
	notify()

	h := &channelHandler{m: m, gen: gen, connID: connID}
	if err := ch.Start(h); err != nil {
		h.OnClose(err)
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	return nil
}

// scheduleRetryLocked moves to CLOSED and arms exactly one retry timer.
// The caller holds m.mu and must run the returned notification after
// releasing it.
func (m *Manager) scheduleRetryLocked(oldState State, reason string) func() {
	m.channel = nil
	m.state = StateClosed

	delay := m.retry.Next()
	attempt := m.retry.Attempts()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.clock.AfterFunc(delay, m.retryNow)

	m.logLocked(log.Event{
		ConnectionID: m.connID,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: oldState.String(),
			NewState: StateClosed.String(),
			Reason:   reason,
			Attempt:  attempt,
			RetryIn:  delay,
		},
	})

	onStateChange := m.onStateChange
	onReconnecting := m.onReconnecting
	return func() {
		if onStateChange != nil {
			onStateChange(oldState, StateClosed)
		}
		if onReconnecting != nil {
			onReconnecting(attempt, delay)
		}
	}
}

// retryNow runs when the retry timer fires.
func (m *Manager) retryNow() {
	m.mu.Lock()
	m.timer = nil
	if m.state != StateClosed {
		// Stopped, or Connect was called by hand in the meantime.
		m.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.dialTimeout)
	defer cancel()
	_ = m.attemptLocked(ctx)
}

// stateEventLocked logs a transition and returns the callback notification
// to run once m.mu is released.
func (m *Manager) stateEventLocked(oldState, newState State, reason string) func() {
	m.logLocked(log.Event{
		ConnectionID: m.connID,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})

	fn := m.onStateChange
	return func() {
		if fn != nil {
			fn(oldState, newState)
		}
	}
}

func (m *Manager) logLocked(e log.Event) {
	e.Timestamp = m.clock.Now()
	e.Endpoint = m.endpoint
	m.logger.Log(e)
}

func (m *Manager) handleFrame(gen uint64, connID string, data []byte) {
	m.mu.RLock()
	current := gen == m.gen && m.state == StateOpen
	logger := m.logger
	onSnapshot := m.onSnapshot
	m.mu.RUnlock()

	if !current {
		return
	}

	now := m.clock.Now()
	s, err := snapshot.Decode(data)
	if err != nil {
		logger.Log(log.Event{
			Timestamp:    now,
			ConnectionID: connID,
			Direction:    log.DirectionIn,
			Category:     log.CategoryMessage,
			Endpoint:     m.endpoint,
			Message:      log.NewMessageEvent(log.MessageKindUnknown, data),
		})
		logger.Log(log.Event{
			Timestamp:    now,
			ConnectionID: connID,
			Category:     log.CategoryError,
			Endpoint:     m.endpoint,
			Error: &log.ErrorEventData{
				Kind:    log.ErrorKindMalformedMessage,
				Message: err.Error(),
				Context: "inbound frame",
			},
		})
		return
	}

	logger.Log(log.Event{
		Timestamp:    now,
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Category:     log.CategoryMessage,
		Endpoint:     m.endpoint,
		Message:      log.NewMessageEvent(log.MessageKindSnapshot, data),
	})

	if onSnapshot != nil {
		onSnapshot(s)
	}
}

func (m *Manager) handleClose(gen uint64, err error) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateOpen {
		m.mu.Unlock()
		return
	}

	reason := "closed"
	if err != nil {
		reason = err.Error()
		m.logLocked(log.Event{
			ConnectionID: m.connID,
			Category:     log.CategoryError,
			Error: &log.ErrorEventData{
				Kind:    log.ErrorKindConnectionLost,
				Message: err.Error(),
				Context: "read",
			},
		})
	}
	notify := m.scheduleRetryLocked(StateOpen, reason)
	m.mu.Unlock()
	notify()
}

// channelHandler binds channel callbacks to the attempt that opened it.
type channelHandler struct {
	m      *Manager
	gen    uint64
	connID string
}

func (h *channelHandler) OnFrame(data []byte) { h.m.handleFrame(h.gen, h.connID, data) }
func (h *channelHandler) OnClose(err error)   { h.m.handleClose(h.gen, err) }

var _ transport.Handler = (*channelHandler)(nil)
