package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pinger records the pings a KeepAlive sends and optionally answers them.
type pinger struct {
	ka     *KeepAlive
	answer atomic.Bool

	mu   sync.Mutex
	seqs []uint32

	timedOut atomic.Bool
}

func newPinger(config KeepAliveConfig) *pinger {
	p := &pinger{}
	p.ka = NewKeepAlive(config, p.send, func() { p.timedOut.Store(true) })
	return p
}

func (p *pinger) send(seq uint32) error {
	p.mu.Lock()
	p.seqs = append(p.seqs, seq)
	p.mu.Unlock()

	if p.answer.Load() {
		// Echo the payload the way a WebSocket peer answers a ping.
		payload := encodePingPayload(seq)
		go func() {
			if got, ok := decodePingPayload(payload); ok {
				p.ka.PongReceived(got)
			}
		}()
	}
	return nil
}

func (p *pinger) pings() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seqs)
}

func (p *pinger) last() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.seqs) == 0 {
		return 0
	}
	return p.seqs[len(p.seqs)-1]
}

func TestKeepAliveConfig_DetectionDelay(t *testing.T) {
	tests := []struct {
		name   string
		config KeepAliveConfig
		want   time.Duration
	}{
		{
			name:   "defaults",
			config: DefaultKeepAliveConfig(),
			want:   3*10*time.Second + 5*time.Second,
		},
		{
			name:   "timeout shorter than interval",
			config: KeepAliveConfig{PingInterval: time.Second, PongTimeout: 500 * time.Millisecond, MaxMissedPongs: 2},
			want:   2*time.Second + 500*time.Millisecond,
		},
		{
			name:   "timeout longer than interval",
			config: KeepAliveConfig{PingInterval: 20 * time.Millisecond, PongTimeout: 50 * time.Millisecond, MaxMissedPongs: 2},
			want:   2*60*time.Millisecond + 50*time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DetectionDelay())
		})
	}
}

func TestNewKeepAlive_FillsDefaults(t *testing.T) {
	ka := NewKeepAlive(KeepAliveConfig{}, func(uint32) error { return nil }, nil)
	assert.Equal(t, DefaultKeepAliveConfig(), ka.config)
}

func TestKeepAlive_AnsweredPeerStaysAlive(t *testing.T) {
	p := newPinger(KeepAliveConfig{
		PingInterval:   15 * time.Millisecond,
		PongTimeout:    10 * time.Millisecond,
		MaxMissedPongs: 2,
	})
	p.answer.Store(true)

	p.ka.Start(context.Background())
	time.Sleep(120 * time.Millisecond)
	p.ka.Stop()

	assert.False(t, p.timedOut.Load())
	assert.Zero(t, p.ka.MissedPongs())
	assert.GreaterOrEqual(t, p.pings(), 3)
}

func TestKeepAlive_SilentPeerDetected(t *testing.T) {
	tests := []struct {
		name   string
		config KeepAliveConfig
	}{
		{
			name:   "interval longer than timeout",
			config: KeepAliveConfig{PingInterval: 20 * time.Millisecond, PongTimeout: 10 * time.Millisecond, MaxMissedPongs: 2},
		},
		{
			// Pings must not replace an outstanding ping before it times out,
			// or the miss counter never moves.
			name:   "interval shorter than timeout",
			config: KeepAliveConfig{PingInterval: 20 * time.Millisecond, PongTimeout: 50 * time.Millisecond, MaxMissedPongs: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPinger(tt.config)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			p.ka.Start(ctx)
			defer p.ka.Stop()

			require.Eventually(t, p.timedOut.Load, 10*tt.config.DetectionDelay(), 5*time.Millisecond)
			assert.Equal(t, tt.config.MaxMissedPongs, p.ka.MissedPongs())
			assert.Equal(t, tt.config.MaxMissedPongs, p.pings(), "one ping per missed pong")
		})
	}
}

func TestKeepAlive_StalePongIgnored(t *testing.T) {
	p := newPinger(KeepAliveConfig{
		PingInterval:   30 * time.Millisecond,
		PongTimeout:    10 * time.Millisecond,
		MaxMissedPongs: 5,
	})
	p.ka.Start(context.Background())
	defer p.ka.Stop()

	// The first ping goes unanswered.
	require.Eventually(t, func() bool { return p.ka.MissedPongs() == 1 }, time.Second, 2*time.Millisecond)

	// A late pong for that ping does not clear the counter.
	p.ka.PongReceived(p.last() - 1)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, p.ka.MissedPongs())

	// Answering the outstanding ping does.
	p.ka.PongReceived(p.last())
	require.Eventually(t, func() bool { return p.ka.MissedPongs() == 0 }, time.Second, 2*time.Millisecond)
}

func TestKeepAlive_StopEndsPings(t *testing.T) {
	for _, stop := range []string{"stop", "cancel"} {
		t.Run(stop, func(t *testing.T) {
			p := newPinger(KeepAliveConfig{
				PingInterval:   10 * time.Millisecond,
				PongTimeout:    5 * time.Millisecond,
				MaxMissedPongs: 100,
			})
			p.answer.Store(true)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			p.ka.Start(ctx)
			time.Sleep(35 * time.Millisecond)

			if stop == "stop" {
				p.ka.Stop()
				p.ka.Stop()
			} else {
				cancel()
			}
			time.Sleep(5 * time.Millisecond)
			before := p.pings()

			time.Sleep(40 * time.Millisecond)
			assert.Equal(t, before, p.pings())
		})
	}
}

func TestPingPayload(t *testing.T) {
	for _, seq := range []uint32{0, 1, 0xdeadbeef} {
		got, ok := decodePingPayload(encodePingPayload(seq))
		require.True(t, ok)
		assert.Equal(t, seq, got)
	}

	_, ok := decodePingPayload([]byte{1, 2})
	assert.False(t, ok, "short payload")
	_, ok = decodePingPayload(nil)
	assert.False(t, ok, "empty pong from a peer that drops the payload")
}
