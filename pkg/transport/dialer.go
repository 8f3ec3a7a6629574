package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultDialTimeout bounds the WebSocket handshake.
const DefaultDialTimeout = 10 * time.Second

// DialerConfig configures a Dialer.
type DialerConfig struct {
	// DialTimeout bounds the TCP connect and HTTP upgrade (default: 10s).
	DialTimeout time.Duration

	// Channel configures every channel the dialer opens.
	Channel ChannelConfig
}

// Dialer opens channels to a controller.
type Dialer struct {
	config DialerConfig
	ws     *websocket.Dialer
}

// NewDialer creates a Dialer.
func NewDialer(config DialerConfig) *Dialer {
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	config.Channel = config.Channel.withDefaults()

	return &Dialer{
		config: config,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.DialTimeout,
		},
	}
}

// Dial connects to endpoint and returns an open, not yet started channel.
func (d *Dialer) Dial(ctx context.Context, endpoint string) (*Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, d.config.DialTimeout)
	defer cancel()

	conn, resp, err := d.ws.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return newChannel(conn, d.config.Channel), nil
}
