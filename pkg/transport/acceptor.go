package transport

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Acceptor upgrades HTTP requests into channels on the device side.
type Acceptor struct {
	config   ChannelConfig
	upgrader websocket.Upgrader
}

// NewAcceptor creates an Acceptor. Any origin is accepted; the controller
// serves its own page and performs no authentication.
func NewAcceptor(config ChannelConfig) *Acceptor {
	return &Acceptor{
		config: config.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Accept upgrades the request. On failure the upgrader has already written
// an HTTP error response.
func (a *Acceptor) Accept(w http.ResponseWriter, r *http.Request) (*Channel, error) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}
	return newChannel(conn, a.config), nil
}
