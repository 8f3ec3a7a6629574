package simulator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/modbee/modbee-dash/pkg/persistence"
	"github.com/modbee/modbee-dash/pkg/transport"
)

// DefaultInterval is the status broadcast period of the controller.
const DefaultInterval = 1000 * time.Millisecond

// Responses of the /wifi endpoint.
const (
	wifiPath           = "/wifi"
	missingCredentials = "Missing SSID or password"
)

// Config configures a Server.
type Config struct {
	// Interval between status broadcasts. Defaults to DefaultInterval.
	Interval time.Duration

	// Channel configures accepted WebSocket channels.
	Channel transport.ChannelConfig

	// Store persists calibration and credentials. Optional.
	Store *persistence.ControllerStateStore

	// Logger is optional.
	Logger *slog.Logger
}

// Server serves the controller's HTTP surface for one Device.
type Server struct {
	device   *Device
	config   Config
	acceptor *transport.Acceptor
	mux      *http.ServeMux

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewServer creates a Server for device.
func NewServer(device *Device, config Config) *Server {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}

	s := &Server{
		device:   device,
		config:   config,
		acceptor: transport.NewAcceptor(config.Channel),
		mux:      http.NewServeMux(),
		clients:  make(map[*client]struct{}),
	}
	s.mux.HandleFunc(transport.DefaultPath, s.handleWebSocket)
	s.mux.HandleFunc(wifiPath, s.handleWiFi)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run advances the device every interval and broadcasts the new state to all
// connected clients until ctx is done. Open channels are closed on return.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.device.Step()
			s.broadcast()
		}
	}
}

// Clients returns the number of connected channels.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ch, err := s.acceptor.Accept(w, r)
	if err != nil {
		s.debugLog("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{server: s, ch: ch, remote: r.RemoteAddr}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	if err := ch.Start(c); err != nil {
		s.remove(c)
		return
	}
	s.debugLog("client connected", "remote", c.remote)

	// A new client gets the current state right away.
	s.send(c)
}

func (s *Server) handleWiFi(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": missingCredentials})
		return
	}
	_, hasSSID := r.PostForm["ssid"]
	_, hasPassword := r.PostForm["password"]
	if !hasSSID || !hasPassword {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": missingCredentials})
		return
	}

	ssid := r.PostForm.Get("ssid")
	s.device.JoinNetwork(ssid, r.PostForm.Get("password"))
	s.persist()
	s.debugLog("joining network", "ssid", ssid)
	writeJSON(w, http.StatusOK, map[string]string{"status": "Connecting to " + ssid})
}

func (s *Server) broadcast() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.send(c)
	}
}

func (s *Server) send(c *client) {
	data, err := json.Marshal(s.device.Snapshot())
	if err != nil {
		s.debugLog("encode snapshot failed", "error", err)
		return
	}
	if err := c.ch.Send(data); err != nil {
		s.debugLog("send failed", "remote", c.remote, "error", err)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		_ = c.ch.Close()
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

func (s *Server) persist() {
	if s.config.Store == nil {
		return
	}
	if err := s.config.Store.Save(s.device.Persistent()); err != nil {
		s.debugLog("saving state failed", "path", s.config.Store.Path(), "error", err)
	}
}

func (s *Server) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

// client is one accepted channel.
type client struct {
	server *Server
	ch     *transport.Channel
	remote string
}

func (c *client) OnFrame(data []byte) {
	if err := c.server.device.ApplyCalibration(data); err != nil {
		c.server.debugLog("ignoring frame", "remote", c.remote, "error", err)
		return
	}
	c.server.persist()
	c.server.debugLog("calibration updated", "remote", c.remote)
}

func (c *client) OnClose(err error) {
	c.server.debugLog("client disconnected", "remote", c.remote, "error", err)
	c.server.remove(c)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
