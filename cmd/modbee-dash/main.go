// Command modbee-dash is the operator dashboard for a Modbee I/O controller.
//
// The dashboard keeps one live WebSocket channel to the controller, mirrors
// every status snapshot it receives onto a board of named fields and lets the
// operator edit and send calibration values or new Wi-Fi credentials.
// A lost channel is re-dialed every 5 seconds, forever.
//
// Usage:
//
//	modbee-dash [flags]
//
// Flags:
//
//	-config string           Configuration file path (YAML)
//	-host string             Controller host (default "192.168.4.1")
//	-retry-delay duration    Reconnect interval (default 5s)
//	-dial-timeout duration   Connection attempt timeout (default 10s)
//	-write-timeout duration  Frame write timeout (default 5s)
//	-request-timeout duration
//	                         Wi-Fi request timeout (default 15s)
//	-keepalive duration      Ping interval, 0 disables (default 10s)
//	-event-log string        Write channel events to this file (CBOR)
//	-log-level string        Log level: debug, info, warn, error (default "info")
//	-interface string        Network interface for mDNS discovery
//	-interactive             Enable interactive command mode (default true)
//
// Examples:
//
//	# Connect to a controller in access point mode
//	modbee-dash
//
//	# Connect to a controller on the home network and record all traffic
//	modbee-dash -host 192.168.1.50 -event-log dash.dlog
//
//	# Headless monitoring with debug output
//	modbee-dash -interactive=false -log-level debug
//
// Interactive Commands:
//
//	show [io|calibration|status] - Show fields
//	set <field> <value>          - Edit a calibration field
//	save                         - Send calibration to the device
//	reset                        - Discard unsaved edits
//	wifi <ssid> [password]       - Send Wi-Fi credentials
//	status                       - Show connection status
//	discover                     - Find controllers via mDNS
//	quit                         - Exit the dashboard
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modbee/modbee-dash/cmd/modbee-dash/interactive"
	"github.com/modbee/modbee-dash/pkg/board"
	"github.com/modbee/modbee-dash/pkg/command"
	"github.com/modbee/modbee-dash/pkg/config"
	"github.com/modbee/modbee-dash/pkg/connection"
	"github.com/modbee/modbee-dash/pkg/discovery"
	eventlog "github.com/modbee/modbee-dash/pkg/log"
	"github.com/modbee/modbee-dash/pkg/mirror"
	"github.com/modbee/modbee-dash/pkg/render"
	"github.com/modbee/modbee-dash/pkg/snapshot"
	"github.com/modbee/modbee-dash/pkg/transport"
	"github.com/modbee/modbee-dash/pkg/wifi"
)

var interactiveMode = flag.Bool("interactive", true, "Enable interactive command mode")

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := flags.Resolve()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(cfg.LogLevel)

	log.Println("Modbee Dashboard")
	log.Println("================")
	log.Printf("Controller: %s", cfg.Host)

	// Board and mirror: device -> channel -> mirror -> board
	b := board.New()
	m := mirror.New(b)

	endpoint := transport.EndpointForHost(cfg.Host)
	dialer := transport.NewDialer(transport.DialerConfig{
		DialTimeout: cfg.DialTimeout,
		Channel: transport.ChannelConfig{
			WriteTimeout: cfg.WriteTimeout,
			KeepAlive: transport.KeepAliveConfig{
				Disabled:     cfg.KeepAlive == 0,
				PingInterval: cfg.KeepAlive,
			},
		},
	})

	mgr := connection.NewManager(connection.WebSocketDialer(dialer), connection.Config{
		Endpoint:    endpoint,
		RetryDelay:  cfg.RetryDelay,
		DialTimeout: cfg.DialTimeout,
	})
	mgr.OnSnapshot(func(s snapshot.Snapshot) {
		m.Update(s)
	})
	mgr.OnStateChange(func(_, newState connection.State) {
		b.Set(render.TargetConnectionStatus, newState.String())
	})
	mgr.OnReconnecting(func(attempt int, delay time.Duration) {
		log.Printf("Connection lost, retry %d in %s", attempt, delay)
	})
	b.Set(render.TargetConnectionStatus, mgr.State().String())

	// Operator side: board -> dispatcher -> channel
	dispatcher := command.NewDispatcher(b, mgr)
	credentials := wifi.NewSubmitter(transport.BaseURLForHost(cfg.Host), wifi.WithTimeout(cfg.RequestTimeout))
	browser := discovery.NewBrowser(discovery.BrowserConfig{
		Service:   cfg.Discovery.Service,
		Domain:    cfg.Discovery.Domain,
		Interface: cfg.Discovery.Interface,
		Timeout:   cfg.Discovery.Timeout,
	})
	defer browser.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var console *interactive.Console
	if *interactiveMode {
		console, err = interactive.New(interactive.Deps{
			Board:      b,
			Connection: mgr,
			Calibrator: dispatcher,
			WiFi:       credentials,
			Finder:     browser,
			Mirror:     m,
		})
		if err != nil {
			log.Fatalf("Failed to create interactive console: %v", err)
		}
		// Redirect log output through readline to avoid interfering with input
		log.SetOutput(console.Stdout())
	}

	eventLogger, closeEvents, err := setupEventLogger(cfg, log.Writer())
	if err != nil {
		log.Fatalf("Failed to open event log: %v", err)
	}
	defer closeEvents()
	mgr.SetEventLogger(eventLogger)

	log.Printf("Connecting to %s", endpoint)
	if err := mgr.Connect(ctx); err != nil {
		log.Printf("Initial connection failed: %v (retrying every %s)", err, mgr.RetryDelay())
	}

	if console != nil {
		go console.Run(ctx, cancel)
	}

	// Wait for shutdown signal or context cancellation
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
		// Context was cancelled (e.g., by interactive quit command)
	}

	log.Println("Shutting down...")
	cancel()
	mgr.Stop()

	if edited := b.Edited(); len(edited) > 0 {
		log.Printf("Discarded %d unsaved edit(s)", len(edited))
	}
	log.Println("Goodbye!")
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// setupEventLogger builds the channel event sink: structured lines on out
// and, when configured, the CBOR event log file.
func setupEventLogger(cfg config.Config, out io.Writer) (eventlog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	text := eventlog.NewSlogAdapter(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))

	if cfg.EventLog == "" {
		return text, func() {}, nil
	}

	file, err := eventlog.NewFileLogger(cfg.EventLog)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Recording events to %s", cfg.EventLog)

	return eventlog.NewMultiLogger(text, file), func() {
		if err := file.Close(); err != nil {
			log.Printf("Error closing event log: %v", err)
		}
		written, dropped := file.Counts()
		log.Printf("Recorded %d event(s) to %s (%d dropped)", written, file.Path(), dropped)
	}, nil
}
