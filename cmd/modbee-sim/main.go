// Command modbee-sim simulates a Modbee I/O controller on the local machine.
//
// It serves the same HTTP surface as the controller firmware: the /ws status
// channel, which pushes a snapshot on connect and once per interval and
// accepts calibration commands, and the /wifi credential endpoint. The
// simulator also announces itself over mDNS so modbee-dash can discover it.
//
// Usage:
//
//	modbee-sim [flags]
//
// Flags:
//
//	-listen string      HTTP listen address (default ":8080")
//	-name string        mDNS instance name (default "Modbee Simulator")
//	-interval duration  Status broadcast interval (default 1s)
//	-interface string   Network interface for mDNS (default: all)
//	-no-mdns            Do not advertise over mDNS
//	-state-file string  Persist WiFi credentials and calibration to this file
//	-reset              Discard the persisted state before starting
//	-log-level string   Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Run the simulator and connect the dashboard to it
//	modbee-sim -listen :8080
//	modbee-dash -host localhost:8080
//
//	# Keep calibration across restarts
//	modbee-sim -state-file ./sim-state.json
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modbee/modbee-dash/internal/simulator"
	"github.com/modbee/modbee-dash/pkg/discovery"
	"github.com/modbee/modbee-dash/pkg/persistence"
)

// Config holds the simulator configuration.
type Config struct {
	Listen    string
	Name      string
	Interval  time.Duration
	Interface string
	NoMDNS    bool
	StateFile string
	Reset     bool
	LogLevel  string
}

var config Config

func init() {
	flag.StringVar(&config.Listen, "listen", ":8080", "HTTP listen address")
	flag.StringVar(&config.Name, "name", "Modbee Simulator", "mDNS instance name")
	flag.DurationVar(&config.Interval, "interval", simulator.DefaultInterval, "Status broadcast interval")
	flag.StringVar(&config.Interface, "interface", "", "Network interface for mDNS (default: all)")
	flag.BoolVar(&config.NoMDNS, "no-mdns", false, "Do not advertise over mDNS")
	flag.StringVar(&config.StateFile, "state-file", "", "Persist WiFi credentials and calibration to this file")
	flag.BoolVar(&config.Reset, "reset", false, "Discard the persisted state before starting")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func main() {
	flag.Parse()

	setupLogging(config.LogLevel)

	log.Println("Modbee Controller Simulator")
	log.Println("===========================")

	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	device := simulator.NewDevice()

	var store *persistence.ControllerStateStore
	if config.StateFile != "" {
		store = persistence.NewControllerStateStore(config.StateFile)
		if config.Reset {
			if err := store.Clear(); err != nil {
				log.Fatalf("Failed to clear state: %v", err)
			}
			log.Printf("Cleared state in %s", config.StateFile)
		}
		state, err := store.Load()
		if err != nil {
			log.Fatalf("Failed to load state: %v", err)
		}
		if state != nil {
			device.Restore(state)
			log.Printf("Restored state saved at %s", state.SavedAt.Format(time.RFC3339))
		}
	}

	server := simulator.NewServer(device, simulator.Config{
		Interval: config.Interval,
		Store:    store,
		Logger:   logger,
	})

	listener, err := net.Listen("tcp", config.Listen)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", config.Listen, err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	log.Printf("Serving /ws and /wifi on %s", listener.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{Handler: server, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()
	go server.Run(ctx)

	var advertiser *discovery.Advertiser
	if !config.NoMDNS {
		advertiser = discovery.NewAdvertiser(discovery.AdvertiserConfig{Interface: config.Interface})
		s := device.Snapshot()
		err := advertiser.Advertise(&discovery.ControllerInfo{
			Instance: config.Name,
			Port:     port,
			Model:    "modbee-sim",
			Firmware: "sim",
			Mode:     s.Network.Mode,
			SSID:     s.Network.SSID,
		})
		if err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
			advertiser = nil
		} else {
			log.Printf("Advertising %q as %s", config.Name, discovery.ServiceType)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	if advertiser != nil {
		advertiser.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
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
