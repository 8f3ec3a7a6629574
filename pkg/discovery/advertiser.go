package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Service defaults to ServiceType.
	Service string

	// Domain defaults to Domain.
	Domain string

	// Interface restricts advertising to one network interface. Empty means all.
	Interface string

	// TTL of the published records. Defaults to DefaultTTL.
	TTL time.Duration
}

// Advertiser publishes a single controller instance using zeroconf.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates a new mDNS advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.Service == "" {
		config.Service = ServiceType
	}
	if config.Domain == "" {
		config.Domain = Domain
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &Advertiser{config: config}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *Advertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts advertising the controller, replacing any previous
// advertisement.
func (a *Advertiser) Advertise(info *ControllerInfo) error {
	if err := ValidateInstanceName(info.Instance); err != nil {
		return err
	}
	if info.Model == "" {
		return fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyModel)
	}

	port := info.Port
	if port == 0 {
		port = DefaultPort
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		info.Instance,
		a.config.Service,
		a.config.Domain,
		port,
		TXTRecordsToStrings(EncodeControllerTXT(info)),
		a.getInterfaces(),
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	)
	if err != nil {
		return fmt.Errorf("failed to register controller service: %w", err)
	}

	a.server = server
	return nil
}

// Update replaces the TXT records of the running advertisement, for example
// after the controller switched network mode.
func (a *Advertiser) Update(info *ControllerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotFound
	}
	a.server.SetText(TXTRecordsToStrings(EncodeControllerTXT(info)))
	return nil
}

// Stop withdraws the advertisement. Stopping twice is a no-op.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
