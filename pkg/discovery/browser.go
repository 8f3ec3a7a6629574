package discovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// Service is the DNS-SD service type. Defaults to ServiceType.
	Service string

	// Domain defaults to Domain.
	Domain string

	// Interface restricts browsing to one network interface. Empty means all.
	Interface string

	// Timeout bounds FindAll. Defaults to BrowseTimeout.
	Timeout time.Duration
}

// browseFunc runs a DNS-SD browse until ctx is done, delivering resolved
// entries and removals on the given channels.
type browseFunc func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry) error

// Browser searches for controllers using zeroconf.
type Browser struct {
	config BrowserConfig
	browse browseFunc

	mu      sync.Mutex
	cancels []context.CancelFunc
}

// NewBrowser creates a new mDNS browser.
func NewBrowser(config BrowserConfig) *Browser {
	if config.Service == "" {
		config.Service = ServiceType
	}
	if config.Domain == "" {
		config.Domain = Domain
	}
	if config.Timeout <= 0 {
		config.Timeout = BrowseTimeout
	}

	b := &Browser{config: config}
	opts := b.browserOptions()
	b.browse = func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry) error {
		return zeroconf.Browse(ctx, service, domain, entries, removed, opts...)
	}
	return b
}

// Browse searches for controllers until ctx is done or Stop is called.
// Controllers are aggregated by instance name: addresses announced on
// different interfaces are combined into a single entry, and an instance
// is forgotten once all of its addresses were removed. Each instance is
// emitted once, when first seen.
func (b *Browser) Browse(ctx context.Context) (<-chan *Controller, error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	out := make(chan *Controller)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		controllers := make(map[string]*Controller)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				c := entryToController(entry)
				if c == nil {
					continue
				}

				if existing, found := controllers[c.Instance]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, c.Addresses)
					continue
				}
				controllers[c.Instance] = c
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := controllers[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(controllers, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = b.browse(ctx, b.config.Service, b.config.Domain, entries, removed)
	}()

	return out, nil
}

// FindAll browses for the configured timeout and returns every controller
// seen. Running out of time is not an error; an empty result is.
func (b *Browser) FindAll(ctx context.Context) ([]*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	var found []*Controller
	for c := range results {
		found = append(found, c)
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found, nil
}

// Stop cancels all active browse operations.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// browserOptions returns zeroconf client options based on config.
func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToController converts a zeroconf entry to a Controller. Entries
// without a valid model record are not Modbee controllers and yield nil.
func entryToController(entry *zeroconf.ServiceEntry) *Controller {
	info, err := DecodeControllerTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &Controller{
		Instance:  entry.Instance,
		HostName:  entry.HostName,
		Port:      entry.Port,
		Addresses: addrs,
		Model:     info.Model,
		Firmware:  info.Firmware,
		Mode:      info.Mode,
		SSID:      info.SSID,
	}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes the addresses of a zeroconf entry from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
