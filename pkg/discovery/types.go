package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

const (
	// ServiceType is the DNS-SD service type advertised by controllers.
	ServiceType = "_modbee._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the HTTP port of a controller.
	DefaultPort = 80

	// BrowseTimeout is the default duration of FindAll.
	BrowseTimeout = 3 * time.Second

	// DefaultTTL is the record TTL used when advertising.
	DefaultTTL = 120 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyModel    = "model"
	TXTKeyFirmware = "fw"
	TXTKeyMode     = "mode"
	TXTKeySSID     = "ssid"
)

// Network modes reported in the mode TXT record.
const (
	ModeAP  = "AP"
	ModeSTA = "STA"
)

var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("controller not found")
)

// ControllerInfo is what a controller advertises about itself.
type ControllerInfo struct {
	Instance string
	Port     int
	Model    string
	Firmware string
	Mode     string
	SSID     string
}

// Controller is a controller found on the network.
type Controller struct {
	Instance  string
	HostName  string
	Port      int
	Addresses []string

	Model    string
	Firmware string
	Mode     string
	SSID     string
}

// Host returns the host[:port] the dashboard should connect to. IPv4
// addresses are preferred over IPv6, the advertised host name is the last
// resort. The port is omitted when it is the HTTP default.
func (c *Controller) Host() string {
	host := ""
	for _, addr := range c.Addresses {
		ip := net.ParseIP(addr)
		if ip != nil && ip.To4() != nil {
			host = addr
			break
		}
	}
	if host == "" && len(c.Addresses) > 0 {
		host = c.Addresses[0]
	}
	if host == "" {
		host = trimDot(c.HostName)
	}
	if host == "" {
		return ""
	}

	if c.Port == 0 || c.Port == DefaultPort {
		if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

func trimDot(name string) string {
	for len(name) > 0 && name[len(name)-1] == '.' {
		name = name[:len(name)-1]
	}
	return name
}
