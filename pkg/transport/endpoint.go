package transport

import (
	"net/url"
	"strings"
)

// DefaultPath is the controller's live-channel path.
const DefaultPath = "/ws"

// EndpointForHost derives the live-channel URL from the controller host.
// host may carry a port ("192.168.4.1:8080"); a scheme prefix and trailing
// slashes are ignored.
func EndpointForHost(host string) string {
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "ws://")
	host = strings.TrimRight(host, "/")

	u := url.URL{Scheme: "ws", Host: host, Path: DefaultPath}
	return u.String()
}

// BaseURLForHost returns the controller's HTTP base URL, used for the
// credential endpoint.
func BaseURLForHost(host string) string {
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "ws://")
	host = strings.TrimRight(host, "/")

	u := url.URL{Scheme: "http", Host: host}
	return u.String()
}
