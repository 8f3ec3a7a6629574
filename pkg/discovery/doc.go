// Package discovery finds Modbee controllers on the local network using
// mDNS/DNS-SD.
//
// A controller advertises the service type _modbee._tcp in the local. domain.
// The instance name is the controller's display name, the port is the HTTP port
// that serves both /ws and /wifi. TXT records describe the controller:
//
//   - model: hardware model, always present
//   - fw: firmware version
//   - mode: "AP" when the controller runs its own access point, "STA" when it
//     joined an existing network
//   - ssid: network name for the current mode
//
// A controller reachable on several interfaces is announced once per
// interface. Browse aggregates those announcements by instance name so every
// controller is reported once with all of its addresses.
package discovery
