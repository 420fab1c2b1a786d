// Package netdev finds device hardware address, default tracker user id.
package netdev

import (
	"net"

	"github.com/juju/errors"
)

// HardwareAddr of interface ifname, or of first up non-loopback interface when ifname is empty.
func HardwareAddr(ifname string) (net.HardwareAddr, error) {
	if ifname != "" {
		iface, err := net.InterfaceByName(ifname)
		if err != nil {
			return nil, errors.Annotatef(err, "interface=%s", ifname)
		}
		if len(iface.HardwareAddr) == 0 {
			return nil, errors.NotFoundf("hardware address interface=%s", ifname)
		}
		return iface.HardwareAddr, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Annotate(err, "list interfaces")
	}
	return pick(ifaces)
}

func pick(ifaces []net.Interface) (net.HardwareAddr, error) {
	var fallback net.HardwareAddr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		if iface.Flags&net.FlagUp != 0 {
			return iface.HardwareAddr, nil
		}
		if fallback == nil {
			fallback = iface.HardwareAddr
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, errors.NotFoundf("network interface with hardware address")
}

// FormatMac gives "90:a2:da:00:7f:44".
func FormatMac(mac net.HardwareAddr) string { return mac.String() }

// ParseMac accepts configured override in any net.ParseMAC form.
func ParseMac(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	return mac, errors.Annotatef(err, "mac=%s", s)
}
