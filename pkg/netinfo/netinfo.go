// Package netinfo collects host network diagnostics for the
// /network-info endpoint.
package netinfo

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const arpTable = "/proc/net/arp"

type Interface struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Family   string `json:"family"`
	MAC      string `json:"mac"`
	Internal bool   `json:"internal"`
}

type Neighbor struct {
	IP  string `json:"ip"`
	MAC string `json:"mac"`
}

type Host struct {
	Hostname   string      `json:"hostname"`
	IP         string      `json:"ip"`
	Platform   string      `json:"platform"`
	Uptime     float64     `json:"uptime"`
	Interfaces []Interface `json:"interfaces"`
}

// Collector reads host information. Fields are replaceable for tests.
type Collector struct {
	Hostname   func() (string, error)
	Interfaces func() ([]net.Interface, error)
	Addrs      func(net.Interface) ([]net.Addr, error)
	ReadFile   func(string) ([]byte, error)
}

func NewCollector() *Collector {
	return &Collector{
		Hostname:   os.Hostname,
		Interfaces: net.Interfaces,
		Addrs:      func(i net.Interface) ([]net.Addr, error) { return i.Addrs() },
		ReadFile:   os.ReadFile,
	}
}

// Host returns the hostname and the non-loopback IPv4 interfaces.
// IP is the first such address, or "Unknown".
func (c *Collector) Host() (Host, error) {
	name, err := c.Hostname()
	if err != nil {
		return Host{}, fmt.Errorf("hostname: %w", err)
	}
	ifaces, err := c.Interfaces()
	if err != nil {
		return Host{}, fmt.Errorf("list interfaces: %w", err)
	}
	h := Host{
		Hostname:   name,
		IP:         "Unknown",
		Platform:   runtime.GOOS,
		Uptime:     c.uptime(),
		Interfaces: []Interface{},
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := c.Addrs(iface)
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ip := addrIP(a)
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			if h.IP == "Unknown" {
				h.IP = ip.String()
			}
			h.Interfaces = append(h.Interfaces, Interface{
				Name:    iface.Name,
				Address: ip.String(),
				Family:  "IPv4",
				MAC:     iface.HardwareAddr.String(),
			})
		}
	}
	return h, nil
}

// Neighbors returns ARP entries. Failure to read the table is not an
// error: an empty list is returned.
func (c *Collector) Neighbors() []Neighbor {
	b, err := c.ReadFile(arpTable)
	if err != nil {
		return []Neighbor{}
	}
	return ParseARP(strings.NewReader(string(b)))
}

func (c *Collector) uptime() float64 {
	b, err := c.ReadFile("/proc/uptime")
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(b))
	if len(fields) == 0 {
		return 0
	}
	v, _ := strconv.ParseFloat(fields[0], 64)
	return v
}

// ParseARP parses the /proc/net/arp format. The header line is skipped,
// as are 0.0.0.0, all-zero and incomplete entries.
func ParseARP(r io.Reader) []Neighbor {
	out := []Neighbor{}
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) < 4 || parts[0] == "0.0.0.0" {
			continue
		}
		mac := parts[3]
		if mac == "00:00:00:00:00:00" || strings.Contains(mac, "incomplete") {
			continue
		}
		out = append(out, Neighbor{IP: parts[0], MAC: mac})
	}
	return out
}

func addrIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}
