/*
Framolux Core
Copyright (C) 2025 The Framolux Authors

This file is part of Framolux Core.

Framolux Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Framolux Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Framolux Core.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package scan finds panel controllers on an IPv4 /24 by probing every host
// concurrently, and connects to a single device by address.
package scan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultSubnet is probed when no subnet is configured or detected.
	DefaultSubnet = "192.168.1"
	// HostsPerSubnet is the number of usable addresses in a /24.
	HostsPerSubnet = 254
)

var (
	ErrInvalidSubnet        = errors.New("invalid subnet")
	ErrScanInProgress       = errors.New("scan already in progress")
	ErrIncompatibleFirmware = errors.New("device does not run compatible firmware")
)

// Prober fetches a host's identity payload. devices.Client implements it.
type Prober interface {
	Info(ctx context.Context, host string) (devices.Info, error)
	FirmwareInfo(ctx context.Context, host string) (devices.Info, error)
}

type Scanner struct {
	clock          clockwork.Clock
	prober         Prober
	registry       *devices.Registry
	probeTimeout   time.Duration
	connectTimeout time.Duration
	concurrency    int
	scanning       atomic.Bool
}

type Option func(*Scanner)

// WithProbeTimeout overrides the per-host discovery timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.probeTimeout = d
		}
	}
}

// WithConcurrency caps how many probes run at once. The default probes the
// whole subnet in parallel.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Scanner) {
		s.clock = c
	}
}

func New(prober Prober, registry *devices.Registry, opts ...Option) *Scanner {
	s := &Scanner{
		clock:          clockwork.NewRealClock(),
		prober:         prober,
		registry:       registry,
		probeTimeout:   devices.ProbeTimeout,
		connectTimeout: devices.ConnectTimeout,
		concurrency:    HostsPerSubnet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scanning reports whether a scan is running.
func (s *Scanner) Scanning() bool {
	return s.scanning.Load()
}

// Hosts expands a subnet into its 254 host addresses. It accepts a three
// octet prefix ("192.168.1"), a wildcard ("192.168.1.x") or CIDR notation
// ("192.168.1.0/24"; any prefix length is treated as its /24).
func Hosts(subnet string) ([]string, error) {
	subnet = strings.TrimSpace(subnet)
	if subnet == "" {
		subnet = DefaultSubnet
	}

	var base string
	switch {
	case strings.Contains(subnet, "/"):
		prefix, err := netip.ParsePrefix(subnet)
		if err != nil || !prefix.Addr().Is4() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSubnet, subnet)
		}
		b := prefix.Addr().As4()
		base = fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2])
	case strings.Count(subnet, ".") == 3 && isIPv4(subnet):
		b := netip.MustParseAddr(subnet).As4()
		base = fmt.Sprintf("%d.%d.%d", b[0], b[1], b[2])
	case strings.HasSuffix(subnet, ".x"), strings.HasSuffix(subnet, ".*"):
		base = subnet[:len(subnet)-2]
	default:
		base = strings.TrimSuffix(subnet, ".")
	}

	if _, err := netip.ParseAddr(base + ".1"); err != nil || strings.Count(base, ".") != 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSubnet, subnet)
	}

	hosts := make([]string, 0, HostsPerSubnet)
	for i := 1; i <= HostsPerSubnet; i++ {
		hosts = append(hosts, fmt.Sprintf("%s.%d", base, i))
	}
	return hosts, nil
}

func isIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// LocalSubnets returns the /24 prefixes of this machine's private IPv4
// interfaces.
func LocalSubnets() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Debug().Err(err).Msg("failed to list interface addresses")
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil || ip4.IsLoopback() || !ip4.IsPrivate() {
			continue
		}
		sub := fmt.Sprintf("%d.%d.%d", ip4[0], ip4[1], ip4[2])
		if _, dup := seen[sub]; dup {
			continue
		}
		seen[sub] = struct{}{}
		out = append(out, sub)
	}
	sort.Strings(out)
	return out
}

// Scan probes every host in subnet and replaces the registry with the
// compatible devices found. It returns only when every probe has answered,
// failed or timed out. Individual probe failures are never reported.
func (s *Scanner) Scan(ctx context.Context, subnet string) ([]devices.Device, error) {
	hosts, err := Hosts(subnet)
	if err != nil {
		return nil, err
	}
	return s.ScanHosts(ctx, hosts)
}

// ScanHosts is Scan over an explicit host list.
func (s *Scanner) ScanHosts(ctx context.Context, hosts []string) ([]devices.Device, error) {
	if !s.scanning.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.scanning.Store(false)

	start := s.clock.Now()
	log.Info().Int("hosts", len(hosts)).Msg("starting device scan")

	var (
		mu    syncutil.Mutex
		found []devices.Device
		g     errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, host := range hosts {
		host := host
		g.Go(func() error {
			d, ok := s.probe(ctx, host)
			if !ok {
				return nil
			}
			log.Info().Str("ip", host).Str("device", d.DeviceID).Msg("found device")
			mu.Lock()
			found = append(found, d)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(found, func(i, j int) bool {
		a, _ := netip.ParseAddr(found[i].IP)
		b, _ := netip.ParseAddr(found[j].IP)
		return a.Less(b)
	})
	if found == nil {
		found = []devices.Device{}
	}

	if s.registry != nil {
		s.registry.Replace(found)
	}

	log.Info().
		Int("found", len(found)).
		Dur("elapsed", s.clock.Since(start)).
		Msg("device scan complete")
	return found, nil
}

func (s *Scanner) probe(ctx context.Context, host string) (devices.Device, bool) {
	pctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	info, err := s.prober.Info(pctx, host)
	if err != nil {
		return devices.Device{}, false
	}
	if !info.Compatible() {
		log.Debug().Str("ip", host).Str("firmware", info.Firmware).Msg("ignoring incompatible host")
		return devices.Device{}, false
	}
	return info.Device(host, s.clock.Now()), true
}

// Connect checks that host runs compatible firmware, adds it to the registry
// and selects it. Unlike discovery, only the firmware name is accepted here.
func (s *Scanner) Connect(ctx context.Context, host string) (devices.Device, error) {
	cctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	info, err := s.prober.FirmwareInfo(cctx, host)
	if err != nil {
		return devices.Device{}, fmt.Errorf("failed to check firmware at %s: %w", host, err)
	}
	if info.Firmware != devices.FirmwareName {
		log.Warn().Str("ip", host).Str("firmware", info.Firmware).Msg("device does not have compatible firmware")
		return devices.Device{}, fmt.Errorf("%w: %s reports %q", ErrIncompatibleFirmware, host, info.Firmware)
	}

	d := info.Device(host, s.clock.Now())
	if s.registry != nil {
		s.registry.Upsert(d)
		if err := s.registry.Select(d.DeviceID); err != nil {
			return devices.Device{}, fmt.Errorf("failed to select device: %w", err)
		}
		if stored, ok := s.registry.Get(d.DeviceID); ok {
			d = stored
		}
	}
	log.Info().Str("ip", host).Str("device", d.DeviceID).Msg("connected to device")
	return d, nil
}
