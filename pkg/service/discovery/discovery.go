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

// Package discovery advertises the bridge API over mDNS so editors on the
// LAN can find it without typing an address. LED devices themselves are
// found by HTTP probing in the scan package, not here.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
)

const ServiceType = "_framolux._tcp"

const (
	retryInterval    = 30 * time.Second
	maxRetryDuration = 5 * time.Minute
)

// Interfaces with these prefixes belong to containers, bridges or VPNs and
// never reach the editor's network.
var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg", "tailscale", "zt",
}

func preferredInterfaces() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}
	return filterInterfaces(all), nil
}

// filterInterfaces keeps interfaces that are up, multicast capable and
// neither loopback nor virtual.
func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var out []net.Interface
	for _, iface := range ifaces {
		switch {
		case iface.Flags&net.FlagUp == 0,
			iface.Flags&net.FlagLoopback != 0,
			iface.Flags&net.FlagMulticast == 0,
			isVirtualInterface(iface.Name):
			continue
		}
		out = append(out, iface)
	}
	return out
}

func isVirtualInterface(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Service owns the mDNS registration for one bridge instance.
type Service struct {
	server       *zeroconf.Server
	cfg          *config.Instance
	cancelFunc   context.CancelFunc
	instanceName string
	stopped      bool
	mu           syncutil.Mutex
}

func New(cfg *config.Instance) *Service {
	return &Service{cfg: cfg}
}

// Start registers the advert. When no interface is ready yet (common on
// boot) registration is retried in the background for a few minutes
// rather than failing the service.
func (s *Service) Start() error {
	if !s.cfg.DiscoveryEnabled() {
		log.Info().Msg("mDNS advertising disabled by configuration")
		return nil
	}

	s.mu.Lock()
	s.instanceName = resolveInstanceName(s.cfg.DiscoveryInstanceName(), s.cfg.InstanceID(), os.Hostname)
	s.mu.Unlock()

	if s.tryRegister() {
		return nil
	}

	log.Info().
		Dur("retryInterval", retryInterval).
		Dur("maxDuration", maxRetryDuration).
		Msg("mDNS registration failed, retrying in background")

	ctx, cancel := context.WithTimeout(context.Background(), maxRetryDuration)
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	go s.retryLoop(ctx)
	return nil
}

// TXTRecords describes the bridge to browsers: its instance id, version,
// API path and configured matrix size.
func TXTRecords(cfg *config.Instance) []string {
	return []string{
		"id=" + cfg.InstanceID(),
		"version=" + config.AppVersion,
		"path=/api",
		"matrix=" + strconv.Itoa(cfg.MatrixSize()),
	}
}

func (s *Service) tryRegister() bool {
	ifaces, err := preferredInterfaces()
	if err != nil {
		log.Debug().Err(err).Msg("failed to get network interfaces")
		return false
	}
	if len(ifaces) == 0 {
		log.Debug().Msg("no suitable network interfaces for mDNS")
		return false
	}

	names := make([]string, len(ifaces))
	for i, iface := range ifaces {
		names[i] = iface.Name
	}

	port := s.cfg.APIPort()
	server, err := zeroconf.Register(
		s.InstanceName(),
		ServiceType,
		"local.",
		port,
		TXTRecords(s.cfg),
		ifaces,
	)
	if err != nil {
		log.Debug().Err(err).Msg("mDNS registration attempt failed")
		return false
	}

	s.mu.Lock()
	// Stop may have run while Register was blocking.
	if s.stopped {
		s.mu.Unlock()
		server.Shutdown()
		return false
	}
	s.server = server
	s.mu.Unlock()

	log.Info().
		Str("instance", s.InstanceName()).
		Int("port", port).
		Strs("interfaces", names).
		Msg("advertising bridge over mDNS")
	return true
}

func (s *Service) retryLoop(ctx context.Context) {
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.tryRegister() {
				log.Info().Msg("mDNS registration succeeded after retry")
				return
			}
		case <-ctx.Done():
			log.Warn().Msg("mDNS registration gave up, bridge will not be advertised")
			return
		}
	}
}

// Stop sends goodbye packets. Safe to call more than once, or without Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	if s.server != nil {
		log.Debug().Msg("stopping mDNS advertising")
		s.server.Shutdown()
		s.server = nil
	}
}

func (s *Service) InstanceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instanceName
}

// resolveInstanceName prefers the configured name, then the hostname, then
// a name derived from the instance id.
func resolveInstanceName(configured, instanceID string, hostname func() (string, error)) string {
	if configured != "" {
		return configured
	}
	if h, err := hostname(); err == nil && h != "" {
		return h
	} else if err != nil {
		log.Warn().Err(err).Msg("failed to get hostname, using fallback")
	}
	if len(instanceID) >= 8 {
		return "framolux-" + instanceID[:8]
	}
	return "framolux"
}

// Bridge is a bridge instance found on the network.
type Bridge struct {
	Instance string   `json:"instance"`
	Host     string   `json:"host"`
	ID       string   `json:"id,omitempty"`
	Version  string   `json:"version,omitempty"`
	Addrs    []string `json:"addrs"`
	Port     int      `json:"port"`
}

// Browse lists bridges advertising on the LAN until ctx is done.
func Browse(ctx context.Context) ([]Bridge, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	found := make(chan []Bridge, 1)
	go func() {
		var bridges []Bridge
		defer func() { found <- bridges }()
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				bridges = append(bridges, bridgeFromEntry(e))
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("browse %s: %w", ServiceType, err)
	}
	<-ctx.Done()
	return <-found, nil
}

func bridgeFromEntry(e *zeroconf.ServiceEntry) Bridge {
	b := Bridge{
		Instance: e.Instance,
		Host:     e.HostName,
		Port:     e.Port,
	}
	for _, ip := range e.AddrIPv4 {
		b.Addrs = append(b.Addrs, ip.String())
	}
	for _, txt := range e.Text {
		key, val, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "id":
			b.ID = val
		case "version":
			b.Version = val
		}
	}
	return b
}
