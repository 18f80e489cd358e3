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

package discovery

import (
	"errors"
	"net"
	"testing"

	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/testing/helpers"
	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "_framolux._tcp", ServiceType)
}

func TestStopIdempotent(t *testing.T) {
	t.Parallel()

	svc := New(nil)
	svc.Stop()
	svc.Stop()
	assert.Nil(t, svc.server)
}

func TestStartDisabled(t *testing.T) {
	t.Parallel()

	cfg := helpers.NewTestConfig(t, "[service.discovery]\nenabled = false\n", "")
	svc := New(cfg)
	require.NoError(t, svc.Start())
	assert.Nil(t, svc.server)
	assert.Empty(t, svc.InstanceName())
	svc.Stop()
}

func TestTXTRecords(t *testing.T) {
	t.Parallel()

	cfg := helpers.NewTestConfig(t, "[matrix]\nsize = 8\n", "")
	txt := TXTRecords(cfg)
	assert.Contains(t, txt, "id="+cfg.InstanceID())
	assert.Contains(t, txt, "version="+config.AppVersion)
	assert.Contains(t, txt, "path=/api")
	assert.Contains(t, txt, "matrix=8")
}

func TestResolveInstanceName(t *testing.T) {
	t.Parallel()

	host := func() (string, error) { return "workbench", nil }
	noHost := func() (string, error) { return "", errors.New("no hostname") }

	tests := []struct {
		hostname   func() (string, error)
		name       string
		configured string
		instanceID string
		want       string
	}{
		{name: "configured wins", configured: "Studio", instanceID: "abcdef123456", hostname: host, want: "Studio"},
		{name: "hostname", instanceID: "abcdef123456", hostname: host, want: "workbench"},
		{name: "instance id fallback", instanceID: "abcdef123456", hostname: noHost, want: "framolux-abcdef12"},
		{name: "short id fallback", instanceID: "abc", hostname: noHost, want: "framolux"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, resolveInstanceName(tt.configured, tt.instanceID, tt.hostname))
		})
	}
}

func TestFilterInterfaces(t *testing.T) {
	t.Parallel()

	up := net.FlagUp | net.FlagMulticast
	ifaces := []net.Interface{
		{Name: "eth0", Flags: up},
		{Name: "wlan0", Flags: up},
		{Name: "lo", Flags: up | net.FlagLoopback},
		{Name: "eth1", Flags: net.FlagMulticast},
		{Name: "tun0", Flags: net.FlagUp},
		{Name: "docker0", Flags: up},
		{Name: "veth12ab", Flags: up},
		{Name: "wg0", Flags: up},
	}

	got := filterInterfaces(ifaces)
	names := make([]string, 0, len(got))
	for _, iface := range got {
		names = append(names, iface.Name)
	}
	assert.Equal(t, []string{"eth0", "wlan0"}, names)
}

func TestBridgeFromEntry(t *testing.T) {
	t.Parallel()

	e := zeroconf.NewServiceEntry("Studio", ServiceType, "local.")
	e.HostName = "studio.local."
	e.Port = 7497
	e.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.5")}
	e.Text = []string{"id=abc", "version=1.2.0", "path=/api", "junk"}

	b := bridgeFromEntry(e)
	assert.Equal(t, Bridge{
		Instance: "Studio",
		Host:     "studio.local.",
		ID:       "abc",
		Version:  "1.2.0",
		Addrs:    []string{"192.168.1.5"},
		Port:     7497,
	}, b)
}
