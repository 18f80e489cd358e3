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

package middleware

import (
	"net"
	"net/http"
	"net/netip"

	"github.com/rs/zerolog/log"
)

// ParseRemoteIP extracts the address from an "ip:port" RemoteAddr. It
// returns the zero Addr when nothing parses.
func ParseRemoteIP(remoteAddr string) netip.Addr {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}
	}
	return addr.Unmap()
}

func IsLoopbackAddr(remoteAddr string) bool {
	return ParseRemoteIP(remoteAddr).IsLoopback()
}

// IPFilter is an allowlist of addresses and networks. An empty list lets
// everyone through; loopback is always allowed so the local CLI keeps
// working.
type IPFilter struct {
	prefixes []netip.Prefix
}

// NewIPFilter parses entries as CIDRs or single addresses. Ports are
// stripped and unparseable entries are skipped with a warning.
func NewIPFilter(allowed []string) *IPFilter {
	f := &IPFilter{}
	for _, entry := range allowed {
		if host, _, err := net.SplitHostPort(entry); err == nil {
			entry = host
		}
		if p, err := netip.ParsePrefix(entry); err == nil {
			f.prefixes = append(f.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil {
			a = a.Unmap()
			f.prefixes = append(f.prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		log.Warn().Str("entry", entry).Msg("invalid address in allowed_ips, skipping")
	}
	return f
}

// Len returns how many valid entries the filter holds.
func (f *IPFilter) Len() int {
	return len(f.prefixes)
}

func (f *IPFilter) IsAllowed(remoteAddr string) bool {
	if len(f.prefixes) == 0 {
		return true
	}
	addr := ParseRemoteIP(remoteAddr)
	if !addr.IsValid() {
		log.Warn().Str("addr", remoteAddr).Msg("failed to parse remote address")
		return false
	}
	if addr.IsLoopback() {
		return true
	}
	for _, p := range f.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// HTTPIPFilterMiddleware rejects requests from addresses outside the
// allowlist, WebSocket upgrades included.
func HTTPIPFilterMiddleware(filter *IPFilter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !filter.IsAllowed(r.RemoteAddr) {
				log.Debug().
					Str("addr", r.RemoteAddr).
					Str("path", r.URL.Path).
					Msg("request from blocked address")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PrivateNetworkAccess answers Chrome's private network preflight so a
// hosted editor page may reach the service on the LAN.
func PrivateNetworkAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Access-Control-Request-Private-Network") == "true" {
			w.Header().Set("Access-Control-Allow-Private-Network", "true")
		}
		next.ServeHTTP(w, r)
	})
}
