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

// Package httpclient holds the HTTP plumbing shared by every component that
// talks to panel firmware.
package httpclient

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
)

const (
	// DefaultTimeout bounds a whole request to a device.
	DefaultTimeout = 10 * time.Second
	// APIKeyHeader carries the optional shared secret set over serial.
	APIKeyHeader = "X-API-Key"
)

// AuthTransport attaches the API key for the request's host when one is
// configured.
type AuthTransport struct {
	Base   http.RoundTripper
	APIKey func(host string) string
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if t.APIKey != nil {
		if key := t.APIKey(req.URL.Hostname()); key != "" {
			req = req.Clone(req.Context())
			req.Header.Set(APIKeyHeader, key)
		}
	}

	return base.RoundTrip(req) //nolint:wrapcheck // transport errors pass through untouched
}

// DefaultTransport keeps connections to the handful of LAN devices alive
// while still failing fast on hosts that don't answer.
var DefaultTransport = &http.Transport{
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ResponseHeaderTimeout: 10 * time.Second,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   4,
	IdleConnTimeout:       90 * time.Second,
}

type Client struct {
	*http.Client
}

func NewClient() *Client {
	return NewClientWithTimeout(DefaultTimeout)
}

func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{
		Client: &http.Client{
			Transport: &AuthTransport{Base: DefaultTransport},
			Timeout:   timeout,
		},
	}
}

// NewClientWithAPIKey returns a client that asks apiKey for the key of each
// request's host.
func NewClientWithAPIKey(timeout time.Duration, apiKey func(host string) string) *Client {
	return &Client{
		Client: &http.Client{
			Transport: &AuthTransport{Base: DefaultTransport, APIKey: apiKey},
			Timeout:   timeout,
		},
	}
}

// ProgressReader wraps a request body and reports how much of it has been
// consumed, as a percentage from 0 to 100.
type ProgressReader struct {
	r        io.Reader
	onChange func(percent int)
	total    int64
	read     int64
	last     int
	mu       syncutil.Mutex
}

func NewProgressReader(r io.Reader, total int64, onChange func(percent int)) *ProgressReader {
	return &ProgressReader{r: r, total: total, onChange: onChange, last: -1}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)

	p.mu.Lock()
	p.read += int64(n)
	percent := 100
	if p.total > 0 {
		percent = int(p.read * 100 / p.total)
	}
	if percent > 100 {
		percent = 100
	}
	changed := percent != p.last
	p.last = percent
	p.mu.Unlock()

	if changed && p.onChange != nil {
		p.onChange(percent)
	}
	return n, err //nolint:wrapcheck // io.Reader contract requires unwrapped io.EOF
}
