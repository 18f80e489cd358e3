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

package devices

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultPollInterval is how often known devices are re-checked.
const DefaultPollInterval = 30 * time.Second

// StatusChecker is the subset of Client the poller needs.
type StatusChecker interface {
	Status(ctx context.Context, host string) (StatusResponse, error)
}

// Poller periodically refreshes the online/offline state of every device in
// a registry.
type Poller struct {
	clock    clockwork.Clock
	checker  StatusChecker
	registry *Registry
	interval time.Duration
	timeout  time.Duration
}

func NewPoller(
	clock clockwork.Clock,
	checker StatusChecker,
	registry *Registry,
	interval time.Duration,
) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		clock:    clock,
		checker:  checker,
		registry: registry,
		interval: interval,
		timeout:  ConnectTimeout,
	}
}

// CheckAll probes every known device once.
func (p *Poller) CheckAll(ctx context.Context) {
	for _, d := range p.registry.List() {
		if ctx.Err() != nil {
			return
		}
		p.check(ctx, d)
	}
}

func (p *Poller) check(ctx context.Context, d Device) {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, err := p.checker.Status(cctx, d.IP)
	if err != nil {
		if d.Online() {
			log.Info().Err(err).Str("device", d.DeviceID).Str("ip", d.IP).Msg("device went offline")
		}
		_ = p.registry.SetStatus(d.DeviceID, StatusOffline, 0)
		return
	}
	if !d.Online() {
		log.Info().Str("device", d.DeviceID).Str("ip", d.IP).Msg("device is back online")
	}
	_ = p.registry.SetStatus(d.DeviceID, StatusOnline, status.FrameCount)
}

// Run checks all devices on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.CheckAll(ctx)
		}
	}
}
