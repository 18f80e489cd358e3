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
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

type fakeChecker struct {
	online map[string]int
}

func (f *fakeChecker) Status(_ context.Context, host string) (StatusResponse, error) {
	n, ok := f.online[host]
	if !ok {
		return StatusResponse{}, errors.New("connection refused")
	}
	return StatusResponse{Status: "ok", FrameCount: n}, nil
}

func TestPoller_CheckAll(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "10.0.0.2"))
	off := testDevice("B", "10.0.0.3")
	off.Status = StatusOffline
	r.Upsert(off)

	checker := &fakeChecker{online: map[string]int{"10.0.0.3": 9}}
	p := NewPoller(clockwork.NewFakeClock(), checker, r, 0)
	p.CheckAll(testContext(t))

	a, _ := r.Get("A")
	b, _ := r.Get("B")
	assert.False(t, a.Online())
	assert.True(t, b.Online())
	assert.Equal(t, 9, b.FrameCount)
}

func TestPoller_RunTicks(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "10.0.0.2"))

	clock := clockwork.NewFakeClock()
	checker := &fakeChecker{online: map[string]int{}}
	p := NewPoller(clock, checker, r, time.Minute)

	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	bctx, bcancel := context.WithTimeout(testContext(t), time.Second)
	defer bcancel()
	require.NoError(t, clock.BlockUntilContext(bctx, 1))
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool {
		d, _ := r.Get("A")
		return !d.Online()
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
