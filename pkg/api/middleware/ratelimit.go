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
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// RequestsPerMinute is sized for an editor streaming preview frames
	// and pixel edits, not just occasional commands.
	RequestsPerMinute = 600
	BurstSize         = 60

	limiterMaxAge   = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// RateLimitErrorCode is the JSON-RPC error code sent to throttled sockets.
const RateLimitErrorCode = -32029

// IPRateLimiter hands out one token bucket per client address. HTTP and
// WebSocket traffic from the same address share a bucket.
type IPRateLimiter struct {
	clock    clockwork.Clock
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	mu       syncutil.Mutex
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter uses RequestsPerMinute and BurstSize.
func NewIPRateLimiter(clock clockwork.Clock) *IPRateLimiter {
	return NewIPRateLimiterWithLimit(clock, RequestsPerMinute, BurstSize)
}

func NewIPRateLimiterWithLimit(clock clockwork.Clock, perMinute, burst int) *IPRateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IPRateLimiter{
		clock:    clock,
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

// Allow consumes one token from ip's bucket.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Len returns the number of tracked addresses.
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Cleanup forgets addresses idle for longer than ten minutes.
func (rl *IPRateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterMaxAge {
			delete(rl.limiters, ip)
			log.Debug().Str("ip", ip).Msg("removed stale rate limiter")
		}
	}
}

// StartCleanup runs Cleanup periodically until ctx is done.
func (rl *IPRateLimiter) StartCleanup(ctx context.Context) {
	go func() {
		ticker := rl.clock.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func clientKey(remoteAddr string) string {
	ip := ParseRemoteIP(remoteAddr)
	if !ip.IsValid() {
		return remoteAddr
	}
	return ip.String()
}

// HTTPRateLimitMiddleware answers 429 once a client's bucket is empty.
func HTTPRateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := clientKey(r.RemoteAddr)
			if !limiter.Allow(host) {
				log.Warn().
					Str("ip", host).
					Str("path", r.URL.Path).
					Msg("HTTP rate limit exceeded")
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type rateLimitReply struct {
	ID      any    `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Error   struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// WebSocketRateLimitHandler drops messages over the limit and tells the
// client with a JSON-RPC error that has a null id.
func WebSocketRateLimitHandler(
	limiter *IPRateLimiter,
	handler func(*melody.Session, []byte),
) func(*melody.Session, []byte) {
	return func(session *melody.Session, msg []byte) {
		host := clientKey(session.Request.RemoteAddr)
		if limiter.Allow(host) {
			handler(session, msg)
			return
		}

		log.Warn().Str("ip", host).Int("size", len(msg)).Msg("WebSocket rate limit exceeded")
		reply := rateLimitReply{JSONRPC: "2.0"}
		reply.Error.Code = RateLimitErrorCode
		reply.Error.Message = "rate limit exceeded"
		data, err := json.Marshal(reply)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal rate limit error")
			return
		}
		if err := session.Write(data); err != nil {
			log.Debug().Err(err).Msg("failed to send rate limit error")
		}
	}
}
