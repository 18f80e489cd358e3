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

package helpers

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
)

// MockDeviceServer emulates panel firmware over HTTP for integration tests.
// It deliberately speaks raw JSON so it can be used from any package's
// tests without an import cycle.
type MockDeviceServer struct {
	*httptest.Server
	failures  map[string]int
	requests  map[string]int
	info      map[string]any
	uploads   [][]byte
	delay     time.Duration
	omitCount bool
	powered   bool
	mu        syncutil.Mutex
}

// NewMockDeviceServer starts a compatible device with id FLX-TEST01.
func NewMockDeviceServer(t *testing.T) *MockDeviceServer {
	m := &MockDeviceServer{
		failures: make(map[string]int),
		requests: make(map[string]int),
		powered:  true,
		info: map[string]any{
			"deviceId":   "FLX-TEST01",
			"deviceName": "Test Panel",
			"firmware":   "framolux",
			"version":    "1.2.0",
			"ssid":       "testnet",
			"mac":        "AA:BB:CC:DD:EE:FF",
			"rssi":       -55,
			"frameCount": 0,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/info", m.handleInfo)
	mux.HandleFunc("/info", m.handleInfo)
	mux.HandleFunc("/status", m.handleStatus)
	mux.HandleFunc("/frames", m.handleFrames)
	mux.HandleFunc("/config", m.handleConfig)
	mux.HandleFunc("/power/", m.handlePower)
	m.Server = httptest.NewServer(mux)
	if t != nil {
		t.Cleanup(m.Close)
	}
	return m
}

// Host returns "ip:port" as the device client expects it.
func (m *MockDeviceServer) Host() string {
	return strings.TrimPrefix(m.Server.URL, "http://")
}

// WithInfo overrides a field of the identity payload.
func (m *MockDeviceServer) WithInfo(key string, value any) *MockDeviceServer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == nil {
		delete(m.info, key)
	} else {
		m.info[key] = value
	}
	return m
}

// WithFailure makes every request to path answer with the given status.
func (m *MockDeviceServer) WithFailure(path string, status int) *MockDeviceServer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = status
	return m
}

// WithDelay makes every response wait before being written.
func (m *MockDeviceServer) WithDelay(d time.Duration) *MockDeviceServer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithoutFrameCount drops frameCount from upload responses.
func (m *MockDeviceServer) WithoutFrameCount() *MockDeviceServer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.omitCount = true
	return m
}

// Requests returns how many requests hit path.
func (m *MockDeviceServer) Requests(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[path]
}

// Uploads returns copies of every body POSTed to /frames.
func (m *MockDeviceServer) Uploads() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.uploads))
	for i, u := range m.uploads {
		out[i] = append([]byte(nil), u...)
	}
	return out
}

// DeviceName returns the name currently reported by the device.
func (m *MockDeviceServer) DeviceName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	name, _ := m.info["deviceName"].(string)
	return name
}

// enter records the request and reports whether the handler should go on.
func (m *MockDeviceServer) enter(w http.ResponseWriter, r *http.Request) bool {
	m.mu.Lock()
	m.requests[r.URL.Path]++
	status := m.failures[r.URL.Path]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return false
		}
	}
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (m *MockDeviceServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	if !m.enter(w, r) {
		return
	}
	m.mu.Lock()
	info := make(map[string]any, len(m.info))
	for k, v := range m.info {
		info[k] = v
	}
	m.mu.Unlock()
	writeJSON(w, info)
}

func (m *MockDeviceServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !m.enter(w, r) {
		return
	}
	m.mu.Lock()
	resp := map[string]any{
		"status":     "ok",
		"deviceId":   m.info["deviceId"],
		"frameCount": m.info["frameCount"],
		"freeHeap":   24000,
		"uptime":     1234,
	}
	m.mu.Unlock()
	writeJSON(w, resp)
}

func (m *MockDeviceServer) handleFrames(w http.ResponseWriter, r *http.Request) {
	if !m.enter(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		m.mu.Lock()
		count, _ := m.info["frameCount"].(int)
		m.mu.Unlock()
		frames := make([]map[string]any, 0, count)
		for _i := 0; _i < count; _i++ {
			frames = append(frames, map[string]any{"duration": 1000, "leds": []string{}})
		}
		writeJSON(w, map[string]any{"frames": frames, "totalFrames": count})
	case http.MethodPost:
		if ct := r.Header.Get("Content-Type"); ct != "application/octet-stream" {
			http.Error(w, "expected application/octet-stream", http.StatusUnsupportedMediaType)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil || len(body) < 8 || string(body[:4]) != "FMLX" {
			http.Error(w, "invalid animation", http.StatusBadRequest)
			return
		}
		count := int(binary.LittleEndian.Uint16(body[6:]))

		m.mu.Lock()
		m.uploads = append(m.uploads, body)
		m.info["frameCount"] = count
		omit := m.omitCount
		m.mu.Unlock()

		resp := map[string]any{"success": true, "message": "Frames stored"}
		if !omit {
			resp["frameCount"] = count
		}
		writeJSON(w, resp)
	case http.MethodDelete:
		m.mu.Lock()
		m.info["frameCount"] = 0
		m.mu.Unlock()
		writeJSON(w, map[string]any{"success": true, "message": "Frames cleared"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (m *MockDeviceServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !m.enter(w, r) {
		return
	}
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		DeviceName string `json:"deviceName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceName == "" {
		http.Error(w, "invalid config", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.info["deviceName"] = req.DeviceName
	m.mu.Unlock()
	writeJSON(w, map[string]any{
		"success":    true,
		"deviceName": req.DeviceName,
		"message":    "Name updated",
	})
}

func (m *MockDeviceServer) handlePower(w http.ResponseWriter, r *http.Request) {
	if !m.enter(w, r) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch r.URL.Path {
	case "/power/on":
		m.powered = true
	case "/power/off":
		m.powered = false
	case "/power/status":
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{"powered": m.powered})
}
