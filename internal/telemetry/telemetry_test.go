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

package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "no pii", input: "/usr/local/bin/framolux", expected: "/usr/local/bin/framolux"},
		{
			name:     "linux home path",
			input:    "/home/alex/dev/framolux/config.toml",
			expected: "/home/<user>/dev/framolux/config.toml",
		},
		{
			name:     "macos users path lowercase",
			input:    "/users/alex/Library/framolux.db",
			expected: "/Users/<user>/Library/framolux.db",
		},
		{
			name:     "windows path",
			input:    "D:\\Users\\admin\\framolux\\logs",
			expected: "C:\\Users\\<user>\\framolux\\logs",
		},
		{
			name:     "lan address",
			input:    "upload to 192.168.1.50 failed: connection refused",
			expected: "upload to <lan-ip> failed: connection refused",
		},
		{
			name:     "other private ranges",
			input:    "10.0.0.7 and 172.20.1.9 but not 8.8.8.8",
			expected: "<lan-ip> and <lan-ip> but not 8.8.8.8",
		},
		{
			name:     "wifi command",
			input:    "write failed: SET_WIFI:home:hunter2: timeout",
			expected: "write failed: SET_WIFI:<redacted> timeout",
		},
		{
			name:     "api key command",
			input:    "SET_APIKEY:abc123",
			expected: "SET_APIKEY:<redacted>",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, sanitize(tt.input))
		})
	}
}

func TestSanitizeEvent(t *testing.T) {
	t.Parallel()

	event := &sentry.Event{
		ServerName: "my-laptop",
		Message:    "device 192.168.1.20 offline",
		Extra:      map[string]any{"path": "/home/sam/x", "n": 3},
		Exception: []sentry.Exception{{
			Value: "dial tcp 192.168.1.20:80",
			Stacktrace: &sentry.Stacktrace{Frames: []sentry.Frame{
				{AbsPath: "/home/sam/src/main.go", Filename: "main.go"},
			}},
		}},
	}

	got := sanitizeEvent(event)
	assert.Empty(t, got.ServerName)
	assert.Equal(t, "device <lan-ip> offline", got.Message)
	assert.Equal(t, "/home/<user>/x", got.Extra["path"])
	assert.Equal(t, 3, got.Extra["n"])
	assert.Equal(t, "dial tcp <lan-ip>:80", got.Exception[0].Value)
	assert.Equal(t, "/home/<user>/src/main.go", got.Exception[0].Stacktrace.Frames[0].AbsPath)
}

func TestInitDisabled(t *testing.T) {
	t.Parallel()

	require.NoError(t, Init(Options{}))
	assert.False(t, Enabled())
	Close()
	Flush()
}

func TestInitWithoutDSN(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Init(Options{Enabled: true}), ErrNoDSN)
	assert.False(t, Enabled())
}
