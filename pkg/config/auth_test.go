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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestLoadAuthFromData(t *testing.T) {
	t.Parallel()

	creds := LoadAuthFromData([]byte(`
["http://192.168.1.50"]
api_key = "abc"

[creds."tcp://broker:1883"]
username = "user"
password = "pass"
`))

	require.Len(t, creds, 2)
	assert.Equal(t, "abc", creds["http://192.168.1.50"].APIKey)
	assert.Equal(t, "user", creds["tcp://broker:1883"].Username)
	assert.Equal(t, "pass", creds["tcp://broker:1883"].Password)
}

func TestLoadAuthFromDataInvalid(t *testing.T) {
	t.Parallel()

	assert.Empty(t, LoadAuthFromData(nil))
	assert.Empty(t, LoadAuthFromData([]byte("[[[")))
}

func TestLookupAuth(t *testing.T) {
	t.Parallel()

	creds := map[string]CredentialEntry{
		"http://192.168.1.50":     {APIKey: "exact"},
		"mqtt://broker:1883":      {Username: "canonical"},
		"https://secure.local/v1": {APIKey: "path"},
		"bare.local:8080":         {APIKey: "hostport"},
		"panel.local":             {APIKey: "host"},
		"ssl://broker:8883":       {Username: "tls"},
		"%%bad":                   {APIKey: "never"},
	}

	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "exact", url: "http://192.168.1.50/frames", want: "exact"},
		{name: "case insensitive host", url: "HTTP://192.168.1.50/", want: "exact"},
		{name: "tcp matches mqtt", url: "tcp://broker:1883", want: "canonical"},
		{name: "tls alias", url: "mqtts://broker:8883", want: "tls"},
		{name: "path prefix", url: "https://secure.local/v1/x", want: "path"},
		{name: "path mismatch", url: "https://secure.local/v2", want: ""},
		{name: "scheme mismatch", url: "https://192.168.1.50/", want: ""},
		{name: "schemeless host port", url: "http://bare.local:8080/", want: "hostport"},
		{name: "schemeless host", url: "http://panel.local/status", want: "host"},
		{name: "no match", url: "http://10.0.0.1/", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := LookupAuth(creds, tt.url)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Contains(t, []string{got.APIKey, got.Username}, tt.want)
		})
	}
}

func TestLookupAuthEmpty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, LookupAuth(nil, "http://x"))
	assert.Nil(t, LookupAuth(map[string]CredentialEntry{"x": {}}, "://bad"))
}

func TestPropertyLookupAuthExactHost(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		host := rapid.StringMatching(`[a-z]{3,10}`).Draw(t, "host")
		key := rapid.StringMatching(`[a-z0-9]{4,16}`).Draw(t, "key")

		creds := map[string]CredentialEntry{"http://" + host + ".local": {APIKey: key}}
		got := LookupAuth(creds, "http://"+host+".local/frames")
		if got == nil || got.APIKey != key {
			t.Fatalf("expected key %q for host %q, got %v", key, host, got)
		}
		if other := LookupAuth(creds, "http://"+host+"x.local/"); other != nil {
			t.Fatalf("unexpected match for different host: %v", other)
		}
	})
}
